package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token TTL constants for the two trust domains.
// These provide sensible security defaults but can be overridden per-service.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	// Short-lived for security - typical range is 15m to 1h.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	// Longer-lived for user convenience - typical range is 7d to 30d.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// DefaultLeeway absorbs small clock skew between issuer and verifier.
	DefaultLeeway = 30 * time.Second
)

// Identity is the claims payload minted into a token: who the token speaks
// for. Both trust domains embed the same shape.
type Identity struct {
	UserID string
	Email  string
	Roles  []string
}

// Claims are the full decoded token claims. The subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims

	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Identity re-projects the decoded claims into the payload shape.
func (c Claims) Identity() Identity {
	return Identity{
		UserID: c.Subject,
		Email:  c.Email,
		Roles:  c.Roles,
	}
}

func newClaims(id Identity, issuer, audience string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Email: id.Email,
		Roles: id.Roles,
	}
}
