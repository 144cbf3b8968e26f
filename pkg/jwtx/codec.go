// Package jwtx implements the two-domain token codec: compact, expiring,
// tamper-evident JWTs carrying an identity payload, signed with HMAC-SHA256.
// Access and refresh tokens use independent secrets so that compromise of one
// domain cannot forge tokens for the other.
package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the uniform verification failure. Bad signature, wrong
// issuer or audience, and expiry all collapse into this one error so callers
// cannot be used as a validity oracle.
var ErrInvalidToken = errors.New("jwtx: invalid token")

type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration // defaults to DefaultAccessTokenTTL
	RefreshTTL    time.Duration // defaults to DefaultRefreshTokenTTL
	Leeway        time.Duration // defaults to DefaultLeeway
}

// Codec signs and verifies tokens for the access and refresh trust domains.
type Codec struct {
	accessKey  []byte
	refreshKey []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	leeway     time.Duration
}

func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("jwtx: both signing secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("jwtx: access and refresh secrets must differ")
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("jwtx: issuer and audience are required")
	}

	c := &Codec{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		leeway:     cfg.Leeway,
	}
	if c.accessTTL <= 0 {
		c.accessTTL = DefaultAccessTokenTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = DefaultRefreshTokenTTL
	}
	if c.leeway <= 0 {
		c.leeway = DefaultLeeway
	}
	return c, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess mints a signed access token for the identity at the given time.
func (c *Codec) IssueAccess(id Identity, now time.Time) (string, error) {
	return c.sign(c.accessKey, newClaims(id, c.issuer, c.audience, c.accessTTL, now))
}

// IssueRefresh mints a signed refresh token for the identity at the given time.
func (c *Codec) IssueRefresh(id Identity, now time.Time) (string, error) {
	return c.sign(c.refreshKey, newClaims(id, c.issuer, c.audience, c.refreshTTL, now))
}

// VerifyAccess checks signature, issuer, audience, and expiry of an access
// token and returns its claims. Any failure yields ErrInvalidToken.
func (c *Codec) VerifyAccess(token string) (Claims, error) {
	return c.verify(c.accessKey, token)
}

// VerifyRefresh is VerifyAccess for the refresh trust domain.
func (c *Codec) VerifyRefresh(token string) (Claims, error) {
	return c.verify(c.refreshKey, token)
}

func (c *Codec) sign(key []byte, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (c *Codec) verify(key []byte, token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithLeeway(c.leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// ExpirationOf decodes the expiry claim WITHOUT verifying the signature.
// Advisory only (e.g. telling a client when to refresh); never use the result
// for a trust decision.
func ExpirationOf(token string) (time.Time, bool) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
