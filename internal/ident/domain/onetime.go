package domain

import "time"

// TokenPurpose distinguishes the two independent one-time token flows.
type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposePasswordReset     TokenPurpose = "password_reset"
)

// One-time token lifetimes per purpose.
const (
	EmailVerificationTTL = 24 * time.Hour
	PasswordResetTTL     = time.Hour
)

// TTL returns the configured lifetime for the purpose.
func (p TokenPurpose) TTL() time.Duration {
	if p == PurposePasswordReset {
		return PasswordResetTTL
	}
	return EmailVerificationTTL
}

// OneTimeToken is the stored record of a single-use secret: only the SHA-256
// hash is persisted, never the raw value. Exactly one outstanding record
// exists per (user, purpose); issuing a new one supersedes the old.
type OneTimeToken struct {
	UserID    UserID
	Purpose   TokenPurpose
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
