package domain

import (
	"errors"
	"regexp"
)

// ErrWeakPassword reports a password failing the complexity requirements.
var ErrWeakPassword = errors.New("password does not meet security requirements")

const minPasswordLength = 8

var (
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasDigit   = regexp.MustCompile(`\d`)
	hasSpecial = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// PasswordStrength is a derived classification, advisory for UI feedback.
type PasswordStrength string

const (
	StrengthWeak   PasswordStrength = "weak"
	StrengthMedium PasswordStrength = "medium"
	StrengthStrong PasswordStrength = "strong"
)

// Password is a validated plaintext password. The value is unexported so it
// cannot be marshaled or persisted; it exists only long enough to be
// exchanged for a hash.
type Password struct {
	value string
}

// NewPassword validates raw against the complexity rules: at least 8
// characters with upper, lower, digit and special character classes present.
func NewPassword(raw string) (Password, error) {
	if len(raw) < minPasswordLength ||
		!hasUpper.MatchString(raw) ||
		!hasLower.MatchString(raw) ||
		!hasDigit.MatchString(raw) ||
		!hasSpecial.MatchString(raw) {
		return Password{}, ErrWeakPassword
	}
	return Password{value: raw}, nil
}

// Value returns the plaintext for hashing. Never log or store it.
func (p Password) Value() string { return p.value }

// Strength classifies the password for UI feedback.
func (p Password) Strength() PasswordStrength {
	score := 0
	for _, re := range []*regexp.Regexp{hasUpper, hasLower, hasDigit, hasSpecial} {
		if re.MatchString(p.value) {
			score++
		}
	}

	switch {
	case len(p.value) >= 12 && score == 4:
		return StrengthStrong
	case len(p.value) >= 8 && score >= 3:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}

// PasswordRequirements lists the complexity rules in user-presentable form.
func PasswordRequirements() []string {
	return []string{
		"At least 8 characters long",
		"At least one uppercase letter",
		"At least one lowercase letter",
		"At least one number",
		`At least one special character (!@#$%^&*(),.?":{}|<>)`,
	}
}
