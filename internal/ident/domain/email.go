package domain

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidEmail reports a malformed email address.
var ErrInvalidEmail = errors.New("invalid email format")

// RFC 5321 length limits.
const (
	maxEmailLength  = 254
	maxLocalLength  = 64
	maxDomainLength = 253
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email is a validated, normalized (lowercase, trimmed) email address.
// Construct only through NewEmail; an Email value is always well-formed.
type Email string

// NewEmail validates raw and returns the normalized address.
func NewEmail(raw string) (Email, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !emailPattern.MatchString(trimmed) {
		return "", ErrInvalidEmail
	}
	if len(trimmed) > maxEmailLength {
		return "", ErrInvalidEmail
	}

	at := strings.Index(trimmed, "@")
	if len(trimmed[:at]) > maxLocalLength || len(trimmed[at+1:]) > maxDomainLength {
		return "", ErrInvalidEmail
	}

	return Email(strings.ToLower(trimmed)), nil
}

func (e Email) String() string { return string(e) }

// LocalPart returns everything before the "@".
func (e Email) LocalPart() string {
	at := strings.Index(string(e), "@")
	if at < 0 {
		return string(e)
	}
	return string(e)[:at]
}

// Domain returns everything after the "@".
func (e Email) Domain() string {
	at := strings.Index(string(e), "@")
	if at < 0 {
		return ""
	}
	return string(e)[at+1:]
}
