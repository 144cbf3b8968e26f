package domain

import (
	"errors"
	"strings"

	"github.com/stackworks/ident/pkg/idx"
)

// ErrEmptyUserID reports a blank user identifier.
var ErrEmptyUserID = errors.New("user id cannot be empty")

// UserID wraps an opaque unique identifier string.
type UserID string

// NewUserID validates and trims an identifier supplied from outside.
func NewUserID(raw string) (UserID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyUserID
	}
	return UserID(trimmed), nil
}

// GenerateUserID mints a fresh identifier.
func GenerateUserID() UserID {
	return UserID(idx.New().String())
}

func (id UserID) String() string { return string(id) }
