package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEmailNormalizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Email
	}{
		{"lowercases", "Alice@Example.COM", "alice@example.com"},
		{"trims whitespace", "  bob@example.com  ", "bob@example.com"},
		{"plus addressing", "a+tag@example.com", "a+tag@example.com"},
		{"subdomain", "x@mail.example.co.uk", "x@mail.example.co.uk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEmail(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewEmailRejectsInvalid(t *testing.T) {
	t.Parallel()

	longLocal := strings.Repeat("a", 65) + "@example.com"
	longDomain := "a@" + strings.Repeat("d", 250) + ".com"
	longTotal := strings.Repeat("a", 64) + "@" + strings.Repeat("d", 186) + ".com"

	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"no at sign", "alice.example.com"},
		{"no domain dot", "alice@example"},
		{"spaces inside", "al ice@example.com"},
		{"double at", "a@@example.com"},
		{"local part over 64", longLocal},
		{"domain over 253", longDomain},
		{"total over 254", longTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEmail(tt.in)
			require.ErrorIs(t, err, ErrInvalidEmail)
		})
	}
}

func TestEmailParts(t *testing.T) {
	t.Parallel()

	e, err := NewEmail("Alice@Example.com")
	require.NoError(t, err)
	require.Equal(t, "alice", e.LocalPart())
	require.Equal(t, "example.com", e.Domain())
}
