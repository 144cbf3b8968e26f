package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPasswordRejectsMissingClasses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"too short", "Ab1!xyz"},
		{"no uppercase", "abcdef1!"},
		{"no lowercase", "ABCDEF1!"},
		{"no digit", "Abcdefg!"},
		{"no special", "Abcdefg1"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPassword(tt.in)
			require.ErrorIs(t, err, ErrWeakPassword)
		})
	}
}

func TestNewPasswordAcceptsCompliant(t *testing.T) {
	t.Parallel()

	p, err := NewPassword("Abcdef1!")
	require.NoError(t, err)
	require.Equal(t, "Abcdef1!", p.Value())
}

func TestPasswordStrength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want PasswordStrength
	}{
		{"minimum length all classes", "Abcdef1!", StrengthMedium},
		{"twelve chars all classes", "Abcdefghij1!", StrengthStrong},
		{"long all classes", "Correct-Horse-Battery1!", StrengthStrong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPassword(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, p.Strength())
		})
	}
}

func TestPasswordRequirementsListsAllRules(t *testing.T) {
	t.Parallel()
	require.Len(t, PasswordRequirements(), 5)
}
