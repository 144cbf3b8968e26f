package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testUser(t *testing.T) User {
	t.Helper()

	email, err := NewEmail("alice@example.com")
	require.NoError(t, err)

	u, err := NewUser(GenerateUserID(), email, Profile{
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	return u
}

func TestNewUserDefaults(t *testing.T) {
	t.Parallel()

	u := testUser(t)
	require.True(t, u.IsActive)
	require.False(t, u.Profile.IsEmailVerified)
	require.False(t, u.Profile.IsTwoFactorEnabled)
	require.Nil(t, u.Profile.LastLoginAt)
	require.Equal(t, "Alice Smith", u.FullName())
}

func TestNewUserRequiresNames(t *testing.T) {
	t.Parallel()

	email, err := NewEmail("a@b.co")
	require.NoError(t, err)

	_, err = NewUser(GenerateUserID(), email, Profile{FirstName: "  ", LastName: "Smith"})
	require.ErrorIs(t, err, ErrEmptyFirstName)

	_, err = NewUser(GenerateUserID(), email, Profile{FirstName: "Alice", LastName: ""})
	require.ErrorIs(t, err, ErrEmptyLastName)
}

func TestMutationsBumpUpdatedAt(t *testing.T) {
	t.Parallel()

	u := testUser(t)
	before := u.UpdatedAt

	time.Sleep(time.Millisecond)
	u.VerifyEmail()

	require.True(t, u.Profile.IsEmailVerified)
	require.True(t, u.UpdatedAt.After(before))
}

func TestRecordLogin(t *testing.T) {
	t.Parallel()

	u := testUser(t)
	u.RecordLogin()

	require.NotNil(t, u.Profile.LastLoginAt)
	require.WithinDuration(t, time.Now().UTC(), *u.Profile.LastLoginAt, time.Second)
}

func TestRoleAssignment(t *testing.T) {
	t.Parallel()

	u := testUser(t)
	role, err := NewRole("r1", RoleNameUser, "default role", 1)
	require.NoError(t, err)

	u.AssignRole(role)
	u.AssignRole(role) // idempotent
	require.Len(t, u.Roles, 1)
	require.True(t, u.HasRoleNamed(RoleNameUser))
	require.Equal(t, []string{RoleNameUser}, u.RoleNames())

	u.RemoveRole(role)
	require.Empty(t, u.Roles)
}

func TestPermissionContainment(t *testing.T) {
	t.Parallel()

	perm, err := NewPermission("p1", "read reports", "read access to reports", "reports", "read")
	require.NoError(t, err)

	role, err := NewRole("r1", RoleNameManager, "manager", 5)
	require.NoError(t, err)
	role.AddPermission(perm)
	role.AddPermission(perm) // duplicate key ignored in-memory
	require.Len(t, role.Permissions, 1)
	require.Equal(t, "reports:read", perm.Key())

	u := testUser(t)
	u.AssignRole(role)

	require.True(t, u.CanPerform("reports", "read"))
	require.False(t, u.CanPerform("reports", "write"))
	require.True(t, u.HasPermission(perm))
}

func TestPrivilegeLevels(t *testing.T) {
	t.Parallel()

	u := testUser(t)
	require.False(t, u.IsAdmin())
	require.False(t, u.IsManager())

	admin, err := NewRole("r-admin", RoleNameAdmin, "admin", 10)
	require.NoError(t, err)
	u.AssignRole(admin)

	require.True(t, u.IsAdmin())
	require.True(t, u.IsManager(), "admin level satisfies manager threshold")
	require.Equal(t, 10, u.HighestRoleLevel())
}

func TestActivateDeactivate(t *testing.T) {
	t.Parallel()

	u := testUser(t)
	u.Deactivate()
	require.False(t, u.IsActive)
	u.Activate()
	require.True(t, u.IsActive)
}

func TestNewRoleValidation(t *testing.T) {
	t.Parallel()

	_, err := NewRole("", "name", "", 1)
	require.ErrorIs(t, err, ErrInvalidRole)
	_, err = NewRole("id", "", "", 1)
	require.ErrorIs(t, err, ErrInvalidRole)
	_, err = NewRole("id", "name", "", -1)
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	u := testUser(t)
	dob := time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC)

	require.NoError(t, u.UpdateProfile(" Grace ", "Hopper", "avatar.png", "+61400000000", &dob))
	require.Equal(t, "Grace Hopper", u.FullName())
	require.Equal(t, "avatar.png", u.Profile.Avatar)
	require.Equal(t, &dob, u.Profile.DateOfBirth)

	require.ErrorIs(t, u.UpdateProfile("", "Hopper", "", "", nil), ErrEmptyFirstName)
	require.ErrorIs(t, u.UpdateProfile("Grace", "  ", "", "", nil), ErrEmptyLastName)
}

func TestTokenPurposeTTL(t *testing.T) {
	t.Parallel()

	require.Equal(t, EmailVerificationTTL, PurposeEmailVerification.TTL())
	require.Equal(t, PasswordResetTTL, PurposePasswordReset.TTL())
}
