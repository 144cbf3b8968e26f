package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stackworks/ident/internal/ident/domain"
	"github.com/stackworks/ident/internal/ident/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "ident.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newTestUser(t *testing.T, addr string) domain.User {
	t.Helper()

	email, err := domain.NewEmail(addr)
	require.NoError(t, err)

	u, err := domain.NewUser(domain.GenerateUserID(), email, domain.Profile{
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	u.PasswordHash = "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"
	return u
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
}

func TestUsersRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "ada@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	got, err := s.Users().GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, u.PasswordHash, got.PasswordHash)
	require.True(t, got.IsActive)
	require.False(t, got.Profile.IsEmailVerified)
	require.Empty(t, got.Roles)

	got2, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, got.ID, got2.ID)
}

func TestUsersDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "dup@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	other := newTestUser(t, "dup@example.com")
	err := s.Users().CreateUser(ctx, other)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsersEmailExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "exists@example.com")

	ok, err := s.Users().EmailExists(ctx, u.Email)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Users().CreateUser(ctx, u))

	ok, err = s.Users().EmailExists(ctx, u.Email)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestUsersNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Users().GetUserByID(ctx, domain.GenerateUserID())
	require.ErrorIs(t, err, store.ErrNotFound)

	email, err := domain.NewEmail("ghost@example.com")
	require.NoError(t, err)
	_, err = s.Users().GetUserByEmail(ctx, email)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsersUpdateFlags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "verify@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	u.VerifyEmail()
	u.RecordLogin()
	require.NoError(t, s.Users().UpdateUser(ctx, u))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.Profile.IsEmailVerified)
	require.NotNil(t, got.Profile.LastLoginAt)
}

func TestUsersUpdatePasswordHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "rotate@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "new-hash"))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)

	err = s.Users().UpdatePasswordHash(ctx, domain.GenerateUserID(), "x")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsersAssignRoleLoadsWithUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "role@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	role, err := s.Roles().GetRoleByName(ctx, domain.RoleNameUser)
	require.NoError(t, err)

	require.NoError(t, s.Users().AssignRole(ctx, u.ID, role.ID))
	// Assigning again is a no-op.
	require.NoError(t, s.Users().AssignRole(ctx, u.ID, role.ID))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Roles, 1)
	require.Equal(t, domain.RoleNameUser, got.Roles[0].Name)
}

func TestRolesSeededAndCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seeded, err := s.Roles().GetRoleByName(ctx, domain.RoleNameUser)
	require.NoError(t, err)
	require.Equal(t, 1, seeded.Level)

	admin, err := domain.NewRole("01JADMIN00000000000000000X", domain.RoleNameAdmin, "Full access", 10)
	require.NoError(t, err)
	require.NoError(t, s.Roles().CreateRole(ctx, admin))

	err = s.Roles().CreateRole(ctx, admin)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	all, err := s.Roles().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, domain.RoleNameAdmin, all[0].Name)
}

func newTestSession(userID domain.UserID, refreshHash string) domain.Session {
	now := time.Now().UTC()
	return domain.Session{
		ID:               "sess-" + refreshHash[:8],
		UserID:           userID,
		RefreshTokenHash: refreshHash,
		AccessTokenHash:  "access-" + refreshHash,
		ExpiresAt:        now.Add(15 * time.Minute),
		RefreshExpiresAt: now.Add(7 * 24 * time.Hour),
		DeviceInfo: domain.DeviceInfo{
			UserAgent: "test-agent",
			IPAddress: "127.0.0.1",
		},
		IsActive:   true,
		LastUsedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestSessionsLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "sessions@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	sess := newTestSession(u.ID, "hash-aaaaaaaa")
	require.NoError(t, s.Sessions().CreateSession(ctx, sess))

	got, err := s.Sessions().GetActiveByTokenHash(ctx, sess.RefreshTokenHash)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
	require.Equal(t, u.ID, got.UserID)

	require.NoError(t, s.Sessions().Touch(ctx, sess.ID))

	require.NoError(t, s.Sessions().MarkInactive(ctx, sess.ID))
	_, err = s.Sessions().GetActiveByTokenHash(ctx, sess.RefreshTokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessionsMarkInactiveIsSingleWinner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "race@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	sess := newTestSession(u.ID, "hash-bbbbbbbb")
	require.NoError(t, s.Sessions().CreateSession(ctx, sess))

	require.NoError(t, s.Sessions().MarkInactive(ctx, sess.ID))
	// A second attempt finds the row already retired.
	require.ErrorIs(t, s.Sessions().MarkInactive(ctx, sess.ID), store.ErrNotFound)
}

func TestSessionsMarkAllInactiveForUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "everywhere@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	for _, h := range []string{"hash-cccccccc", "hash-dddddddd"} {
		require.NoError(t, s.Sessions().CreateSession(ctx, newTestSession(u.ID, h)))
	}

	require.NoError(t, s.Sessions().MarkAllInactiveForUser(ctx, u.ID))
	// Idempotent.
	require.NoError(t, s.Sessions().MarkAllInactiveForUser(ctx, u.ID))

	for _, h := range []string{"hash-cccccccc", "hash-dddddddd"} {
		_, err := s.Sessions().GetActiveByTokenHash(ctx, h)
		require.ErrorIs(t, err, store.ErrNotFound)
	}
}

func TestSessionsExpiredNotReturnedAndPurged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "expired@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	sess := newTestSession(u.ID, "hash-eeeeeeee")
	sess.RefreshExpiresAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, s.Sessions().CreateSession(ctx, sess))

	_, err := s.Sessions().GetActiveByTokenHash(ctx, sess.RefreshTokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Sessions().DeleteExpired(ctx, time.Now().UTC()))

	// The row is gone, so even an active flag would not resurrect it.
	require.ErrorIs(t, s.Sessions().MarkInactive(ctx, sess.ID), store.ErrNotFound)
}

func TestOneTimeTokensUpsertSupersedes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "onetime@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	now := time.Now().UTC()
	first := domain.OneTimeToken{
		UserID:    u.ID,
		Purpose:   domain.PurposeEmailVerification,
		TokenHash: "first-hash",
		ExpiresAt: now.Add(domain.EmailVerificationTTL),
		CreatedAt: now,
	}
	require.NoError(t, s.OneTimeTokens().Upsert(ctx, first))

	second := first
	second.TokenHash = "second-hash"
	require.NoError(t, s.OneTimeTokens().Upsert(ctx, second))

	// Only the latest secret redeems.
	_, err := s.OneTimeTokens().GetByPurposeAndHash(ctx, domain.PurposeEmailVerification, "first-hash")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.OneTimeTokens().GetByPurposeAndHash(ctx, domain.PurposeEmailVerification, "second-hash")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.UserID)
}

func TestOneTimeTokensPurposesAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "purposes@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	now := time.Now().UTC()
	verify := domain.OneTimeToken{
		UserID:    u.ID,
		Purpose:   domain.PurposeEmailVerification,
		TokenHash: "verify-hash",
		ExpiresAt: now.Add(domain.EmailVerificationTTL),
		CreatedAt: now,
	}
	reset := domain.OneTimeToken{
		UserID:    u.ID,
		Purpose:   domain.PurposePasswordReset,
		TokenHash: "reset-hash",
		ExpiresAt: now.Add(domain.PasswordResetTTL),
		CreatedAt: now,
	}
	require.NoError(t, s.OneTimeTokens().Upsert(ctx, verify))
	require.NoError(t, s.OneTimeTokens().Upsert(ctx, reset))

	// A hash only redeems under its own purpose.
	_, err := s.OneTimeTokens().GetByPurposeAndHash(ctx, domain.PurposePasswordReset, "verify-hash")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.OneTimeTokens().Delete(ctx, u.ID, domain.PurposePasswordReset))
	_, err = s.OneTimeTokens().GetByPurposeAndHash(ctx, domain.PurposePasswordReset, "reset-hash")
	require.ErrorIs(t, err, store.ErrNotFound)

	// The verification token survives the reset delete.
	_, err = s.OneTimeTokens().GetByPurposeAndHash(ctx, domain.PurposeEmailVerification, "verify-hash")
	require.NoError(t, err)
}

func TestOneTimeTokensExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "stale@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	now := time.Now().UTC()
	stale := domain.OneTimeToken{
		UserID:    u.ID,
		Purpose:   domain.PurposePasswordReset,
		TokenHash: "stale-hash",
		ExpiresAt: now.Add(-time.Minute),
		CreatedAt: now.Add(-2 * time.Hour),
	}
	require.NoError(t, s.OneTimeTokens().Upsert(ctx, stale))

	_, err := s.OneTimeTokens().GetByPurposeAndHash(ctx, domain.PurposePasswordReset, "stale-hash")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.OneTimeTokens().DeleteExpired(ctx, now))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "txuser@example.com")
	boom := errDeliberate{}

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxCommits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "committed@example.com")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		role, err := tx.Roles().GetRoleByName(ctx, domain.RoleNameUser)
		if err != nil {
			return err
		}
		return tx.Users().AssignRole(ctx, u.ID, role.ID)
	})
	require.NoError(t, err)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Roles, 1)
}

type errDeliberate struct{}

func (errDeliberate) Error() string { return "deliberate failure" }
