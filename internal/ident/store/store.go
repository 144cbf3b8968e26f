package store

import (
	"context"
	"errors"
	"time"

	"github.com/stackworks/ident/internal/ident/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable; no
// component reaches into another's storage directly.
type Store interface {
	Users() Users
	Roles() Roles
	Sessions() Sessions
	OneTimeTokens() OneTimeTokens

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store with explicit Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user with roles loaded.
	GetUserByID(ctx context.Context, id domain.UserID) (domain.User, error)

	// GetUserByEmail looks up by the normalized address.
	GetUserByEmail(ctx context.Context, email domain.Email) (domain.User, error)

	// EmailExists reports whether any user holds the address.
	EmailExists(ctx context.Context, email domain.Email) (bool, error)

	// CreateUser inserts a new user row (id provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser persists profile fields, flags, and updated_at.
	UpdateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id domain.UserID, newHash string) error

	// AssignRole links a role to a user; assigning twice is a no-op.
	AssignRole(ctx context.Context, id domain.UserID, roleID string) error
}

type Roles interface {
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)
	ListAll(ctx context.Context) ([]domain.Role, error)
	CreateRole(ctx context.Context, r domain.Role) error
}

// Sessions is the refresh-token registry (revocation, multi-device tracking,
// rotation-on-refresh). The redis driver implements this interface alone.
type Sessions interface {
	// CreateSession inserts an active session row.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetActiveByTokenHash returns the session for a refresh-token
	// fingerprint, only when active and the refresh expiry is in the future.
	GetActiveByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error)

	// MarkInactive flips is_active off as a conditional update: it returns
	// ErrNotFound when the session was already inactive or absent, so only
	// one concurrent rotation of the same token can win.
	MarkInactive(ctx context.Context, sessionID string) error

	// MarkAllInactiveForUser bulk-revokes every active session. Idempotent.
	MarkAllInactiveForUser(ctx context.Context, userID domain.UserID) error

	// Touch updates last_used_at.
	Touch(ctx context.Context, sessionID string) error

	// DeleteExpired removes rows whose refresh expiry has passed.
	DeleteExpired(ctx context.Context, now time.Time) error
}

// OneTimeTokens stores hashed single-use secrets, one outstanding record per
// (user, purpose).
type OneTimeTokens interface {
	// Upsert writes the record, overwriting any prior token for the same
	// user and purpose.
	Upsert(ctx context.Context, t domain.OneTimeToken) error

	// GetByPurposeAndHash returns an unexpired record matching the hash.
	GetByPurposeAndHash(ctx context.Context, purpose domain.TokenPurpose, hash string) (domain.OneTimeToken, error)

	// Delete clears the outstanding record, if any.
	Delete(ctx context.Context, userID domain.UserID, purpose domain.TokenPurpose) error

	// DeleteExpired removes records whose expiry has passed.
	DeleteExpired(ctx context.Context, now time.Time) error
}
