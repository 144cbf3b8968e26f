package sqlite

import (
	"context"
	"time"

	"github.com/stackworks/ident/internal/ident/domain"
)

type sessionsRepo struct {
	q dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (
			id, user_id, refresh_token_hash, access_token_hash,
			expires_at, refresh_expires_at, user_agent, ip_address,
			device_id, is_active, last_used_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID.String(), s.RefreshTokenHash, s.AccessTokenHash,
		s.ExpiresAt, s.RefreshExpiresAt, s.DeviceInfo.UserAgent,
		s.DeviceInfo.IPAddress, s.DeviceInfo.DeviceID, s.IsActive,
		s.LastUsedAt, s.CreatedAt, s.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *sessionsRepo) GetActiveByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	var (
		s      domain.Session
		userID string
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, refresh_token_hash, access_token_hash,
			expires_at, refresh_expires_at, user_agent, ip_address,
			device_id, is_active, last_used_at, created_at, updated_at
		FROM sessions
		WHERE refresh_token_hash = ? AND is_active = 1 AND refresh_expires_at > ?`,
		tokenHash, time.Now().UTC(),
	).Scan(
		&s.ID, &userID, &s.RefreshTokenHash, &s.AccessTokenHash,
		&s.ExpiresAt, &s.RefreshExpiresAt, &s.DeviceInfo.UserAgent,
		&s.DeviceInfo.IPAddress, &s.DeviceInfo.DeviceID, &s.IsActive,
		&s.LastUsedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.UserID = domain.UserID(userID)
	return s, nil
}

// MarkInactive is a conditional update so that only one caller can retire a
// given session. Losing callers see ErrNotFound.
func (r *sessionsRepo) MarkInactive(ctx context.Context, sessionID string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE sessions SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		time.Now().UTC(), sessionID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sessionsRepo) MarkAllInactiveForUser(ctx context.Context, userID domain.UserID) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE sessions SET is_active = 0, updated_at = ? WHERE user_id = ? AND is_active = 1`,
		time.Now().UTC(), userID.String())
	return err
}

func (r *sessionsRepo) Touch(ctx context.Context, sessionID string) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx,
		`UPDATE sessions SET last_used_at = ?, updated_at = ? WHERE id = ?`,
		now, now, sessionID)
	return err
}

func (r *sessionsRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM sessions WHERE refresh_expires_at <= ?`, now)
	return err
}
