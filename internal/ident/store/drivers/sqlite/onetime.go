package sqlite

import (
	"context"
	"time"

	"github.com/stackworks/ident/internal/ident/domain"
)

type oneTimeTokensRepo struct {
	q dbtx
}

// Upsert keeps at most one outstanding token per (user, purpose); reissuing
// supersedes the previous secret.
func (r *oneTimeTokensRepo) Upsert(ctx context.Context, t domain.OneTimeToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO one_time_tokens (user_id, purpose, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, purpose) DO UPDATE SET
			token_hash = excluded.token_hash,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at`,
		t.UserID.String(), string(t.Purpose), t.TokenHash, t.ExpiresAt, t.CreatedAt,
	)
	return err
}

func (r *oneTimeTokensRepo) GetByPurposeAndHash(ctx context.Context, purpose domain.TokenPurpose, hash string) (domain.OneTimeToken, error) {
	var (
		t      domain.OneTimeToken
		userID string
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT user_id, purpose, token_hash, expires_at, created_at
		FROM one_time_tokens
		WHERE purpose = ? AND token_hash = ? AND expires_at > ?`,
		string(purpose), hash, time.Now().UTC(),
	).Scan(&userID, &t.Purpose, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.OneTimeToken{}, mapNotFound(err)
	}
	t.UserID = domain.UserID(userID)
	return t, nil
}

func (r *oneTimeTokensRepo) Delete(ctx context.Context, userID domain.UserID, purpose domain.TokenPurpose) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM one_time_tokens WHERE user_id = ? AND purpose = ?`,
		userID.String(), string(purpose))
	return err
}

func (r *oneTimeTokensRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM one_time_tokens WHERE expires_at <= ?`, now)
	return err
}
