// Package redis implements the Sessions repository on a Redis backend.
// Session rows live as JSON blobs with the refresh-token TTL, a secondary
// key maps refresh-token fingerprints to session IDs, and a per-user set
// supports bulk revocation. Expiry is delegated to Redis key TTLs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stackworks/ident/internal/ident/domain"
	"github.com/stackworks/ident/internal/ident/store"
)

// ErrUnavailable wraps transport-level Redis failures so callers can tell
// them apart from a plain miss.
var ErrUnavailable = errors.New("redis unavailable")

// markInactiveScript retires a session only if it is still active, so a
// single caller wins when two rotations race on the same refresh token. It
// also drops the fingerprint index key so the token stops resolving.
const markInactiveScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local sess = cjson.decode(data)
if sess["IsActive"] ~= true then
  return 0
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl <= 0 then
  return 0
end
sess["IsActive"] = false
sess["UpdatedAt"] = ARGV[1]
redis.call("SET", KEYS[1], cjson.encode(sess), "PX", ttl)
redis.call("DEL", ARGV[2] .. sess["RefreshTokenHash"])
return 1
`

var markInactiveLua = redis.NewScript(markInactiveScript)

type Sessions struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewSessions creates a Sessions repository on the given client. prefix
// namespaces all keys, usually the service name.
func NewSessions(rdb redis.UniversalClient, prefix string) *Sessions {
	if prefix == "" {
		prefix = "ident"
	}
	return &Sessions{rdb: rdb, prefix: prefix}
}

func (r *Sessions) sessionKey(id string) string { return r.prefix + ":sess:" + id }

func (r *Sessions) tokenKeyPrefix() string { return r.prefix + ":tok:" }

func (r *Sessions) tokenKey(hash string) string { return r.tokenKeyPrefix() + hash }

func (r *Sessions) userKey(id domain.UserID) string { return r.prefix + ":usr:" + id.String() }

func (r *Sessions) CreateSession(ctx context.Context, s domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	ttl := time.Until(s.RefreshExpiresAt)
	if ttl <= 0 {
		return nil
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(s.ID), data, ttl)
		pipe.Set(ctx, r.tokenKey(s.RefreshTokenHash), s.ID, ttl)
		pipe.SAdd(ctx, r.userKey(s.UserID), s.ID)
		pipe.Expire(ctx, r.userKey(s.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *Sessions) GetActiveByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	id, err := r.rdb.Get(ctx, r.tokenKey(tokenHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, store.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sess, err := r.getSession(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	if !sess.IsActive || sess.RefreshTokenHash != tokenHash ||
		!sess.RefreshExpiresAt.After(time.Now()) {
		return domain.Session{}, store.ErrNotFound
	}
	return sess, nil
}

func (r *Sessions) MarkInactive(ctx context.Context, sessionID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	n, err := markInactiveLua.Run(ctx, r.rdb,
		[]string{r.sessionKey(sessionID)},
		now, r.tokenKeyPrefix(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MarkAllInactiveForUser walks the per-user index. A session created while
// the walk runs is not captured; it expires on its own TTL.
func (r *Sessions) MarkAllInactiveForUser(ctx context.Context, userID domain.UserID) error {
	ids, err := r.rdb.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for _, id := range ids {
		if err := r.MarkInactive(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (r *Sessions) Touch(ctx context.Context, sessionID string) error {
	sess, err := r.getSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	sess.LastUsedAt = now
	sess.UpdatedAt = now
	return r.putKeepTTL(ctx, sessionID, sess)
}

// DeleteExpired is a no-op: every key carries the refresh-token TTL and
// Redis evicts it on expiry.
func (r *Sessions) DeleteExpired(ctx context.Context, now time.Time) error {
	return nil
}

func (r *Sessions) getSession(ctx context.Context, id string) (domain.Session, error) {
	data, err := r.rdb.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, store.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

func (r *Sessions) putKeepTTL(ctx context.Context, id string, sess domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ttl, err := r.rdb.PTTL(ctx, r.sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ttl <= 0 {
		return nil
	}

	if err := r.rdb.Set(ctx, r.sessionKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping reports backend availability for readiness checks.
func (r *Sessions) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
