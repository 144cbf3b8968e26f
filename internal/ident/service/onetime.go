package service

import (
	"context"
	"errors"
	"time"

	"github.com/stackworks/ident/internal/ident/domain"
	"github.com/stackworks/ident/internal/ident/store"
	"github.com/stackworks/ident/pkg/cryptox"
)

var ErrInvalidToken = errors.New("invalid_token")

// OneTimeTokenService is the registry for single-use secrets backing the
// email-verification and password-reset flows. The raw secret leaves the
// process exactly once, inside the mailed link; only its SHA-256 fingerprint
// is stored, so a database leak exposes nothing redeemable.
type OneTimeTokenService struct {
	Store store.Store
}

// Issue mints a fresh 256-bit secret for the user and purpose, replacing any
// outstanding one. The returned string is the raw secret for the link.
func (s *OneTimeTokenService) Issue(ctx context.Context, userID domain.UserID, purpose domain.TokenPurpose) (string, error) {
	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	record := domain.OneTimeToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: cryptox.FingerprintToken(secret),
		ExpiresAt: now.Add(purpose.TTL()),
		CreatedAt: now,
	}
	if err := s.Store.OneTimeTokens().Upsert(ctx, record); err != nil {
		return "", err
	}

	return secret, nil
}

// Redeem consumes the secret: on success the record is deleted and the owning
// user id returned. Unknown, expired, and wrong-purpose secrets all fail with
// the same ErrInvalidToken.
func (s *OneTimeTokenService) Redeem(ctx context.Context, purpose domain.TokenPurpose, secret string) (domain.UserID, error) {
	if secret == "" {
		return "", ErrInvalidToken
	}

	record, err := s.Store.OneTimeTokens().GetByPurposeAndHash(ctx, purpose, cryptox.FingerprintToken(secret))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}

	if err := s.Store.OneTimeTokens().Delete(ctx, record.UserID, purpose); err != nil {
		return "", err
	}

	return record.UserID, nil
}

// Clear drops any outstanding secret for the user and purpose.
func (s *OneTimeTokenService) Clear(ctx context.Context, userID domain.UserID, purpose domain.TokenPurpose) error {
	return s.Store.OneTimeTokens().Delete(ctx, userID, purpose)
}
