package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/stackworks/ident/internal/ident/domain"
	"github.com/stackworks/ident/internal/ident/store"
	"github.com/stackworks/ident/pkg/cryptox"
	"github.com/stackworks/ident/pkg/idx"
	"github.com/stackworks/ident/pkg/jwtx"
	"github.com/stackworks/ident/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountDeactivated = errors.New("account_deactivated")
	ErrEmailNotVerified   = errors.New("email_not_verified")
	ErrTwoFactorRequired  = errors.New("two_factor_required")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrTokenMismatch      = errors.New("token_not_owned")
)

// AuthService owns the credential and session lifecycle: login, refresh
// rotation, and logout. Sessions may live in a different backend than the
// rest of the data, so the repository is injected separately.
type AuthService struct {
	Store    store.Store
	Sessions store.Sessions
	Codec    *jwtx.Codec
}

// Login verifies the credentials and mints a token pair. Unknown email and
// wrong password collapse into the same ErrInvalidCredentials; account-state
// checks only run after the password held, so the error never leaks whether
// the address is registered. The authenticated user is returned alongside
// the pair for the response projection.
func (s *AuthService) Login(ctx context.Context, email, password string, device domain.DeviceInfo) (domain.TokenPair, domain.User, error) {
	l := slogx.FromContext(ctx)

	addr, err := domain.NewEmail(email)
	if err != nil {
		return domain.TokenPair{}, domain.User{}, ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, domain.User{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		l.Info("login password verification failed", slog.String("user_id", u.ID.String()))
		return domain.TokenPair{}, domain.User{}, ErrInvalidCredentials
	}

	if !u.IsActive {
		return domain.TokenPair{}, domain.User{}, ErrAccountDeactivated
	}
	if !u.Profile.IsEmailVerified {
		return domain.TokenPair{}, domain.User{}, ErrEmailNotVerified
	}
	if u.Profile.IsTwoFactorEnabled {
		return domain.TokenPair{}, domain.User{}, ErrTwoFactorRequired
	}

	u.RecordLogin()
	if err := s.Store.Users().UpdateUser(ctx, u); err != nil {
		// Login still succeeds; the timestamp is advisory.
		l.Error("failed to record login time", slog.Any("error", err), slog.String("user_id", u.ID.String()))
	}

	pair, err := s.issuePair(ctx, u, device, time.Now().UTC())
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}

	l.Info("user logged in", slog.String("user_id", u.ID.String()))
	return pair, u, nil
}

// Refresh rotates the session: the presented refresh token is retired and a
// fresh pair minted. A token that fails verification, matches no active
// session, or loses the retirement race yields ErrInvalidRefresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Codec.VerifyRefresh(refreshToken)
	if err != nil {
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	sess, err := s.Sessions.GetActiveByTokenHash(ctx, cryptox.FingerprintToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, err
	}

	u, err := s.Store.Users().GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, err
	}
	if !u.IsActive {
		return domain.TokenPair{}, ErrAccountDeactivated
	}

	// Record the verification on the row about to be retired so the audit
	// trail of last use survives rotation.
	if err := s.Sessions.Touch(ctx, sess.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		l.Warn("failed to touch session", slog.String("session_id", sess.ID), slog.Any("error", err))
	}

	// Retire the old session first. If a concurrent refresh of the same
	// token got here before us, the conditional update reports not-found
	// and this call loses.
	if err := s.Sessions.MarkInactive(ctx, sess.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, err
	}

	pair, err := s.issuePair(ctx, u, sess.DeviceInfo, time.Now().UTC())
	if err != nil {
		return domain.TokenPair{}, err
	}

	l.Info("session refreshed",
		slog.String("user_id", u.ID.String()),
		slog.String("token_id", claims.ID),
	)
	return pair, nil
}

// LogoutInput identifies whose sessions to retire. The refresh token is
// optional; when present it must belong to the asserted user. Everywhere
// revokes every session the user holds.
type LogoutInput struct {
	UserID       domain.UserID
	RefreshToken string
	Everywhere   bool
}

// Logout retires the caller's session, or all of them with Everywhere. The
// ownership check fails loudly, but revocation-store failures are logged and
// swallowed: the client deletes its local tokens either way, and the session
// still dies at refresh expiry.
func (s *AuthService) Logout(ctx context.Context, in LogoutInput) error {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if in.RefreshToken != "" {
		claims, err := s.Codec.VerifyRefresh(in.RefreshToken)
		if err != nil {
			return ErrInvalidRefresh
		}
		if claims.Subject != u.ID.String() {
			return ErrTokenMismatch
		}
	}

	if in.Everywhere {
		if err := s.Sessions.MarkAllInactiveForUser(ctx, u.ID); err != nil {
			l.Error("bulk session revocation failed", slog.String("user_id", u.ID.String()), slog.Any("error", err))
			return nil
		}
		l.Info("all sessions revoked", slog.String("user_id", u.ID.String()))
		return nil
	}

	if in.RefreshToken == "" {
		return nil
	}

	sess, err := s.Sessions.GetActiveByTokenHash(ctx, cryptox.FingerprintToken(in.RefreshToken))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.Error("session lookup failed during logout", slog.String("user_id", u.ID.String()), slog.Any("error", err))
		}
		return nil
	}

	if err := s.Sessions.MarkInactive(ctx, sess.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		l.Error("session revocation failed", slog.String("session_id", sess.ID), slog.Any("error", err))
		return nil
	}

	l.Info("user logged out", slog.String("user_id", u.ID.String()))
	return nil
}

// issuePair mints both tokens and records the session, storing only the
// token fingerprints.
func (s *AuthService) issuePair(ctx context.Context, u domain.User, device domain.DeviceInfo, now time.Time) (domain.TokenPair, error) {
	id := jwtx.Identity{
		UserID: u.ID.String(),
		Email:  u.Email.String(),
		Roles:  u.RoleNames(),
	}

	access, err := s.Codec.IssueAccess(id, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.Codec.IssueRefresh(id, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	expiresAt := now.Add(s.Codec.AccessTTL())
	refreshExpiresAt := now.Add(s.Codec.RefreshTTL())

	sess := domain.Session{
		ID:               idx.New().String(),
		UserID:           u.ID,
		RefreshTokenHash: cryptox.FingerprintToken(refresh),
		AccessTokenHash:  cryptox.FingerprintToken(access),
		ExpiresAt:        expiresAt,
		RefreshExpiresAt: refreshExpiresAt,
		DeviceInfo:       device,
		IsActive:         true,
		LastUsedAt:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Sessions.CreateSession(ctx, sess); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresAt:        expiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}
