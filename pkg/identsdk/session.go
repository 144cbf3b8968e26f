package identsdk

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// refreshBuffer is how long before actual expiry a token is treated as stale,
// so a token handed to a caller does not expire mid-request.
const refreshBuffer = 30 * time.Second

// Session represents an authenticated session with automatic token refresh.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	user         User
}

// newSession creates an authenticated session from an issued token pair.
func newSession(client *SDKClient, pair TokenPair, user User) *Session {
	return &Session{
		client:       client,
		accessToken:  pair.AccessToken,
		refreshToken: pair.RefreshToken,
		expiresAt:    pair.ExpiresAt.Add(-refreshBuffer),
		user:         user,
	}
}

// AccessToken returns a valid access token, refreshing the pair first if the
// current one is expired or about to expire.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token available")
	}

	pair, err := s.client.RefreshTokens(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.expiresAt = pair.ExpiresAt.Add(-refreshBuffer)

	return s.accessToken, nil
}

// Refresh forces a rotation of the token pair regardless of expiry.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return fmt.Errorf("no refresh token available")
	}

	pair, err := s.client.RefreshTokens(ctx, s.refreshToken)
	if err != nil {
		return err
	}

	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.expiresAt = pair.ExpiresAt.Add(-refreshBuffer)

	return nil
}

// Logout retires the session on the server and clears the stored tokens.
// Sessions rebuilt from stored tokens carry no user id and cannot log out
// server-side; callers use SDKClient.Logout directly in that case.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return nil
	}
	if s.user.ID == "" {
		return fmt.Errorf("session has no user id; use SDKClient.Logout")
	}

	if err := s.client.Logout(ctx, s.user.ID, s.refreshToken); err != nil {
		return err
	}

	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}

	return nil
}

// RefreshToken returns the current refresh token, for callers that persist
// sessions across restarts.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns the profile captured at login. It is the zero value for
// sessions rebuilt from stored tokens.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}
