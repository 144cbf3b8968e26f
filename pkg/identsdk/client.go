package identsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the ident service. It provides the
// unauthenticated operations and creates authenticated Sessions via Login.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client for the service at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates with an email and password and returns a Session
// holding the issued token pair.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var data loginData
	err := c.postJSON(ctx, "/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &data)
	if err != nil {
		return nil, err
	}

	return newSession(c, data.TokenPair, data.User), nil
}

// NewSessionFromTokens creates a Session from a previously stored token pair,
// for example after an application restart. The session still refreshes the
// access token when it expires.
func (c *SDKClient) NewSessionFromTokens(pair TokenPair) *Session {
	return newSession(c, pair, User{})
}

// Register creates a new account. The account starts unverified and the
// service mails a verification link.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	var data RegisterResult
	if err := c.postJSON(ctx, "/v1/auth/register", req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// VerifyEmail redeems an email verification token from a mailed link.
func (c *SDKClient) VerifyEmail(ctx context.Context, token string) error {
	return c.postJSON(ctx, "/v1/auth/verify-email", map[string]string{
		"token": token,
	}, nil)
}

// ResendVerification requests a fresh verification link. The server answers
// identically whether or not the address has a pending verification.
func (c *SDKClient) ResendVerification(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/v1/auth/resend-verification", map[string]string{
		"email": email,
	}, nil)
}

// ForgotPassword requests a password reset link. The server answers
// identically whether or not the address is registered.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/v1/auth/forgot-password", map[string]string{
		"email": email,
	}, nil)
}

// ResetPassword redeems a reset token from a mailed link and sets a new
// password. All of the account's sessions are revoked on success.
func (c *SDKClient) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	return c.postJSON(ctx, "/v1/auth/reset-password", map[string]string{
		"token":           token,
		"password":        password,
		"confirmPassword": confirmPassword,
	}, nil)
}

// RefreshTokens rotates a refresh token for a new pair without a Session.
func (c *SDKClient) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	err := c.postJSON(ctx, "/v1/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout retires the session behind the refresh token. The token must
// belong to the given user; revoking an already retired session succeeds.
func (c *SDKClient) Logout(ctx context.Context, userID, refreshToken string) error {
	return c.postJSON(ctx, "/v1/auth/logout", map[string]any{
		"userId":       userID,
		"refreshToken": refreshToken,
	}, nil)
}

// LogoutAllDevices revokes every session the user holds.
func (c *SDKClient) LogoutAllDevices(ctx context.Context, userID string) error {
	return c.postJSON(ctx, "/v1/auth/logout", map[string]any{
		"userId":               userID,
		"logoutFromAllDevices": true,
	}, nil)
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/livez")
}

// GetReadiness checks if the service and its dependencies are ready.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/readyz")
}

func (c *SDKClient) getHealth(ctx context.Context, path string) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Readiness reports degraded with a 503 but still returns the body.
	return &health, nil
}

// postJSON sends a JSON request and decodes the envelope's data field into
// target when the call succeeds. A nil target discards the data.
func (c *SDKClient) postJSON(ctx context.Context, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorResponse(resp.StatusCode, respBody)
	}

	if target == nil {
		return nil
	}

	var envelope struct {
		result
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}

	return nil
}
