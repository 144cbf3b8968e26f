package identsdk

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, code int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"message": message,
		"data":    data,
	})
}

func TestLoginReturnsSession(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/auth/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "ada@example.com", req["email"])

		writeEnvelope(w, http.StatusOK, true, "Login successful", map[string]any{
			"accessToken":      "access-1",
			"refreshToken":     "refresh-1",
			"expiresAt":        time.Now().Add(15 * time.Minute),
			"refreshExpiresAt": time.Now().Add(7 * 24 * time.Hour),
			"user": map[string]any{
				"id":    "01J0TESTUSER00000000000000",
				"email": "ada@example.com",
				"roles": []string{"User"},
			},
		})
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)
	session, err := client.Login(t.Context(), "ada@example.com", "Sup3r$ecret")
	require.NoError(t, err)

	token, err := session.AccessToken(t.Context())
	require.NoError(t, err)
	require.Equal(t, "access-1", token)
	require.Equal(t, "refresh-1", session.RefreshToken())
	require.Equal(t, "ada@example.com", session.User().Email)
}

func TestSessionAutoRefresh(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/auth/refresh", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "refresh-old", req["refreshToken"])

		refreshes.Add(1)
		writeEnvelope(w, http.StatusOK, true, "Tokens refreshed successfully", map[string]any{
			"accessToken":      "access-new",
			"refreshToken":     "refresh-new",
			"expiresAt":        time.Now().Add(15 * time.Minute),
			"refreshExpiresAt": time.Now().Add(7 * 24 * time.Hour),
		})
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)
	session := client.NewSessionFromTokens(TokenPair{
		AccessToken:  "access-old",
		RefreshToken: "refresh-old",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})

	token, err := session.AccessToken(t.Context())
	require.NoError(t, err)
	require.Equal(t, "access-new", token)
	require.Equal(t, "refresh-new", session.RefreshToken())

	// The fresh token is served from memory.
	token, err = session.AccessToken(t.Context())
	require.NoError(t, err)
	require.Equal(t, "access-new", token)
	require.Equal(t, int32(1), refreshes.Load())
}

func TestAPIErrorCarriesStatusAndMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, "Invalid email or password", nil)
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)
	_, err := client.Login(t.Context(), "ada@example.com", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.IsUnauthorized())
	require.Equal(t, "Invalid email or password", apiErr.Message)
	require.False(t, apiErr.RequiresTwoFactor)
}

func TestAPIErrorTwoFactorFlag(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":           false,
			"message":           "Two-factor authentication required",
			"requiresTwoFactor": true,
		})
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)
	_, err := client.Login(t.Context(), "ada@example.com", "Sup3r$ecret")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.RequiresTwoFactor)
}

func TestAPIErrorNonJSONBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)
	err := client.ForgotPassword(t.Context(), "ada@example.com")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestRegisterDecodesResult(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/auth/register", r.URL.Path)
		writeEnvelope(w, http.StatusCreated, true,
			"User registered successfully. Please check your email for verification.",
			map[string]any{
				"userId":                    "01J0TESTUSER00000000000000",
				"emailVerificationRequired": true,
			})
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)
	res, err := client.Register(t.Context(), RegisterRequest{
		Email:     "ada@example.com",
		Password:  "Sup3r$ecret",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	require.Equal(t, "01J0TESTUSER00000000000000", res.UserID)
	require.True(t, res.EmailVerificationRequired)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/livez":
			_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Version: "test"})
		case "/readyz":
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(HealthResponse{
				Status: "degraded",
				Checks: &HealthChecks{Database: "error: locked", Sessions: "ok"},
			})
		}
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)

	live, err := client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "degraded", ready.Status)
	require.Equal(t, "error: locked", ready.Checks.Database)
}
