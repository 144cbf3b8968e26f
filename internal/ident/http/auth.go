package http

import (
	"errors"
	"net/http"

	"github.com/stackworks/ident/internal/ident/domain"
	"github.com/stackworks/ident/internal/ident/service"
	"github.com/stackworks/ident/pkg/httpx"
)

// userView is the safe projection of a user returned by auth endpoints.
type userView struct {
	ID                 string   `json:"id"`
	Email              string   `json:"email"`
	FirstName          string   `json:"firstName"`
	LastName           string   `json:"lastName"`
	Roles              []string `json:"roles"`
	IsEmailVerified    bool     `json:"isEmailVerified"`
	IsTwoFactorEnabled bool     `json:"isTwoFactorEnabled"`
}

func newUserView(u domain.User) userView {
	return userView{
		ID:                 u.ID.String(),
		Email:              u.Email.String(),
		FirstName:          u.Profile.FirstName,
		LastName:           u.Profile.LastName,
		Roles:              u.RoleNames(),
		IsEmailVerified:    u.Profile.IsEmailVerified,
		IsTwoFactorEnabled: u.Profile.IsTwoFactorEnabled,
	}
}

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	AuthService *service.AuthService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "Email and password are required")
		return
	}

	pair, u, err := h.AuthService.Login(ctx, req.Email, req.Password, deviceInfo(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteResult(w, http.StatusOK, true, "Login successful", struct {
		domain.TokenPair
		User userView `json:"user"`
	}{TokenPair: pair, User: newUserView(u)})
}

// RefreshHandler serves POST /v1/auth/refresh.
type RefreshHandler struct {
	AuthService *service.AuthService
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		writeBadRequest(w, "Refresh token is required")
		return
	}

	pair, err := h.AuthService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteResult(w, http.StatusOK, true, "Tokens refreshed successfully", pair)
}

// LogoutHandler serves POST /v1/auth/logout. The caller asserts its user id;
// a supplied refresh token must belong to that user. Revoking an already
// retired session still succeeds.
type LogoutHandler struct {
	AuthService *service.AuthService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		UserID               string `json:"userId"`
		RefreshToken         string `json:"refreshToken"`
		LogoutFromAllDevices bool   `json:"logoutFromAllDevices"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.UserID == "" {
		writeBadRequest(w, "User ID is required")
		return
	}

	userID, err := domain.NewUserID(req.UserID)
	if err != nil {
		writeBadRequest(w, "User ID is required")
		return
	}

	err = h.AuthService.Logout(ctx, service.LogoutInput{
		UserID:       userID,
		RefreshToken: req.RefreshToken,
		Everywhere:   req.LogoutFromAllDevices,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeBadRequest(w, "User not found")
		case errors.Is(err, service.ErrInvalidRefresh):
			writeBadRequest(w, "Invalid refresh token")
		case errors.Is(err, service.ErrTokenMismatch):
			writeBadRequest(w, "Token does not belong to user")
		default:
			writeServiceError(w, err)
		}
		return
	}

	httpx.WriteResult(w, http.StatusOK, true, "Logout successful", nil)
}

// deviceInfo captures the caller's device details for the session record.
func deviceInfo(r *http.Request) domain.DeviceInfo {
	return domain.DeviceInfo{
		UserAgent: r.UserAgent(),
		IPAddress: httpx.IPKeyExtractor(r),
		DeviceID:  r.Header.Get("X-Device-Id"),
	}
}
