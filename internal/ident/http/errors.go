package http

import (
	"errors"
	"net/http"

	"github.com/stackworks/ident/internal/ident/domain"
	"github.com/stackworks/ident/internal/ident/service"
	"github.com/stackworks/ident/pkg/httpx"
)

// writeServiceError translates core errors into the uniform envelope. The
// status/message mapping lives here and nowhere else; the services only
// speak sentinel errors.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteResult(w, http.StatusUnauthorized, false, "Invalid email or password", nil)
	case errors.Is(err, service.ErrAccountDeactivated):
		httpx.WriteResult(w, http.StatusUnauthorized, false, "Account is deactivated. Please contact support.", nil)
	case errors.Is(err, service.ErrEmailNotVerified):
		httpx.WriteResult(w, http.StatusUnauthorized, false, "Please verify your email before logging in", nil)
	case errors.Is(err, service.ErrTwoFactorRequired):
		httpx.WriteJSON(w, http.StatusUnauthorized, struct {
			httpx.Result
			RequiresTwoFactor bool `json:"requiresTwoFactor"`
		}{
			Result:            httpx.Result{Success: false, Message: "Two-factor authentication required"},
			RequiresTwoFactor: true,
		})
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.WriteResult(w, http.StatusUnauthorized, false, "Invalid or expired refresh token", nil)
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteResult(w, http.StatusConflict, false, "User with this email already exists", nil)
	case errors.Is(err, service.ErrAlreadyVerified):
		httpx.WriteResult(w, http.StatusBadRequest, false, "Email is already verified", nil)
	case errors.Is(err, service.ErrPasswordMismatch):
		httpx.WriteResult(w, http.StatusBadRequest, false, "Passwords do not match", nil)
	case errors.Is(err, domain.ErrInvalidEmail):
		httpx.WriteResult(w, http.StatusBadRequest, false, "Invalid email format", nil)
	case errors.Is(err, domain.ErrWeakPassword):
		httpx.WriteResult(w, http.StatusBadRequest, false, "Password does not meet security requirements", nil)
	case errors.Is(err, domain.ErrEmptyFirstName), errors.Is(err, domain.ErrEmptyLastName):
		httpx.WriteResult(w, http.StatusBadRequest, false, "Missing required fields: email, password, firstName, lastName", nil)
	default:
		httpx.WriteResult(w, http.StatusInternalServerError, false, "Internal server error", nil)
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	httpx.WriteResult(w, http.StatusBadRequest, false, message, nil)
}
