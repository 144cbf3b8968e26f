package http

import (
	"errors"
	"net/http"

	"github.com/stackworks/ident/internal/ident/service"
	"github.com/stackworks/ident/pkg/httpx"
)

// RegisterHandler serves POST /v1/auth/register.
type RegisterHandler struct {
	AccountService *service.AccountService
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		writeBadRequest(w, "Missing required fields: email, password, firstName, lastName")
		return
	}

	u, err := h.AccountService.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteResult(w, http.StatusCreated, true,
		"User registered successfully. Please check your email for verification.",
		struct {
			UserID                    string `json:"userId"`
			EmailVerificationRequired bool   `json:"emailVerificationRequired"`
		}{UserID: u.ID.String(), EmailVerificationRequired: true})
}

// VerifyEmailHandler serves POST /v1/auth/verify-email.
type VerifyEmailHandler struct {
	AccountService *service.AccountService
}

func (h *VerifyEmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Token string `json:"token"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.Token == "" {
		writeBadRequest(w, "Verification token is required")
		return
	}

	if err := h.AccountService.VerifyEmail(ctx, req.Token); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			writeBadRequest(w, "Invalid or expired verification token")
			return
		}
		writeServiceError(w, err)
		return
	}

	httpx.WriteResult(w, http.StatusOK, true, "Email verified successfully", nil)
}

// ResendVerificationHandler serves POST /v1/auth/resend-verification. Always
// succeeds so it cannot be used to probe for accounts.
type ResendVerificationHandler struct {
	AccountService *service.AccountService
}

func (h *ResendVerificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email string `json:"email"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.Email == "" {
		writeBadRequest(w, "Email is required")
		return
	}

	if err := h.AccountService.ResendVerification(ctx, req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteResult(w, http.StatusOK, true,
		"If your email is registered and unverified, you will receive a new verification link.", nil)
}

// ForgotPasswordHandler serves POST /v1/auth/forgot-password. The response
// is identical whether or not the address is registered.
type ForgotPasswordHandler struct {
	AccountService *service.AccountService
}

func (h *ForgotPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email string `json:"email"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.Email == "" {
		writeBadRequest(w, "Email is required")
		return
	}

	if err := h.AccountService.ForgotPassword(ctx, req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteResult(w, http.StatusOK, true,
		"If your email is registered, you will receive a password reset link.", nil)
}

// ResetPasswordHandler serves POST /v1/auth/reset-password.
type ResetPasswordHandler struct {
	AccountService *service.AccountService
}

func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.Token == "" || req.Password == "" || req.ConfirmPassword == "" {
		writeBadRequest(w, "Token, password, and confirm password are required")
		return
	}

	if err := h.AccountService.ResetPassword(ctx, req.Token, req.Password, req.ConfirmPassword); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			writeBadRequest(w, "Invalid or expired reset token")
			return
		}
		writeServiceError(w, err)
		return
	}

	httpx.WriteResult(w, http.StatusOK, true, "Password reset successfully", nil)
}
