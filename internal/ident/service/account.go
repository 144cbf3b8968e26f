package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/stackworks/ident/internal/ident/domain"
	"github.com/stackworks/ident/internal/ident/mail"
	"github.com/stackworks/ident/internal/ident/store"
	"github.com/stackworks/ident/pkg/cryptox"
	"github.com/stackworks/ident/pkg/slogx"
)

var (
	ErrEmailTaken       = errors.New("email_already_registered")
	ErrAlreadyVerified  = errors.New("email_already_verified")
	ErrPasswordMismatch = errors.New("password_mismatch")
)

// AccountService owns registration, email verification, and the password
// recovery flow.
type AccountService struct {
	Store    store.Store
	Sessions store.Sessions
	Tokens   *OneTimeTokenService
	Mailer   mail.Mailer

	// FrontendURL is the base for action links mailed to users.
	FrontendURL string
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates the account, grants the default role, and mails the
// verification link. The account starts unverified and cannot log in until
// the link is redeemed.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	l := slogx.FromContext(ctx)

	addr, err := domain.NewEmail(in.Email)
	if err != nil {
		return domain.User{}, err
	}
	if _, err := domain.NewPassword(in.Password); err != nil {
		return domain.User{}, err
	}

	u, err := domain.NewUser(domain.GenerateUserID(), addr, domain.Profile{
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		return domain.User{}, err
	}

	u.PasswordHash, err = cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}

		role, err := tx.Roles().GetRoleByName(ctx, domain.RoleNameUser)
		if err != nil {
			return err
		}
		if err := tx.Users().AssignRole(ctx, u.ID, role.ID); err != nil {
			return err
		}
		u.AssignRole(role)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	if err := s.sendVerification(ctx, u); err != nil {
		// The account exists either way; the user can request another link.
		l.Error("failed to send verification email",
			slog.Any("error", err), slog.String("user_id", u.ID.String()))
	}

	l.Info("user registered", slog.String("user_id", u.ID.String()))
	return u, nil
}

// VerifyEmail redeems the mailed secret and flips the verified flag. A valid
// token on an already verified account reports that distinctly; every other
// failure is the uniform ErrInvalidToken.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.Tokens.Redeem(ctx, domain.PurposeEmailVerification, token)
	if err != nil {
		return err
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	if u.Profile.IsEmailVerified {
		return ErrAlreadyVerified
	}

	u.VerifyEmail()
	if err := s.Store.Users().UpdateUser(ctx, u); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("email verified", slog.String("user_id", u.ID.String()))
	return nil
}

// ResendVerification issues a fresh verification link, superseding any
// outstanding one. Unknown and already verified addresses are silently
// accepted so the endpoint cannot be used to probe for accounts.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	addr, err := domain.NewEmail(email)
	if err != nil {
		return nil
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.Profile.IsEmailVerified {
		return nil
	}

	if err := s.sendVerification(ctx, u); err != nil {
		slogx.FromContext(ctx).Error("failed to resend verification email",
			slog.Any("error", err), slog.String("user_id", u.ID.String()))
	}
	return nil
}

// ForgotPassword issues a reset link when the address belongs to an account.
// The caller gets the same nil result whether or not it does, so the flow
// cannot be used to enumerate registered addresses.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	addr, err := domain.NewEmail(email)
	if err != nil {
		return nil
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	// Deactivated accounts get the same silent success as unknown ones;
	// no reset link is issued for them.
	if !u.IsActive {
		return nil
	}

	secret, err := s.Tokens.Issue(ctx, u.ID, domain.PurposePasswordReset)
	if err != nil {
		return err
	}

	url := s.FrontendURL + "/reset-password?token=" + secret
	if err := s.Mailer.SendPasswordResetEmail(ctx, u.Email, url); err != nil {
		l.Error("failed to send password reset email",
			slog.Any("error", err), slog.String("user_id", u.ID.String()))
	}

	l.Info("password reset requested", slog.String("user_id", u.ID.String()))
	return nil
}

// ResetPassword redeems the reset secret, replaces the password hash, and
// revokes every active session so stolen refresh tokens die with the old
// password.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if _, err := domain.NewPassword(newPassword); err != nil {
		return err
	}

	userID, err := s.Tokens.Redeem(ctx, domain.PurposePasswordReset, token)
	if err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	if err := s.Sessions.MarkAllInactiveForUser(ctx, userID); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password reset completed", slog.String("user_id", userID.String()))
	return nil
}

func (s *AccountService) sendVerification(ctx context.Context, u domain.User) error {
	secret, err := s.Tokens.Issue(ctx, u.ID, domain.PurposeEmailVerification)
	if err != nil {
		return err
	}
	url := s.FrontendURL + "/verify-email?token=" + secret
	return s.Mailer.SendVerificationEmail(ctx, u.Email, url)
}
