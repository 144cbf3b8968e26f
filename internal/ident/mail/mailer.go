// Package mail defines the outbound message-delivery sink. The service only
// ever hands a recipient and a fully built action link to the mailer, so
// swapping in a real provider is a matter of implementing the interface.
package mail

import (
	"context"
	"log/slog"

	"github.com/stackworks/ident/internal/ident/domain"
	"github.com/stackworks/ident/pkg/slogx"
)

type Mailer interface {
	// SendVerificationEmail delivers the email-verification link.
	SendVerificationEmail(ctx context.Context, to domain.Email, url string) error

	// SendPasswordResetEmail delivers the password-reset link.
	SendPasswordResetEmail(ctx context.Context, to domain.Email, url string) error
}

// LogMailer writes outbound messages to the structured log instead of
// delivering them. Suitable for development and tests.
type LogMailer struct{}

func NewLogMailer() *LogMailer { return &LogMailer{} }

func (m *LogMailer) SendVerificationEmail(ctx context.Context, to domain.Email, url string) error {
	slogx.FromContext(ctx).InfoContext(ctx, "send verification email",
		slog.String("to", to.String()),
		slog.String("url", url),
	)
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(ctx context.Context, to domain.Email, url string) error {
	slogx.FromContext(ctx).InfoContext(ctx, "send password reset email",
		slog.String("to", to.String()),
		slog.String("url", url),
	)
	return nil
}
