// Package notify hands user facing messages to a delivery backend. Delivery
// itself (SMTP, SMS) happens downstream of the dispatcher.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

var ErrNoResetCode = errors.New("notify: profile has no reset code")

// Dispatcher accepts messages for delivery. A nil error means the message was
// queued, not that it arrived.
type Dispatcher interface {
	SendRecoveryCode(ctx context.Context, profile domain.Profile) error
	SendVerificationLink(ctx context.Context, email, link string) error
}

// LogDispatcher writes messages to the log instead of delivering them. It is
// meant for local development, where reading the code off the console is the
// point.
type LogDispatcher struct {
	Logger *slog.Logger
}

var _ Dispatcher = (*LogDispatcher)(nil)

func (d *LogDispatcher) SendRecoveryCode(ctx context.Context, profile domain.Profile) error {
	if profile.Reset == nil {
		return ErrNoResetCode
	}
	d.Logger.InfoContext(ctx, "recovery code issued",
		slog.String("email", profile.Email),
		slog.String("code", profile.Reset.Code),
		slog.Time("expires_at", profile.Reset.ExpiresAt),
	)
	return nil
}

func (d *LogDispatcher) SendVerificationLink(ctx context.Context, email, link string) error {
	d.Logger.InfoContext(ctx, "email verification link issued",
		slog.String("email", email),
		slog.String("link", link),
	)
	return nil
}
