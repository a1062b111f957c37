package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/internal/accounts/notify"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

const (
	ResetRequestedMessage = "If an account exists for that email, a reset code has been sent."
	PasswordResetMessage  = "Your password has been reset."

	resetCodeDigits = 6
	resetCodeTTL    = time.Hour
)

type ConfirmResetInput struct {
	Email              string
	Code               string
	NewPassword        string
	ConfirmNewPassword string
}

// RecoveryService issues and redeems one-time password reset codes.
type RecoveryService struct {
	Store      store.ProfileStore
	Provider   identity.Provider
	Dispatcher notify.Dispatcher

	// Now and NewCode override the clock and code source, for tests.
	Now     func() time.Time
	NewCode func() (string, error)
}

// RequestReset issues a code when a profile exists for email. The returned
// message is the same whether or not one does.
func (s *RecoveryService) RequestReset(ctx context.Context, email string) (string, error) {
	ctx, span := tracer.Start(ctx, "RecoveryService.RequestReset")
	defer span.End()

	email = domain.NormalizeEmail(email)
	if email == "" {
		return "", invalidInput([]FieldError{{Field: "email", Reason: "is required"}})
	}

	profile, err := s.Store.Profiles().FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return ResetRequestedMessage, nil
	}
	if err != nil {
		return "", internal(fmt.Errorf("find profile: %w", err))
	}

	code, err := s.newCode()
	if err != nil {
		return "", internal(err)
	}
	reset := &domain.ResetCode{Code: code, ExpiresAt: s.now().Add(resetCodeTTL)}

	if err := s.Store.Profiles().UpdateByIdentityRef(ctx, profile.IdentityRef, store.ProfileUpdate{Reset: reset}); err != nil {
		return "", internal(fmt.Errorf("store reset code: %w", err))
	}
	profile.Reset = reset

	if err := s.Dispatcher.SendRecoveryCode(ctx, profile); err != nil {
		return "", internal(fmt.Errorf("dispatch reset code: %w", err))
	}

	slogx.FromContext(ctx).InfoContext(ctx, "password reset requested",
		slog.String("identity_ref", profile.IdentityRef),
	)
	return ResetRequestedMessage, nil
}

// ConfirmReset redeems a code and sets the new password. The code is only
// cleared once the provider has accepted the password.
func (s *RecoveryService) ConfirmReset(ctx context.Context, in ConfirmResetInput) (string, error) {
	ctx, span := tracer.Start(ctx, "RecoveryService.ConfirmReset")
	defer span.End()

	profile, err := s.Store.Profiles().FindByEmail(ctx, domain.NormalizeEmail(in.Email))
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", internal(fmt.Errorf("find profile: %w", err))
	}

	reset := profile.Reset
	if reset == nil || reset.Code == "" || subtle.ConstantTimeCompare([]byte(reset.Code), []byte(in.Code)) != 1 {
		return "", ErrCodeMismatch
	}
	if reset.ExpiresAt.IsZero() || reset.Expired(s.now()) {
		return "", ErrCodeExpired
	}
	if in.NewPassword != in.ConfirmNewPassword {
		return "", ErrPasswordMismatch
	}
	if !strongEnough(in.NewPassword) {
		return "", ErrWeakPassword
	}

	err = s.Provider.UpdateCredential(ctx, profile.IdentityRef, identity.CredentialUpdate{Password: in.NewPassword})
	if err != nil {
		return "", internal(fmt.Errorf("update credential: %w", err))
	}

	if err := s.Store.Profiles().UpdateByIdentityRef(ctx, profile.IdentityRef, store.ProfileUpdate{ClearReset: true}); err != nil {
		return "", internal(fmt.Errorf("clear reset code: %w", err))
	}

	slogx.FromContext(ctx).InfoContext(ctx, "password reset",
		slog.String("identity_ref", profile.IdentityRef),
	)
	return PasswordResetMessage, nil
}

func (s *RecoveryService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *RecoveryService) newCode() (string, error) {
	if s.NewCode != nil {
		return s.NewCode()
	}
	return cryptox.GenerateNumericCode(resetCodeDigits)
}
