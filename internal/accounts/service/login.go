package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

type LoginResult struct {
	TFARequired   bool
	Token         string
	Authenticated bool
}

type TFALoginResult struct {
	Token         string
	Authenticated bool
}

// LoginService turns a verified ID token into an exchange token, asking for
// a TOTP code first when the profile has TFA enabled.
type LoginService struct {
	Store    store.ProfileStore
	Provider identity.Provider
	TFA      *TFAService
}

func (s *LoginService) Login(ctx context.Context, bearer string) (LoginResult, error) {
	ctx, span := tracer.Start(ctx, "LoginService.Login")
	defer span.End()

	claims, err := s.Provider.VerifyBearerToken(ctx, bearer)
	if err != nil {
		return LoginResult{}, ErrUnauthorized.wrap(err)
	}

	profile, err := s.Store.Profiles().FindByIdentityRef(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, ErrNotFound
	}
	if err != nil {
		return LoginResult{}, internal(fmt.Errorf("find profile: %w", err))
	}

	if profile.TFAEnabled {
		return LoginResult{TFARequired: true}, nil
	}

	token, err := s.Provider.IssueExchangeToken(ctx, claims.Subject)
	if err != nil {
		return LoginResult{}, internal(fmt.Errorf("issue exchange token: %w", err))
	}
	return LoginResult{Token: token, Authenticated: true}, nil
}

// LoginWithTFACode completes a login that Login answered with TFARequired.
// Every failure returns ErrUnauthorized itself, so callers cannot tell a bad
// bearer from a bad code.
func (s *LoginService) LoginWithTFACode(ctx context.Context, bearer, code string) (TFALoginResult, error) {
	ctx, span := tracer.Start(ctx, "LoginService.LoginWithTFACode")
	defer span.End()

	token, err := s.loginWithTFACode(ctx, bearer, code)
	if err != nil {
		span.RecordError(err)
		slogx.FromContext(ctx).WarnContext(ctx, "tfa login rejected", slog.Any("error", err))
		return TFALoginResult{}, ErrUnauthorized
	}
	return TFALoginResult{Token: token, Authenticated: true}, nil
}

func (s *LoginService) loginWithTFACode(ctx context.Context, bearer, code string) (string, error) {
	claims, err := s.Provider.VerifyBearerToken(ctx, bearer)
	if err != nil {
		return "", fmt.Errorf("verify bearer: %w", err)
	}

	profile, err := s.Store.Profiles().FindByIdentityRef(ctx, claims.Subject)
	if err != nil {
		return "", fmt.Errorf("find profile: %w", err)
	}
	if !profile.TFAEnabled {
		return "", errors.New("tfa not enabled")
	}

	if err := s.TFA.VerifyLogin(ctx, claims.Subject, code); err != nil {
		return "", fmt.Errorf("verify code: %w", err)
	}

	token, err := s.Provider.IssueExchangeToken(ctx, claims.Subject)
	if err != nil {
		return "", fmt.Errorf("issue exchange token: %w", err)
	}
	return token, nil
}
