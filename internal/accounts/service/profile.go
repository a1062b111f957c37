package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/internal/accounts/notify"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

const VerificationSentMessage = "If an account exists for that email, a verification link has been sent."

// TokenProfile merges a bearer token's claims with the stored profile.
type TokenProfile struct {
	IdentityRef   string
	Email         string
	EmailVerified bool
	Phone         string
	Name          string
	Username      string
	TFAEnabled    bool
}

type ProfileService struct {
	Store      store.ProfileStore
	Provider   identity.Provider
	Dispatcher notify.Dispatcher
}

func (s *ProfileService) VerifyToken(ctx context.Context, bearer string) (TokenProfile, error) {
	ctx, span := tracer.Start(ctx, "ProfileService.VerifyToken")
	defer span.End()

	claims, err := s.Provider.VerifyBearerToken(ctx, bearer)
	if err != nil {
		return TokenProfile{}, ErrUnauthorized.wrap(err)
	}

	profile, err := s.Store.Profiles().FindByIdentityRef(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return TokenProfile{}, ErrNotFound
	}
	if err != nil {
		return TokenProfile{}, internal(fmt.Errorf("find profile: %w", err))
	}

	name := claims.Name
	if name == "" {
		name = profile.FullName
	}
	return TokenProfile{
		IdentityRef:   claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Phone:         profile.Phone,
		Name:          name,
		Username:      profile.Username,
		TFAEnabled:    profile.TFAEnabled,
	}, nil
}

// SendEmailVerification dispatches a verification link. Unknown addresses
// get the same message as known ones.
func (s *ProfileService) SendEmailVerification(ctx context.Context, email string) (string, error) {
	ctx, span := tracer.Start(ctx, "ProfileService.SendEmailVerification")
	defer span.End()

	email = domain.NormalizeEmail(email)
	if email == "" {
		return "", invalidInput([]FieldError{{Field: "email", Reason: "is required"}})
	}

	link, err := s.Provider.GenerateEmailVerificationLink(ctx, email)
	if errors.Is(err, identity.ErrAccountNotFound) {
		return VerificationSentMessage, nil
	}
	if err != nil {
		return "", internal(fmt.Errorf("generate verification link: %w", err))
	}

	if err := s.Dispatcher.SendVerificationLink(ctx, email, link); err != nil {
		return "", internal(fmt.Errorf("dispatch verification link: %w", err))
	}
	return VerificationSentMessage, nil
}
