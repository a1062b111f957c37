package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod = 30
	totpSkew   = 1
	totpDigits = otp.DigitsSix
)

// TFAEnrollment is a freshly generated TOTP secret. URI is the otpauth://
// provisioning URI an authenticator app scans.
type TFAEnrollment struct {
	URI    string
	Secret string
}

// TFAService enrolls and verifies TOTP second factors. Secrets are encrypted
// with Cipher before they are stored.
type TFAService struct {
	Store  store.ProfileStore
	Cipher *cryptox.SecretCipher
	Issuer string // Label shown in authenticator apps

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// GenerateSecret starts (or restarts) enrollment. A pending secret is
// replaced, so only the most recently scanned QR code confirms.
func (s *TFAService) GenerateSecret(ctx context.Context, identityRef string) (TFAEnrollment, error) {
	ctx, span := tracer.Start(ctx, "TFAService.GenerateSecret")
	defer span.End()

	profile, err := s.profile(ctx, identityRef)
	if err != nil {
		return TFAEnrollment{}, err
	}
	if profile.TFAState() == domain.TFAEnabled {
		return TFAEnrollment{}, ErrAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: profile.Email,
		Period:      totpPeriod,
		SecretSize:  20,
		Digits:      totpDigits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return TFAEnrollment{}, internal(fmt.Errorf("generate TOTP key: %w", err))
	}

	stored, err := s.Cipher.Encrypt(key.Secret())
	if err != nil {
		return TFAEnrollment{}, internal(fmt.Errorf("encrypt TOTP secret: %w", err))
	}
	if err := s.Store.Profiles().UpdateByIdentityRef(ctx, identityRef, store.ProfileUpdate{TFASecret: &stored}); err != nil {
		return TFAEnrollment{}, internal(fmt.Errorf("store TOTP secret: %w", err))
	}

	return TFAEnrollment{URI: key.URL(), Secret: key.Secret()}, nil
}

// ConfirmEnrollment enables TFA once the user proves they hold the secret.
func (s *TFAService) ConfirmEnrollment(ctx context.Context, identityRef, code string) error {
	ctx, span := tracer.Start(ctx, "TFAService.ConfirmEnrollment")
	defer span.End()

	if code == "" {
		return ErrCodeRequired
	}
	if !wellFormedCode(code) {
		return ErrBadCode
	}

	profile, err := s.profile(ctx, identityRef)
	if err != nil {
		return err
	}
	if profile.TFAState() == domain.TFANotEnrolled {
		return ErrNotStarted
	}

	ok, err := s.validate(profile, code)
	if errors.Is(err, cryptox.ErrSecretCorrupt) || errors.Is(err, cryptox.ErrSecretKeyMissing) {
		return internal(err)
	}
	if err != nil || !ok {
		return ErrBadCode.wrap(err)
	}

	if profile.TFAEnabled {
		return nil
	}

	enabled := true
	if err := s.Store.Profiles().UpdateByIdentityRef(ctx, identityRef, store.ProfileUpdate{TFAEnabled: &enabled}); err != nil {
		return internal(fmt.Errorf("enable TFA: %w", err))
	}

	slogx.FromContext(ctx).InfoContext(ctx, "two-factor authentication enabled",
		slog.String("identity_ref", identityRef),
	)
	return nil
}

// VerifyLogin checks a code against an enabled profile. It never changes
// state and every failure is Unauthorized.
func (s *TFAService) VerifyLogin(ctx context.Context, identityRef, code string) error {
	ctx, span := tracer.Start(ctx, "TFAService.VerifyLogin")
	defer span.End()

	if !wellFormedCode(code) {
		return ErrUnauthorized
	}

	profile, err := s.Store.Profiles().FindByIdentityRef(ctx, identityRef)
	if err != nil {
		return ErrUnauthorized.wrap(err)
	}
	if profile.TFAState() != domain.TFAEnabled {
		return ErrUnauthorized
	}

	ok, err := s.validate(profile, code)
	if err != nil {
		return ErrUnauthorized.wrap(err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func (s *TFAService) profile(ctx context.Context, identityRef string) (domain.Profile, error) {
	profile, err := s.Store.Profiles().FindByIdentityRef(ctx, identityRef)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Profile{}, ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, internal(fmt.Errorf("find profile: %w", err))
	}
	return profile, nil
}

func (s *TFAService) validate(profile domain.Profile, code string) (bool, error) {
	secret, err := s.Cipher.Decrypt(profile.TFASecret)
	if err != nil {
		return false, err
	}

	return totp.ValidateCustom(code, secret, s.now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    totpDigits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

func (s *TFAService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func wellFormedCode(code string) bool {
	if len(code) != totpDigits.Length() {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
