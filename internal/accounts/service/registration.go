package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/idx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
	Username        string
	Phone           string
}

type Registration struct {
	IdentityRef string
	Email       string
}

// RegistrationService provisions an identity provider account and its local
// profile together. If the profile cannot be written the account is deleted
// again; an account that survives that delete is recorded as an orphan.
type RegistrationService struct {
	Store    store.ProfileStore
	Provider identity.Provider

	// Now overrides the clock, for tests.
	Now func() time.Time
}

func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (Registration, error) {
	ctx, span := tracer.Start(ctx, "RegistrationService.Register")
	defer span.End()

	if fields := validateRegistration(in); len(fields) > 0 {
		return Registration{}, invalidInput(fields)
	}

	email := domain.NormalizeEmail(in.Email)
	username := domain.NormalizeUsername(in.Username)

	// Advisory only: two concurrent registrations can both pass, and the
	// unique index on insert has the final say.
	taken, err := s.Store.Profiles().ExistsByUsername(ctx, username)
	if err != nil {
		return Registration{}, internal(fmt.Errorf("check username: %w", err))
	}
	if taken {
		return Registration{}, ErrUsernameTaken
	}

	displayName := strings.TrimSpace(in.FullName)
	if displayName == "" {
		displayName = strings.TrimSpace(in.Username)
	}

	var acct identity.Account
	steps := []Step{
		{
			Name: "create_account",
			Do: func(ctx context.Context) error {
				created, err := s.Provider.CreateAccount(ctx, email, in.Password, displayName)
				if err != nil {
					return err
				}
				acct = created
				return nil
			},
			Undo: func(ctx context.Context) error {
				return s.Provider.DeleteAccount(ctx, acct.ID)
			},
		},
		{
			Name: "insert_profile",
			Do: func(ctx context.Context) error {
				now := s.now()
				return s.Store.Profiles().Insert(ctx, domain.Profile{
					IdentityRef: acct.ID,
					Email:       email,
					Username:    username,
					FullName:    strings.TrimSpace(in.FullName),
					Phone:       strings.TrimSpace(in.Phone),
					Role:        domain.DefaultRole,
					CreatedAt:   now,
					UpdatedAt:   now,
				})
			},
		},
	}

	if err := RunSaga(ctx, "register", steps); err != nil {
		return Registration{}, s.failed(ctx, email, acct, err)
	}

	slogx.FromContext(ctx).InfoContext(ctx, "account registered",
		slog.String("identity_ref", acct.ID),
		slog.String("username", username),
	)
	return Registration{IdentityRef: acct.ID, Email: email}, nil
}

// failed classifies a saga failure. Known conflicts are only reported when
// the saga fully compensated; an orphan always surfaces as Internal.
func (s *RegistrationService) failed(ctx context.Context, email string, acct identity.Account, err error) error {
	var sagaErr *SagaError
	if !errors.As(err, &sagaErr) {
		return internal(err)
	}

	if !sagaErr.Compensated() {
		s.orphaned(ctx, email, acct, sagaErr)
		return internal(sagaErr)
	}

	if errors.Is(sagaErr.Err, identity.ErrEmailExists) {
		return ErrEmailExists.wrap(sagaErr)
	}

	var dup *store.DuplicateError
	if errors.As(sagaErr.Err, &dup) {
		switch dup.Field {
		case "username":
			return ErrUsernameTaken.wrap(sagaErr)
		case "email":
			return ErrEmailExists.wrap(sagaErr)
		}
	}
	return internal(sagaErr)
}

func (s *RegistrationService) orphaned(ctx context.Context, email string, acct identity.Account, sagaErr *SagaError) {
	log := slogx.FromContext(ctx)

	undoErrs := make([]string, len(sagaErr.Orphans))
	for i := range sagaErr.Orphans {
		undoErrs[i] = sagaErr.Orphans[i].Error()
	}
	log.ErrorContext(ctx, "identity account orphaned",
		slog.String("event", "orphan_account"),
		slog.String("identity_ref", acct.ID),
		slog.String("email", email),
		slog.String("failed_step", sagaErr.Step),
		slog.Any("cause", sagaErr.Err),
		slog.Any("undo_errors", undoErrs),
	)

	now := s.now()
	err := s.Store.Orphans().Record(context.WithoutCancel(ctx), domain.Orphan{
		ID:          idx.NewAt(now).String(),
		IdentityRef: acct.ID,
		Email:       email,
		Reason:      sagaErr.Error(),
		CreatedAt:   now,
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to record orphan account",
			slog.String("event", "orphan_account"),
			slog.String("identity_ref", acct.ID),
			slog.Any("error", err),
		)
	}
}

func (s *RegistrationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
