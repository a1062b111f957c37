package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// DuplicateError reports which unique field an insert collided on. It
// matches ErrAlreadyExists with errors.Is.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return "store: duplicate " + e.Field
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ProfileStore is the root data access interface. Concrete drivers (sqlite,
// postgres) implement it and expose one sub-repository per table.
type ProfileStore interface {
	Profiles() Profiles
	Orphans() Orphans

	ApplyMigrations() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error

	Close() error
}

type Profiles interface {
	// FindByIdentityRef returns ErrNotFound when no profile exists.
	FindByIdentityRef(ctx context.Context, identityRef string) (domain.Profile, error)

	// FindByEmail expects a normalized email.
	FindByEmail(ctx context.Context, email string) (domain.Profile, error)

	// ExistsByUsername expects a normalized username.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Insert fails with *DuplicateError on identity_ref, email or username.
	Insert(ctx context.Context, p domain.Profile) error

	// UpdateByIdentityRef applies u and bumps updated_at. Returns ErrNotFound
	// when no profile exists.
	UpdateByIdentityRef(ctx context.Context, identityRef string, u ProfileUpdate) error
}

// ProfileUpdate lists the mutable profile fields. Nil fields are untouched.
type ProfileUpdate struct {
	// Reset sets the recovery code. ClearReset removes it; setting both is
	// an error.
	Reset      *domain.ResetCode
	ClearReset bool

	TFASecret  *string
	TFAEnabled *bool
}

// Assignment is one column = value pair of an update.
type Assignment struct {
	Column string
	Value  any
}

// Assignments flattens u into column assignments in a fixed order, so
// drivers only differ in placeholder syntax.
func (u ProfileUpdate) Assignments() ([]Assignment, error) {
	if u.Reset != nil && u.ClearReset {
		return nil, errors.New("store: update both sets and clears the reset code")
	}

	var out []Assignment
	switch {
	case u.Reset != nil:
		out = append(out,
			Assignment{"reset_code", u.Reset.Code},
			Assignment{"reset_expiry", u.Reset.ExpiresAt.UTC()},
		)
	case u.ClearReset:
		out = append(out,
			Assignment{"reset_code", nil},
			Assignment{"reset_expiry", nil},
		)
	}
	if u.TFASecret != nil {
		out = append(out, Assignment{"tfa_secret", *u.TFASecret})
	}
	if u.TFAEnabled != nil {
		out = append(out, Assignment{"tfa_enabled", *u.TFAEnabled})
	}
	return out, nil
}

type Orphans interface {
	// Record stores a new unresolved orphan. ID and CreatedAt are set by the
	// caller.
	Record(ctx context.Context, o domain.Orphan) error

	// ListUnresolved returns unresolved orphans oldest first.
	ListUnresolved(ctx context.Context, limit int) ([]domain.Orphan, error)

	// MarkAttempt bumps attempts and records the latest failure.
	MarkAttempt(ctx context.Context, id string, lastErr string) error

	Resolve(ctx context.Context, id string, at time.Time) error
}
