package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `identity_ref, email, username, full_name, phone, role,
	reset_code, reset_expiry, tfa_secret, tfa_enabled, created_at, updated_at`

type profilesRepo struct {
	db  DBTX
	now func() time.Time
}

func (r *profilesRepo) FindByIdentityRef(ctx context.Context, identityRef string) (domain.Profile, error) {
	return scanProfile(r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE identity_ref = $1`, identityRef))
}

func (r *profilesRepo) FindByEmail(ctx context.Context, email string) (domain.Profile, error) {
	return scanProfile(r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email))
}

func (r *profilesRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (r *profilesRepo) Insert(ctx context.Context, p domain.Profile) error {
	now := r.now()
	if p.Role == "" {
		p.Role = domain.DefaultRole
	}

	var resetCode *string
	var resetExpiry *time.Time
	if p.Reset != nil {
		code, expiry := p.Reset.Code, p.Reset.ExpiresAt.UTC()
		resetCode, resetExpiry = &code, &expiry
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.IdentityRef, p.Email, p.Username, p.FullName, optional(p.Phone), p.Role,
		resetCode, resetExpiry, optional(p.TFASecret), p.TFAEnabled, now, now,
	)
	return mapConstraint(err)
}

func (r *profilesRepo) UpdateByIdentityRef(ctx context.Context, identityRef string, u store.ProfileUpdate) error {
	assignments, err := u.Assignments()
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(assignments)+1)
	args := make([]any, 0, len(assignments)+2)
	for _, a := range assignments {
		args = append(args, a.Value)
		sets = append(sets, a.Column+" = $"+strconv.Itoa(len(args)))
	}
	args = append(args, r.now())
	sets = append(sets, "updated_at = $"+strconv.Itoa(len(args)))
	args = append(args, identityRef)

	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET `+strings.Join(sets, ", ")+
			` WHERE identity_ref = $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return expectOne(tag, nil)
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var (
		p           domain.Profile
		phone       *string
		resetCode   *string
		resetExpiry *time.Time
		tfaSecret   *string
	)
	err := row.Scan(
		&p.IdentityRef, &p.Email, &p.Username, &p.FullName, &phone, &p.Role,
		&resetCode, &resetExpiry, &tfaSecret, &p.TFAEnabled, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}

	p.Phone = deref(phone)
	p.TFASecret = deref(tfaSecret)
	if resetCode != nil && resetExpiry != nil {
		p.Reset = &domain.ResetCode{Code: *resetCode, ExpiresAt: resetExpiry.UTC()}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
