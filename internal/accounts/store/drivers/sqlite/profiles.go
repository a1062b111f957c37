package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

const profileColumns = `identity_ref, email, username, full_name, phone, role,
	reset_code, reset_expiry, tfa_secret, tfa_enabled, created_at, updated_at`

type profilesRepo struct {
	db  DBTX
	now func() time.Time
}

func (r *profilesRepo) FindByIdentityRef(ctx context.Context, identityRef string) (domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE identity_ref = ?`, identityRef)
	return scanProfile(row)
}

func (r *profilesRepo) FindByEmail(ctx context.Context, email string) (domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE email = ?`, email)
	return scanProfile(row)
}

func (r *profilesRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE username = ?)`, username).Scan(&exists)
	return exists, err
}

func (r *profilesRepo) Insert(ctx context.Context, p domain.Profile) error {
	now := r.now()
	if p.Role == "" {
		p.Role = domain.DefaultRole
	}

	var resetCode sql.NullString
	var resetExpiry sql.NullTime
	if p.Reset != nil {
		resetCode = sql.NullString{String: p.Reset.Code, Valid: true}
		resetExpiry = sql.NullTime{Time: p.Reset.ExpiresAt.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.IdentityRef, p.Email, p.Username, p.FullName, mapStringNull(p.Phone), p.Role,
		resetCode, resetExpiry, mapStringNull(p.TFASecret), p.TFAEnabled, now, now,
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
		sets = append(sets, a.Column+" = ?")
		args = append(args, a.Value)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.now(), identityRef)

	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET `+strings.Join(sets, ", ")+` WHERE identity_ref = ?`, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (domain.Profile, error) {
	var (
		p           domain.Profile
		phone       sql.NullString
		resetCode   sql.NullString
		resetExpiry sql.NullTime
		tfaSecret   sql.NullString
	)
	err := row.Scan(
		&p.IdentityRef, &p.Email, &p.Username, &p.FullName, &phone, &p.Role,
		&resetCode, &resetExpiry, &tfaSecret, &p.TFAEnabled, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}

	p.Phone = mapNullString(phone)
	p.TFASecret = mapNullString(tfaSecret)
	if resetCode.Valid && resetExpiry.Valid {
		p.Reset = &domain.ResetCode{Code: resetCode.String, ExpiresAt: resetExpiry.Time.UTC()}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
