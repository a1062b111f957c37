package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/idx"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type account struct {
	identity.Account
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const accountColumns = `id, email, display_name, password_hash, email_verified, created_at, updated_at`

func (p *Provider) CreateAccount(ctx context.Context, email, password, displayName string) (identity.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return identity.Account{}, errors.New("local: email and password are required")
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		return identity.Account{}, err
	}

	now := p.cfg.Now()
	acct := identity.Account{
		ID:          idx.NewAt(now).String(),
		Email:       email,
		DisplayName: displayName,
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		acct.ID, acct.Email, acct.DisplayName, hash, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.Account{}, identity.ErrEmailExists
		}
		return identity.Account{}, fmt.Errorf("local: insert account: %w", err)
	}
	return acct, nil
}

func (p *Provider) DeleteAccount(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("local: delete account: %w", err)
	}
	return expectOne(res)
}

func (p *Provider) UpdateCredential(ctx context.Context, id string, update identity.CredentialUpdate) error {
	if update.Password == "" {
		return nil
	}

	hash, err := p.hasher.Hash(update.Password)
	if err != nil {
		return err
	}

	res, err := p.db.ExecContext(ctx, `
		UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, p.cfg.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("local: update credential: %w", err)
	}
	return expectOne(res)
}

// SignInWithPassword checks a password and returns a fresh ID token.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (string, error) {
	acct, err := p.findByEmail(ctx, email)
	if errors.Is(err, identity.ErrAccountNotFound) {
		_ = p.hasher.Verify(password, p.dummyHash)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := p.hasher.Verify(password, acct.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	return p.issueIDToken(acct.Account)
}

func (p *Provider) findByID(ctx context.Context, id string) (account, error) {
	return p.scanOne(p.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
}

func (p *Provider) findByEmail(ctx context.Context, email string) (account, error) {
	return p.scanOne(p.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email))))
}

func (p *Provider) markEmailVerified(ctx context.Context, id, email string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE accounts SET email_verified = 1, updated_at = ?
		WHERE id = ? AND email = ?`,
		p.cfg.Now(), id, email,
	)
	if err != nil {
		return fmt.Errorf("local: mark email verified: %w", err)
	}
	return expectOne(res)
}

func (p *Provider) scanOne(row *sql.Row) (account, error) {
	var a account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.DisplayName,
		&a.PasswordHash,
		&a.EmailVerified,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return account{}, identity.ErrAccountNotFound
	}
	if err != nil {
		return account{}, fmt.Errorf("local: scan account: %w", err)
	}
	return a, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
