package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

type orphansRepo struct {
	db DBTX
}

func (r *orphansRepo) Record(ctx context.Context, o domain.Orphan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orphaned_accounts (id, identity_ref, email, reason, attempts, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.IdentityRef, o.Email, o.Reason, o.Attempts, o.CreatedAt.UTC(),
	)
	return err
}

func (r *orphansRepo) ListUnresolved(ctx context.Context, limit int) ([]domain.Orphan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, identity_ref, email, reason, attempts, last_error, created_at, resolved_at
		 FROM orphaned_accounts
		 WHERE resolved_at IS NULL
		 ORDER BY created_at, id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Orphan
	for rows.Next() {
		var (
			o          domain.Orphan
			lastErr    sql.NullString
			resolvedAt sql.NullTime
		)
		if err := rows.Scan(&o.ID, &o.IdentityRef, &o.Email, &o.Reason, &o.Attempts,
			&lastErr, &o.CreatedAt, &resolvedAt); err != nil {
			return nil, err
		}
		o.LastError = mapNullString(lastErr)
		o.CreatedAt = o.CreatedAt.UTC()
		o.ResolvedAt = mapNullTimePtr(resolvedAt)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *orphansRepo) MarkAttempt(ctx context.Context, id string, lastErr string) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE orphaned_accounts SET attempts = attempts + 1, last_error = ? WHERE id = ?`,
		mapStringNull(lastErr), id))
}

func (r *orphansRepo) Resolve(ctx context.Context, id string, at time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE orphaned_accounts SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL`,
		at.UTC(), id))
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
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
