package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/jackc/pgx/v5"
)

type orphansRepo struct {
	db DBTX
}

func (r *orphansRepo) Record(ctx context.Context, o domain.Orphan) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO orphaned_accounts (id, identity_ref, email, reason, attempts, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.IdentityRef, o.Email, o.Reason, o.Attempts, o.CreatedAt.UTC(),
	)
	return err
}

func (r *orphansRepo) ListUnresolved(ctx context.Context, limit int) ([]domain.Orphan, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, identity_ref, email, reason, attempts, last_error, created_at, resolved_at
		 FROM orphaned_accounts
		 WHERE resolved_at IS NULL
		 ORDER BY created_at, id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Orphan, error) {
		var (
			o       domain.Orphan
			lastErr *string
		)
		if err := row.Scan(&o.ID, &o.IdentityRef, &o.Email, &o.Reason, &o.Attempts,
			&lastErr, &o.CreatedAt, &o.ResolvedAt); err != nil {
			return domain.Orphan{}, err
		}
		o.LastError = deref(lastErr)
		o.CreatedAt = o.CreatedAt.UTC()
		return o, nil
	})
}

func (r *orphansRepo) MarkAttempt(ctx context.Context, id string, lastErr string) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE orphaned_accounts SET attempts = attempts + 1, last_error = $1 WHERE id = $2`,
		optional(lastErr), id))
}

func (r *orphansRepo) Resolve(ctx context.Context, id string, at time.Time) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE orphaned_accounts SET resolved_at = $1 WHERE id = $2 AND resolved_at IS NULL`,
		at.UTC(), id))
}
