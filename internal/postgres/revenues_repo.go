package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ardiutama/Piutang/internal/core"
	"github.com/ardiutama/Piutang/internal/session"
)

type RevenuesRepo struct {
	pg    *Postgres
	table string
}

func NewRevenuesRepo(pg *Postgres, table string) *RevenuesRepo {
	return &RevenuesRepo{pg: pg, table: table}
}

func (r *RevenuesRepo) Insert(ctx context.Context, rev core.Revenue) (core.Revenue, error) {
	owner, ok := session.OwnerFromContext(ctx)
	if !ok {
		return core.Revenue{}, fmt.Errorf("%w: no session", core.ErrPersistence)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, description, amount, entry_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, r.table)

	var id string
	err := r.pg.Pool.QueryRow(ctx, query,
		owner, rev.Description, rev.Amount.Units, nullableDate(rev.Date),
	).Scan(&id)
	if err != nil {
		return core.Revenue{}, fmt.Errorf("%w: insert revenue: %v", core.ErrPersistence, err)
	}

	rev.ID = id
	slog.InfoContext(ctx, "Revenue saved",
		"id", rev.ID,
		"description", rev.Description,
		"amount", rev.Amount.Units)
	return rev, nil
}

func (r *RevenuesRepo) Update(ctx context.Context, rev core.Revenue) (core.Revenue, error) {
	owner, ok := session.OwnerFromContext(ctx)
	if !ok {
		return core.Revenue{}, fmt.Errorf("%w: no session", core.ErrPersistence)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET description = $1, amount = $2, entry_date = $3
		WHERE id = $4 AND owner_id = $5
		RETURNING id`, r.table)

	var id string
	err := r.pg.Pool.QueryRow(ctx, query,
		rev.Description, rev.Amount.Units, nullableDate(rev.Date), rev.ID, owner,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Revenue{}, fmt.Errorf("%w: revenue %s", core.ErrNotFound, rev.ID)
	}
	if err != nil {
		return core.Revenue{}, fmt.Errorf("%w: update revenue: %v", core.ErrPersistence, err)
	}

	return rev, nil
}

func (r *RevenuesRepo) Delete(ctx context.Context, id string) error {
	owner, ok := session.OwnerFromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: no session", core.ErrPersistence)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND owner_id = $2`, r.table)
	tag, err := r.pg.Pool.Exec(ctx, query, id, owner)
	if err != nil {
		return fmt.Errorf("%w: delete revenue: %v", core.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		slog.DebugContext(ctx, "Delete of absent revenue", "id", id)
	}
	return nil
}

func (r *RevenuesRepo) List(ctx context.Context) ([]core.Revenue, error) {
	owner, ok := session.OwnerFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no session", core.ErrPersistence)
	}

	query := fmt.Sprintf(`
		SELECT id, description, amount, entry_date
		FROM %s
		WHERE owner_id = $1
		ORDER BY created_at`, r.table)

	rows, err := r.pg.Pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: list revenues: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.Revenue
	for rows.Next() {
		var (
			rev    core.Revenue
			amount int64
			date   *time.Time
		)
		if err := rows.Scan(&rev.ID, &rev.Description, &amount, &date); err != nil {
			return nil, fmt.Errorf("%w: scan revenue: %v", core.ErrPersistence, err)
		}
		rev.Amount = core.Money{Units: amount}
		if date != nil {
			rev.Date = core.Date{Time: *date}
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list revenues: %v", core.ErrPersistence, err)
	}
	return out, nil
}
