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

// ReceivablesRepo persists receivables in the remote store. Every
// statement is scoped to the session owner; the tables themselves belong
// to the backing service.
type ReceivablesRepo struct {
	pg    *Postgres
	table string
}

func NewReceivablesRepo(pg *Postgres, table string) *ReceivablesRepo {
	return &ReceivablesRepo{pg: pg, table: table}
}

func (r *ReceivablesRepo) Insert(ctx context.Context, rec core.Receivable) (core.Receivable, error) {
	owner, ok := session.OwnerFromContext(ctx)
	if !ok {
		return core.Receivable{}, fmt.Errorf("%w: no session", core.ErrPersistence)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, description, total, paid, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, r.table)

	var id string
	err := r.pg.Pool.QueryRow(ctx, query,
		owner, rec.Description, rec.Total.Units, rec.Paid.Units, nullableDate(rec.DueDate),
	).Scan(&id)
	if err != nil {
		return core.Receivable{}, fmt.Errorf("%w: insert receivable: %v", core.ErrPersistence, err)
	}

	rec.ID = id
	slog.InfoContext(ctx, "Receivable saved",
		"id", rec.ID,
		"description", rec.Description,
		"total", rec.Total.Units)
	return rec, nil
}

func (r *ReceivablesRepo) Update(ctx context.Context, rec core.Receivable) (core.Receivable, error) {
	owner, ok := session.OwnerFromContext(ctx)
	if !ok {
		return core.Receivable{}, fmt.Errorf("%w: no session", core.ErrPersistence)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET description = $1, total = $2, paid = $3, due_date = $4
		WHERE id = $5 AND owner_id = $6
		RETURNING id`, r.table)

	var id string
	err := r.pg.Pool.QueryRow(ctx, query,
		rec.Description, rec.Total.Units, rec.Paid.Units, nullableDate(rec.DueDate), rec.ID, owner,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Receivable{}, fmt.Errorf("%w: receivable %s", core.ErrNotFound, rec.ID)
	}
	if err != nil {
		return core.Receivable{}, fmt.Errorf("%w: update receivable: %v", core.ErrPersistence, err)
	}

	return rec, nil
}

// RecordPayment increments the paid amount in place, clamped to the
// total by the database, so concurrent payments from other processes add
// up instead of overwriting each other.
func (r *ReceivablesRepo) RecordPayment(ctx context.Context, id string, amount int64) (core.Receivable, error) {
	owner, ok := session.OwnerFromContext(ctx)
	if !ok {
		return core.Receivable{}, fmt.Errorf("%w: no session", core.ErrPersistence)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET paid = LEAST(total, paid + $1)
		WHERE id = $2 AND owner_id = $3
		RETURNING id, description, total, paid, due_date`, r.table)

	var (
		rec   core.Receivable
		total int64
		paid  int64
		due   *time.Time
	)
	err := r.pg.Pool.QueryRow(ctx, query, amount, id, owner).Scan(
		&rec.ID, &rec.Description, &total, &paid, &due)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Receivable{}, fmt.Errorf("%w: receivable %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Receivable{}, fmt.Errorf("%w: record payment: %v", core.ErrPersistence, err)
	}
	rec.Total = core.Money{Units: total}
	rec.Paid = core.Money{Units: paid}
	if due != nil {
		rec.DueDate = core.Date{Time: *due}
	}

	slog.InfoContext(ctx, "Payment recorded",
		"id", rec.ID,
		"paid", rec.Paid.Units,
		"total", rec.Total.Units)
	return rec, nil
}

func (r *ReceivablesRepo) Delete(ctx context.Context, id string) error {
	owner, ok := session.OwnerFromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: no session", core.ErrPersistence)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND owner_id = $2`, r.table)
	tag, err := r.pg.Pool.Exec(ctx, query, id, owner)
	if err != nil {
		return fmt.Errorf("%w: delete receivable: %v", core.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		// Idempotent for the caller; worth a trace for anyone watching.
		slog.DebugContext(ctx, "Delete of absent receivable", "id", id)
	}
	return nil
}

func (r *ReceivablesRepo) List(ctx context.Context) ([]core.Receivable, error) {
	owner, ok := session.OwnerFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no session", core.ErrPersistence)
	}

	query := fmt.Sprintf(`
		SELECT id, description, total, paid, due_date
		FROM %s
		WHERE owner_id = $1
		ORDER BY created_at`, r.table)

	rows, err := r.pg.Pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: list receivables: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.Receivable
	for rows.Next() {
		var (
			rec   core.Receivable
			total int64
			paid  int64
			due   *time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.Description, &total, &paid, &due); err != nil {
			return nil, fmt.Errorf("%w: scan receivable: %v", core.ErrPersistence, err)
		}
		rec.Total = core.Money{Units: total}
		rec.Paid = core.Money{Units: paid}
		if due != nil {
			rec.DueDate = core.Date{Time: *due}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list receivables: %v", core.ErrPersistence, err)
	}
	return out, nil
}

func nullableDate(d core.Date) *time.Time {
	if d.IsEmpty() {
		return nil
	}
	t := d.Time
	return &t
}
