// Package postgres is the remote persistence variant: records live in the
// backing service's Postgres tables, scoped per owner, reached through a
// pgx pool. One repo per table, combined into a store.Backend.
package postgres

import (
	"context"

	"github.com/ardiutama/Piutang/internal/core"
)

// Backend combines the per-table repos into the store's collaborator
// interface.
type Backend struct {
	pg          *Postgres
	receivables *ReceivablesRepo
	revenues    *RevenuesRepo
}

func NewBackend(pg *Postgres) *Backend {
	return &Backend{
		pg:          pg,
		receivables: NewReceivablesRepo(pg, "receivables"),
		revenues:    NewRevenuesRepo(pg, "revenues"),
	}
}

func (b *Backend) LoadReceivables(ctx context.Context) ([]core.Receivable, error) {
	return b.receivables.List(ctx)
}

func (b *Backend) LoadRevenues(ctx context.Context) ([]core.Revenue, error) {
	return b.revenues.List(ctx)
}

func (b *Backend) InsertReceivable(ctx context.Context, r core.Receivable) (core.Receivable, error) {
	return b.receivables.Insert(ctx, r)
}

func (b *Backend) UpdateReceivable(ctx context.Context, r core.Receivable) (core.Receivable, error) {
	return b.receivables.Update(ctx, r)
}

func (b *Backend) RecordPayment(ctx context.Context, id string, amount int64) (core.Receivable, error) {
	return b.receivables.RecordPayment(ctx, id, amount)
}

func (b *Backend) DeleteReceivable(ctx context.Context, id string) error {
	return b.receivables.Delete(ctx, id)
}

func (b *Backend) InsertRevenue(ctx context.Context, v core.Revenue) (core.Revenue, error) {
	return b.revenues.Insert(ctx, v)
}

func (b *Backend) UpdateRevenue(ctx context.Context, v core.Revenue) (core.Revenue, error) {
	return b.revenues.Update(ctx, v)
}

func (b *Backend) DeleteRevenue(ctx context.Context, id string) error {
	return b.revenues.Delete(ctx, id)
}

func (b *Backend) Close() error {
	b.pg.Close()
	return nil
}
