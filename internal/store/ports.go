package store

import (
	"context"

	"github.com/ardiutama/Piutang/internal/core"
)

// Backend is the persistence collaborator. Every mutation on the store is
// confirmed by the backend before it is applied in memory; a backend error
// leaves the store untouched.
//
// Insert assigns the record identifier and returns the confirmed record.
// Update returns core.ErrNotFound when the id does not exist durably.
// Delete is idempotent: deleting an absent id is not an error.
//
// RecordPayment adds amount to the durable paid total, clamped to the
// receivable's total at the persistence layer so concurrent payments from
// other processes never overwrite each other. It returns the confirmed
// record, or core.ErrNotFound for an unknown id.
type Backend interface {
	LoadReceivables(ctx context.Context) ([]core.Receivable, error)
	LoadRevenues(ctx context.Context) ([]core.Revenue, error)

	InsertReceivable(ctx context.Context, r core.Receivable) (core.Receivable, error)
	UpdateReceivable(ctx context.Context, r core.Receivable) (core.Receivable, error)
	RecordPayment(ctx context.Context, id string, amount int64) (core.Receivable, error)
	DeleteReceivable(ctx context.Context, id string) error

	InsertRevenue(ctx context.Context, v core.Revenue) (core.Revenue, error)
	UpdateRevenue(ctx context.Context, v core.Revenue) (core.Revenue, error)
	DeleteRevenue(ctx context.Context, id string) error

	Close() error
}
