package localstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ardiutama/Piutang/internal/core"
)

// Backend implements the store's persistence collaborator over a KV. It
// mirrors both lists so that every mutation can synchronously re-serialize
// the entire list, not a diff. Identifiers are assigned locally.
type Backend struct {
	mu          sync.Mutex
	kv          KV
	receivables []core.Receivable
	revenues    []core.Revenue
	loaded      bool
}

func NewBackend(kv KV) *Backend {
	return &Backend{kv: kv}
}

func (b *Backend) LoadReceivables(ctx context.Context) ([]core.Receivable, error) {
	if err := b.hydrate(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]core.Receivable(nil), b.receivables...), nil
}

func (b *Backend) LoadRevenues(ctx context.Context) ([]core.Revenue, error) {
	if err := b.hydrate(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]core.Revenue(nil), b.revenues...), nil
}

func (b *Backend) hydrate(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		return nil
	}

	if data, ok, err := b.kv.Load(ctx, KeyReceivables); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	} else if ok {
		receivables, err := decodeReceivables(data)
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrPersistence, err)
		}
		b.receivables = receivables
	}

	if data, ok, err := b.kv.Load(ctx, KeyRevenues); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	} else if ok {
		revenues, err := decodeRevenues(data)
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrPersistence, err)
		}
		b.revenues = revenues
	}

	b.loaded = true
	slog.InfoContext(ctx, "Local snapshots loaded",
		"receivables", len(b.receivables),
		"revenues", len(b.revenues))
	return nil
}

// saveReceivables runs with b.mu held.
func (b *Backend) saveReceivables(ctx context.Context) error {
	data, err := encodeReceivables(b.receivables)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	if err := b.kv.Save(ctx, KeyReceivables, data); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	return nil
}

// saveRevenues runs with b.mu held.
func (b *Backend) saveRevenues(ctx context.Context) error {
	data, err := encodeRevenues(b.revenues)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	if err := b.kv.Save(ctx, KeyRevenues, data); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	return nil
}

func (b *Backend) InsertReceivable(ctx context.Context, r core.Receivable) (core.Receivable, error) {
	if err := b.hydrate(ctx); err != nil {
		return core.Receivable{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	r.ID = uuid.NewString()
	b.receivables = append(b.receivables, r)
	if err := b.saveReceivables(ctx); err != nil {
		b.receivables = b.receivables[:len(b.receivables)-1]
		return core.Receivable{}, err
	}
	return r, nil
}

func (b *Backend) UpdateReceivable(ctx context.Context, r core.Receivable) (core.Receivable, error) {
	if err := b.hydrate(ctx); err != nil {
		return core.Receivable{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i := range b.receivables {
		if b.receivables[i].ID == r.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.Receivable{}, fmt.Errorf("%w: receivable %s", core.ErrNotFound, r.ID)
	}

	prev := b.receivables[idx]
	b.receivables[idx] = r
	if err := b.saveReceivables(ctx); err != nil {
		b.receivables[idx] = prev
		return core.Receivable{}, err
	}
	return r, nil
}

func (b *Backend) RecordPayment(ctx context.Context, id string, amount int64) (core.Receivable, error) {
	if err := b.hydrate(ctx); err != nil {
		return core.Receivable{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i := range b.receivables {
		if b.receivables[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.Receivable{}, fmt.Errorf("%w: receivable %s", core.ErrNotFound, id)
	}

	prev := b.receivables[idx]
	r := prev
	paid := r.Paid.Units + amount
	if paid > r.Total.Units {
		paid = r.Total.Units
	}
	r.Paid = core.Money{Units: paid}
	b.receivables[idx] = r
	if err := b.saveReceivables(ctx); err != nil {
		b.receivables[idx] = prev
		return core.Receivable{}, err
	}
	return r, nil
}

func (b *Backend) DeleteReceivable(ctx context.Context, id string) error {
	if err := b.hydrate(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i := range b.receivables {
		if b.receivables[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	prev := b.receivables[idx]
	b.receivables = append(b.receivables[:idx], b.receivables[idx+1:]...)
	if err := b.saveReceivables(ctx); err != nil {
		b.receivables = append(b.receivables[:idx], append([]core.Receivable{prev}, b.receivables[idx:]...)...)
		return err
	}
	return nil
}

func (b *Backend) InsertRevenue(ctx context.Context, v core.Revenue) (core.Revenue, error) {
	if err := b.hydrate(ctx); err != nil {
		return core.Revenue{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	v.ID = uuid.NewString()
	b.revenues = append(b.revenues, v)
	if err := b.saveRevenues(ctx); err != nil {
		b.revenues = b.revenues[:len(b.revenues)-1]
		return core.Revenue{}, err
	}
	return v, nil
}

func (b *Backend) UpdateRevenue(ctx context.Context, v core.Revenue) (core.Revenue, error) {
	if err := b.hydrate(ctx); err != nil {
		return core.Revenue{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i := range b.revenues {
		if b.revenues[i].ID == v.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.Revenue{}, fmt.Errorf("%w: revenue %s", core.ErrNotFound, v.ID)
	}

	prev := b.revenues[idx]
	b.revenues[idx] = v
	if err := b.saveRevenues(ctx); err != nil {
		b.revenues[idx] = prev
		return core.Revenue{}, err
	}
	return v, nil
}

func (b *Backend) DeleteRevenue(ctx context.Context, id string) error {
	if err := b.hydrate(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i := range b.revenues {
		if b.revenues[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	prev := b.revenues[idx]
	b.revenues = append(b.revenues[:idx], b.revenues[idx+1:]...)
	if err := b.saveRevenues(ctx); err != nil {
		b.revenues = append(b.revenues[:idx], append([]core.Revenue{prev}, b.revenues[idx:]...)...)
		return err
	}
	return nil
}

func (b *Backend) Close() error {
	return b.kv.Close()
}
