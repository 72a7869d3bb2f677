// Package store holds the canonical in-memory record lists for the running
// session and mediates every mutation through the persistence backend.
//
// Mutations are confirmation-gated: the backend must acknowledge a change
// before it is applied in memory, so the store never presents unpersisted
// state as durable. Out-of-band change notifications enter through the
// single ApplyExternalChange entry point, which is idempotent under replay
// of the session's own mutations.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ardiutama/Piutang/internal/core"
)

// opMu serializes whole mutations, including the backend round trip, so
// two in-flight writes cannot both start from the same stale snapshot.
// mu guards the lists alone and is never held across a backend call.
type Store struct {
	opMu        sync.Mutex
	mu          sync.Mutex
	backend     Backend
	receivables []core.Receivable
	revenues    []core.Revenue
	subs        []func()
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Subscribe registers fn to run after every applied change. Registration
// is expected at wiring time, before concurrent use.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := append([]func(){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Load hydrates both lists from the backend, replacing current contents.
func (s *Store) Load(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	receivables, err := s.backend.LoadReceivables(ctx)
	if err != nil {
		return fmt.Errorf("load receivables: %w", err)
	}
	revenues, err := s.backend.LoadRevenues(ctx)
	if err != nil {
		return fmt.Errorf("load revenues: %w", err)
	}

	s.mu.Lock()
	s.receivables = receivables
	s.revenues = revenues
	s.mu.Unlock()
	s.notify()

	slog.InfoContext(ctx, "Store hydrated",
		"receivables", len(receivables),
		"revenues", len(revenues))
	return nil
}

// Receivables returns a copy of the current receivable list in store order.
func (s *Store) Receivables() []core.Receivable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Receivable(nil), s.receivables...)
}

// Revenues returns a copy of the current revenue list in store order.
func (s *Store) Revenues() []core.Revenue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Revenue(nil), s.revenues...)
}

// AddReceivable creates a receivable with zero paid amount. The backend
// assigns the identifier.
func (s *Store) AddReceivable(ctx context.Context, description string, total core.Money, dueDate core.Date) (core.Receivable, error) {
	candidate := core.Receivable{
		Description: description,
		Total:       total,
		DueDate:     dueDate,
	}
	if err := candidate.Validate(); err != nil {
		return core.Receivable{}, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	confirmed, err := s.backend.InsertReceivable(ctx, candidate)
	if err != nil {
		return core.Receivable{}, fmt.Errorf("insert receivable: %w", err)
	}

	s.mu.Lock()
	s.receivables = append(s.receivables, confirmed)
	s.mu.Unlock()
	s.notify()
	return confirmed, nil
}

// AddRevenue creates a revenue entry. The backend assigns the identifier.
func (s *Store) AddRevenue(ctx context.Context, description string, amount core.Money, date core.Date) (core.Revenue, error) {
	candidate := core.Revenue{
		Description: description,
		Amount:      amount,
		Date:        date,
	}
	if err := candidate.Validate(); err != nil {
		return core.Revenue{}, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	confirmed, err := s.backend.InsertRevenue(ctx, candidate)
	if err != nil {
		return core.Revenue{}, fmt.Errorf("insert revenue: %w", err)
	}

	s.mu.Lock()
	s.revenues = append(s.revenues, confirmed)
	s.mu.Unlock()
	s.notify()
	return confirmed, nil
}

// RecordPayment adds amount to the receivable's paid total. The backend
// applies the increment against the durable record and clamps it to the
// total, so the confirmed paid amount never depends on a stale in-memory
// snapshot. Negative payments are rejected.
func (s *Store) RecordPayment(ctx context.Context, id string, amount core.Money) (core.Receivable, error) {
	if amount.Units < 0 {
		return core.Receivable{}, core.ErrNegativePayment
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, err := s.findReceivable(id); err != nil {
		return core.Receivable{}, err
	}

	confirmed, err := s.backend.RecordPayment(ctx, id, amount.Units)
	if err != nil {
		return core.Receivable{}, fmt.Errorf("record payment: %w", err)
	}

	s.replaceReceivable(confirmed)
	return confirmed, nil
}

// UpdateReceivable replaces the mutable fields of a receivable, leaving
// the paid amount untouched.
func (s *Store) UpdateReceivable(ctx context.Context, id, description string, total core.Money, dueDate core.Date) (core.Receivable, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	existing, err := s.findReceivable(id)
	if err != nil {
		return core.Receivable{}, err
	}

	candidate := existing
	candidate.Description = description
	candidate.Total = total
	candidate.DueDate = dueDate
	if err := candidate.Validate(); err != nil {
		return core.Receivable{}, err
	}
	if candidate.Total.Units < candidate.Paid.Units {
		return core.Receivable{}, fmt.Errorf("%w: total below amount already paid", core.ErrValidation)
	}

	confirmed, err := s.backend.UpdateReceivable(ctx, candidate)
	if err != nil {
		return core.Receivable{}, fmt.Errorf("update receivable: %w", err)
	}

	s.replaceReceivable(confirmed)
	return confirmed, nil
}

// UpdateRevenue replaces the mutable fields of a revenue entry.
func (s *Store) UpdateRevenue(ctx context.Context, id, description string, amount core.Money, date core.Date) (core.Revenue, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	existing, err := s.findRevenue(id)
	if err != nil {
		return core.Revenue{}, err
	}

	candidate := existing
	candidate.Description = description
	candidate.Amount = amount
	candidate.Date = date
	if err := candidate.Validate(); err != nil {
		return core.Revenue{}, err
	}

	confirmed, err := s.backend.UpdateRevenue(ctx, candidate)
	if err != nil {
		return core.Revenue{}, fmt.Errorf("update revenue: %w", err)
	}

	s.replaceRevenue(confirmed)
	return confirmed, nil
}

// DeleteReceivable removes a receivable. Deleting an absent id is not an
// error for the caller.
func (s *Store) DeleteReceivable(ctx context.Context, id string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.backend.DeleteReceivable(ctx, id); err != nil {
		return fmt.Errorf("delete receivable: %w", err)
	}

	s.mu.Lock()
	removed := false
	for i, r := range s.receivables {
		if r.ID == id {
			s.receivables = append(s.receivables[:i], s.receivables[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify()
	}
	return nil
}

// DeleteRevenue removes a revenue entry, idempotently.
func (s *Store) DeleteRevenue(ctx context.Context, id string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.backend.DeleteRevenue(ctx, id); err != nil {
		return fmt.Errorf("delete revenue: %w", err)
	}

	s.mu.Lock()
	removed := false
	for i, v := range s.revenues {
		if v.ID == id {
			s.revenues = append(s.revenues[:i], s.revenues[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify()
	}
	return nil
}

// ApplyExternalChange merges an out-of-band notification into the store.
// It never calls the backend: the originating session already persisted
// the change. Inserts for known ids are suppressed (replay of this
// session's own mutation), updates merge only the fields present in the
// payload, deletes of absent ids are no-ops.
func (s *Store) ApplyExternalChange(c Change) error {
	if err := c.validate(); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	changed := false
	switch c.Entity {
	case core.KindReceivable:
		changed = s.applyReceivableChange(c)
	case core.KindRevenue:
		changed = s.applyRevenueChange(c)
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return nil
}

// applyReceivableChange runs with s.mu held.
func (s *Store) applyReceivableChange(c Change) bool {
	idx := -1
	for i, r := range s.receivables {
		if r.ID == c.ID {
			idx = i
			break
		}
	}

	switch c.Kind {
	case ChangeInsert:
		if idx >= 0 {
			return false
		}
		s.receivables = append(s.receivables, c.Receivable.materialize(c.ID))
		return true
	case ChangeUpdate:
		if idx < 0 {
			// A foreign update for a record this session never saw;
			// converge by materializing it.
			s.receivables = append(s.receivables, c.Receivable.materialize(c.ID))
			return true
		}
		s.receivables[idx] = c.Receivable.merge(s.receivables[idx])
		return true
	case ChangeDelete:
		if idx < 0 {
			return false
		}
		s.receivables = append(s.receivables[:idx], s.receivables[idx+1:]...)
		return true
	}
	return false
}

// applyRevenueChange runs with s.mu held.
func (s *Store) applyRevenueChange(c Change) bool {
	idx := -1
	for i, v := range s.revenues {
		if v.ID == c.ID {
			idx = i
			break
		}
	}

	switch c.Kind {
	case ChangeInsert:
		if idx >= 0 {
			return false
		}
		s.revenues = append(s.revenues, c.Revenue.materialize(c.ID))
		return true
	case ChangeUpdate:
		if idx < 0 {
			s.revenues = append(s.revenues, c.Revenue.materialize(c.ID))
			return true
		}
		s.revenues[idx] = c.Revenue.merge(s.revenues[idx])
		return true
	case ChangeDelete:
		if idx < 0 {
			return false
		}
		s.revenues = append(s.revenues[:idx], s.revenues[idx+1:]...)
		return true
	}
	return false
}

func (s *Store) findReceivable(id string) (core.Receivable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.receivables {
		if r.ID == id {
			return r, nil
		}
	}
	return core.Receivable{}, fmt.Errorf("%w: receivable %s", core.ErrNotFound, id)
}

func (s *Store) findRevenue(id string) (core.Revenue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.revenues {
		if v.ID == id {
			return v, nil
		}
	}
	return core.Revenue{}, fmt.Errorf("%w: revenue %s", core.ErrNotFound, id)
}

func (s *Store) replaceReceivable(r core.Receivable) {
	s.mu.Lock()
	for i := range s.receivables {
		if s.receivables[i].ID == r.ID {
			s.receivables[i] = r
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) replaceRevenue(v core.Revenue) {
	s.mu.Lock()
	for i := range s.revenues {
		if s.revenues[i].ID == v.ID {
			s.revenues[i] = v
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}
