package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/ardiutama/Piutang/internal/core"
	"github.com/ardiutama/Piutang/internal/session"
)

// Provider hands out the record store serving a request. The local
// variant has a single store; the remote variant keeps one per session
// owner so owners never see each other's records.
type Provider interface {
	StoreFor(ctx context.Context) (*Store, error)
}

// SingleProvider serves one shared store. Used by the local variant,
// which has no sessions.
type SingleProvider struct {
	st *Store
}

func NewSingleProvider(st *Store) *SingleProvider {
	return &SingleProvider{st: st}
}

func (p *SingleProvider) StoreFor(context.Context) (*Store, error) {
	return p.st, nil
}

// OwnerProvider keys stores by session owner. Each owner's store is
// hydrated from the backend on their first request, with the request
// context carrying the owner so the backend scopes the load.
type OwnerProvider struct {
	backend Backend

	mu     sync.Mutex
	stores map[string]*Store
}

func NewOwnerProvider(backend Backend) *OwnerProvider {
	return &OwnerProvider{
		backend: backend,
		stores:  make(map[string]*Store),
	}
}

// StoreFor returns the owner's store, hydrating it first if this is the
// owner's first request since startup. A hydration failure is returned
// and nothing is cached, so the next request retries the load.
func (p *OwnerProvider) StoreFor(ctx context.Context) (*Store, error) {
	owner, ok := session.OwnerFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no session", core.ErrPersistence)
	}

	// Hydration runs under the lock so two concurrent first requests
	// from one owner cannot each build a store.
	p.mu.Lock()
	defer p.mu.Unlock()

	if st, ok := p.stores[owner]; ok {
		return st, nil
	}

	st := New(p.backend)
	if err := st.Load(ctx); err != nil {
		return nil, fmt.Errorf("hydrate store for owner: %w", err)
	}
	p.stores[owner] = st
	return st, nil
}

// Lookup returns the owner's store only if it is already hydrated.
// Change-feed consumers use it to route events without creating stores
// for owners that have no session here.
func (p *OwnerProvider) Lookup(owner string) (*Store, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.stores[owner]
	return st, ok
}
