package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ardiutama/Piutang/internal/core"
	"github.com/ardiutama/Piutang/internal/session"
)

// ownerBackend scopes loads by the session owner in the context, the way
// the remote backend does.
type ownerBackend struct {
	*fakeBackend
	byOwner  map[string][]core.Receivable
	failLoad bool
}

func (b *ownerBackend) LoadReceivables(ctx context.Context) ([]core.Receivable, error) {
	if b.failLoad {
		b.failLoad = false
		return nil, fmt.Errorf("%w: backend unavailable", core.ErrPersistence)
	}
	owner, ok := session.OwnerFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no session", core.ErrPersistence)
	}
	return append([]core.Receivable(nil), b.byOwner[owner]...), nil
}

func newOwnerBackend() *ownerBackend {
	return &ownerBackend{
		fakeBackend: newFakeBackend(),
		byOwner: map[string][]core.Receivable{
			"alice": {{ID: "rcv-a1", Description: "Alice invoice", Total: core.Money{Units: 900}}},
			"bob":   {{ID: "rcv-b1", Description: "Bob invoice", Total: core.Money{Units: 400}}},
		},
	}
}

func TestOwnerProviderRequiresSession(t *testing.T) {
	p := NewOwnerProvider(newOwnerBackend())

	if _, err := p.StoreFor(context.Background()); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected persistence error without a session, got %v", err)
	}
}

func TestOwnerProviderHydratesAndIsolatesOwners(t *testing.T) {
	p := NewOwnerProvider(newOwnerBackend())

	alice, err := p.StoreFor(session.WithOwner(context.Background(), "alice"))
	if err != nil {
		t.Fatalf("alice store: %v", err)
	}
	bob, err := p.StoreFor(session.WithOwner(context.Background(), "bob"))
	if err != nil {
		t.Fatalf("bob store: %v", err)
	}
	if alice == bob {
		t.Fatalf("owners share a store")
	}

	// Durable records are visible from the first request on.
	got := alice.Receivables()
	if len(got) != 1 || got[0].ID != "rcv-a1" {
		t.Fatalf("alice sees %+v, want her durable record", got)
	}
	got = bob.Receivables()
	if len(got) != 1 || got[0].ID != "rcv-b1" {
		t.Fatalf("bob sees %+v, want his durable record", got)
	}

	// The same owner keeps the same store across requests.
	again, err := p.StoreFor(session.WithOwner(context.Background(), "alice"))
	if err != nil {
		t.Fatalf("alice store again: %v", err)
	}
	if again != alice {
		t.Fatalf("repeat request built a fresh store")
	}

	if _, ok := p.Lookup("alice"); !ok {
		t.Fatalf("hydrated owner missing from lookup")
	}
	if _, ok := p.Lookup("carol"); ok {
		t.Fatalf("lookup invented a store for an unseen owner")
	}
}

func TestOwnerProviderRetriesFailedHydration(t *testing.T) {
	backend := newOwnerBackend()
	backend.failLoad = true
	p := NewOwnerProvider(backend)
	ctx := session.WithOwner(context.Background(), "alice")

	if _, err := p.StoreFor(ctx); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected load failure, got %v", err)
	}
	if _, ok := p.Lookup("alice"); ok {
		t.Fatalf("failed hydration must not cache a store")
	}

	st, err := p.StoreFor(ctx)
	if err != nil {
		t.Fatalf("retry after failed load: %v", err)
	}
	if len(st.Receivables()) != 1 {
		t.Fatalf("retry did not hydrate the store")
	}
}
