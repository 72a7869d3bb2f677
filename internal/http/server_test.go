package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ardiutama/Piutang/internal/core"
	applog "github.com/ardiutama/Piutang/internal/log"
	"github.com/ardiutama/Piutang/internal/session"
	"github.com/ardiutama/Piutang/internal/store"
)

// memBackend is an in-memory store.Backend for handler tests.
type memBackend struct {
	receivables []core.Receivable
	revenues    []core.Revenue
	nextID      int
}

func (b *memBackend) id() string {
	b.nextID++
	return fmt.Sprintf("mem-%d", b.nextID)
}

func (b *memBackend) LoadReceivables(ctx context.Context) ([]core.Receivable, error) {
	return append([]core.Receivable(nil), b.receivables...), nil
}

func (b *memBackend) LoadRevenues(ctx context.Context) ([]core.Revenue, error) {
	return append([]core.Revenue(nil), b.revenues...), nil
}

func (b *memBackend) InsertReceivable(ctx context.Context, r core.Receivable) (core.Receivable, error) {
	r.ID = b.id()
	b.receivables = append(b.receivables, r)
	return r, nil
}

func (b *memBackend) UpdateReceivable(ctx context.Context, r core.Receivable) (core.Receivable, error) {
	for i := range b.receivables {
		if b.receivables[i].ID == r.ID {
			b.receivables[i] = r
			return r, nil
		}
	}
	return core.Receivable{}, core.ErrNotFound
}

func (b *memBackend) RecordPayment(ctx context.Context, id string, amount int64) (core.Receivable, error) {
	for i := range b.receivables {
		if b.receivables[i].ID == id {
			r := b.receivables[i]
			paid := r.Paid.Units + amount
			if paid > r.Total.Units {
				paid = r.Total.Units
			}
			r.Paid = core.Money{Units: paid}
			b.receivables[i] = r
			return r, nil
		}
	}
	return core.Receivable{}, core.ErrNotFound
}

func (b *memBackend) DeleteReceivable(ctx context.Context, id string) error {
	for i := range b.receivables {
		if b.receivables[i].ID == id {
			b.receivables = append(b.receivables[:i], b.receivables[i+1:]...)
			return nil
		}
	}
	return nil
}

func (b *memBackend) InsertRevenue(ctx context.Context, v core.Revenue) (core.Revenue, error) {
	v.ID = b.id()
	b.revenues = append(b.revenues, v)
	return v, nil
}

func (b *memBackend) UpdateRevenue(ctx context.Context, v core.Revenue) (core.Revenue, error) {
	for i := range b.revenues {
		if b.revenues[i].ID == v.ID {
			b.revenues[i] = v
			return v, nil
		}
	}
	return core.Revenue{}, core.ErrNotFound
}

func (b *memBackend) DeleteRevenue(ctx context.Context, id string) error {
	for i := range b.revenues {
		if b.revenues[i].ID == id {
			b.revenues = append(b.revenues[:i], b.revenues[i+1:]...)
			return nil
		}
	}
	return nil
}

func (b *memBackend) Close() error { return nil }

func newTestServer(t *testing.T, backend *memBackend) (*Server, *store.Store) {
	t.Helper()
	st := store.New(backend)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("load store: %v", err)
	}
	logger := applog.New(applog.DefaultConfig())
	srv := NewServer(":0", store.NewSingleProvider(st), logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, st
}

func postForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, &memBackend{})

	rr := get(t, srv, "/")
	if rr.Code != 200 {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Piutang") {
		t.Fatalf("index body missing heading")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := get(t, srv, path)
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestCreateReceivableValidationAndSuccess(t *testing.T) {
	srv, st := newTestServer(t, &memBackend{})

	// Wrong method
	rr := get(t, srv, "/receivables")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	// Invalid amount
	rr = postForm(t, srv, "/receivables", url.Values{
		"description": {"invoice"},
		"total":       {"abc"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	// Missing description
	rr = postForm(t, srv, "/receivables", url.Values{
		"description": {""},
		"total":       {"1000"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	// Success
	rr = postForm(t, srv, "/receivables", url.Values{
		"description": {"invoice 12"},
		"total":       {"1000"},
		"due_date":    {"2026-03-10"},
	})
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "success") {
		t.Fatalf("expected success in body: %s", rr.Body.String())
	}
	if rr.Header().Get("HX-Trigger") == "" {
		t.Fatalf("expected HX-Trigger header on mutation")
	}
	if got := st.Receivables(); len(got) != 1 || got[0].Description != "invoice 12" {
		t.Fatalf("store state = %+v", got)
	}
}

func TestRecordPaymentFlow(t *testing.T) {
	srv, st := newTestServer(t, &memBackend{})

	rec, err := st.AddReceivable(context.Background(), "invoice", core.Money{Units: 1000}, core.Date{})
	if err != nil {
		t.Fatalf("seed receivable: %v", err)
	}

	// Overpayment clamps to the total
	rr := postForm(t, srv, "/receivables/pay", url.Values{
		"id":     {rec.ID},
		"amount": {"10000"},
	})
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	got := st.Receivables()
	if len(got) != 1 || got[0].Paid.Units != 1000 {
		t.Fatalf("paid = %+v", got)
	}

	// Unknown id maps to 404
	rr = postForm(t, srv, "/receivables/pay", url.Values{
		"id":     {"missing"},
		"amount": {"10"},
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	// Negative payment maps to 422
	rr = postForm(t, srv, "/receivables/pay", url.Values{
		"id":     {rec.ID},
		"amount": {"-5"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestUpdateReceivableKeepsPaid(t *testing.T) {
	srv, st := newTestServer(t, &memBackend{})

	rec, err := st.AddReceivable(context.Background(), "invoice", core.Money{Units: 1000}, core.Date{})
	if err != nil {
		t.Fatalf("seed receivable: %v", err)
	}
	if _, err := st.RecordPayment(context.Background(), rec.ID, core.Money{Units: 300}); err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	rr := postForm(t, srv, "/receivables/update", url.Values{
		"id":          {rec.ID},
		"description": {"invoice revised"},
		"total":       {"1200"},
		"due_date":    {"2026-04-01"},
	})
	if rr.Code != 200 {
		t.Fatalf("update status=%d: %s", rr.Code, rr.Body.String())
	}
	got := st.Receivables()
	if len(got) != 1 || got[0].Description != "invoice revised" || got[0].Total.Units != 1200 {
		t.Fatalf("store state = %+v", got)
	}
	if got[0].Paid.Units != 300 {
		t.Fatalf("paid changed to %d", got[0].Paid.Units)
	}

	// Lowering the total below the paid amount maps to 422
	rr = postForm(t, srv, "/receivables/update", url.Values{
		"id":          {rec.ID},
		"description": {"invoice revised"},
		"total":       {"100"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestDeleteReceivableIsIdempotent(t *testing.T) {
	srv, st := newTestServer(t, &memBackend{})

	rec, err := st.AddReceivable(context.Background(), "invoice", core.Money{Units: 500}, core.Date{})
	if err != nil {
		t.Fatalf("seed receivable: %v", err)
	}

	for i := 0; i < 2; i++ {
		rr := postForm(t, srv, "/receivables/delete", url.Values{"id": {rec.ID}})
		if rr.Code != 200 {
			t.Fatalf("delete #%d status=%d", i+1, rr.Code)
		}
	}
	if got := st.Receivables(); len(got) != 0 {
		t.Fatalf("store state = %+v", got)
	}
}

func TestReceivablesTablePartial(t *testing.T) {
	srv, st := newTestServer(t, &memBackend{})

	if _, err := st.AddReceivable(context.Background(), "first invoice", core.Money{Units: 1000}, core.Date{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rr := get(t, srv, "/ui/receivables")
	if rr.Code != 200 {
		t.Fatalf("partial status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "first invoice") {
		t.Fatalf("partial missing record: %s", body)
	}
	if !strings.Contains(body, "Rp 1.000") {
		t.Fatalf("partial missing formatted amount: %s", body)
	}
}

func TestSummaryPartialRefreshesAfterExternalChange(t *testing.T) {
	srv, st := newTestServer(t, &memBackend{})

	rr := get(t, srv, "/ui/summary")
	if rr.Code != 200 || !strings.Contains(rr.Body.String(), "Rp 0") {
		t.Fatalf("initial summary: %d %s", rr.Code, rr.Body.String())
	}

	total := int64(750)
	err := st.ApplyExternalChange(store.Change{
		Entity: core.KindReceivable,
		Kind:   store.ChangeInsert,
		ID:     "ext-1",
		Receivable: &store.ReceivablePayload{
			Description: strPtr("external invoice"),
			Total:       &total,
		},
	})
	if err != nil {
		t.Fatalf("apply external change: %v", err)
	}

	rr = get(t, srv, "/ui/summary")
	if !strings.Contains(rr.Body.String(), "Rp 750") {
		t.Fatalf("summary not refreshed: %s", rr.Body.String())
	}
}

func TestCreateRevenueAndTable(t *testing.T) {
	srv, st := newTestServer(t, &memBackend{})

	rr := postForm(t, srv, "/revenues", url.Values{
		"description": {"consulting"},
		"amount":      {"700"},
		"date":        {"2026-02-01"},
	})
	if rr.Code != 200 {
		t.Fatalf("create revenue status=%d: %s", rr.Code, rr.Body.String())
	}
	if got := st.Revenues(); len(got) != 1 || got[0].Amount.Units != 700 {
		t.Fatalf("store state = %+v", got)
	}

	rr = get(t, srv, "/ui/revenues")
	if !strings.Contains(rr.Body.String(), "consulting") {
		t.Fatalf("revenues partial: %s", rr.Body.String())
	}
}

func TestExportDownload(t *testing.T) {
	srv, st := newTestServer(t, &memBackend{})

	if _, err := st.AddRevenue(context.Background(), "consulting", core.Money{Units: 700}, core.Date{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rr := get(t, srv, "/export")
	if rr.Code != 200 {
		t.Fatalf("export status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("content type = %s", ct)
	}
	if rr.Body.Len() == 0 {
		t.Fatalf("empty export body")
	}
}

// ownersBackend serves a separate record set per session owner, the way
// the remote backend scopes its queries.
type ownersBackend struct {
	byOwner map[string]*memBackend
}

func (b *ownersBackend) forOwner(ctx context.Context) (*memBackend, error) {
	owner, ok := session.OwnerFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no session", core.ErrPersistence)
	}
	m, ok := b.byOwner[owner]
	if !ok {
		m = &memBackend{}
		b.byOwner[owner] = m
	}
	return m, nil
}

func (b *ownersBackend) LoadReceivables(ctx context.Context) ([]core.Receivable, error) {
	m, err := b.forOwner(ctx)
	if err != nil {
		return nil, err
	}
	return m.LoadReceivables(ctx)
}

func (b *ownersBackend) LoadRevenues(ctx context.Context) ([]core.Revenue, error) {
	m, err := b.forOwner(ctx)
	if err != nil {
		return nil, err
	}
	return m.LoadRevenues(ctx)
}

func (b *ownersBackend) InsertReceivable(ctx context.Context, r core.Receivable) (core.Receivable, error) {
	m, err := b.forOwner(ctx)
	if err != nil {
		return core.Receivable{}, err
	}
	return m.InsertReceivable(ctx, r)
}

func (b *ownersBackend) UpdateReceivable(ctx context.Context, r core.Receivable) (core.Receivable, error) {
	m, err := b.forOwner(ctx)
	if err != nil {
		return core.Receivable{}, err
	}
	return m.UpdateReceivable(ctx, r)
}

func (b *ownersBackend) RecordPayment(ctx context.Context, id string, amount int64) (core.Receivable, error) {
	m, err := b.forOwner(ctx)
	if err != nil {
		return core.Receivable{}, err
	}
	return m.RecordPayment(ctx, id, amount)
}

func (b *ownersBackend) DeleteReceivable(ctx context.Context, id string) error {
	m, err := b.forOwner(ctx)
	if err != nil {
		return err
	}
	return m.DeleteReceivable(ctx, id)
}

func (b *ownersBackend) InsertRevenue(ctx context.Context, v core.Revenue) (core.Revenue, error) {
	m, err := b.forOwner(ctx)
	if err != nil {
		return core.Revenue{}, err
	}
	return m.InsertRevenue(ctx, v)
}

func (b *ownersBackend) UpdateRevenue(ctx context.Context, v core.Revenue) (core.Revenue, error) {
	m, err := b.forOwner(ctx)
	if err != nil {
		return core.Revenue{}, err
	}
	return m.UpdateRevenue(ctx, v)
}

func (b *ownersBackend) DeleteRevenue(ctx context.Context, id string) error {
	m, err := b.forOwner(ctx)
	if err != nil {
		return err
	}
	return m.DeleteRevenue(ctx, id)
}

func (b *ownersBackend) Close() error { return nil }

func getAs(t *testing.T, srv *Server, owner, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(session.WithOwner(req.Context(), owner))
	srv.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func postFormAs(t *testing.T, srv *Server, owner, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(session.WithOwner(req.Context(), owner))
	srv.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func TestOwnersSeeOnlyTheirRecords(t *testing.T) {
	backend := &ownersBackend{byOwner: map[string]*memBackend{
		"alice": {receivables: []core.Receivable{{ID: "a-1", Description: "alice invoice", Total: core.Money{Units: 1000}}}},
		"bob":   {receivables: []core.Receivable{{ID: "b-1", Description: "bob invoice", Total: core.Money{Units: 400}}}},
	}}
	logger := applog.New(applog.DefaultConfig())
	srv := NewServer(":0", store.NewOwnerProvider(backend), logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	// Each owner sees only their own durable records.
	body := getAs(t, srv, "alice", "/ui/receivables").Body.String()
	if !strings.Contains(body, "alice invoice") {
		t.Fatalf("alice missing her record: %s", body)
	}
	if strings.Contains(body, "bob invoice") {
		t.Fatalf("alice sees bob's record: %s", body)
	}
	body = getAs(t, srv, "bob", "/ui/receivables").Body.String()
	if !strings.Contains(body, "bob invoice") || strings.Contains(body, "alice invoice") {
		t.Fatalf("bob's view wrong: %s", body)
	}

	// A durable record is payable on the owner's first mutation.
	rr := postFormAs(t, srv, "bob", "/receivables/pay", url.Values{
		"id":     {"b-1"},
		"amount": {"150"},
	})
	if rr.Code != 200 {
		t.Fatalf("payment on durable record status=%d: %s", rr.Code, rr.Body.String())
	}
	if got := backend.byOwner["bob"].receivables[0].Paid.Units; got != 150 {
		t.Fatalf("durable paid = %d, want 150", got)
	}

	// Without a session no store is served at all.
	if rr := get(t, srv, "/ui/receivables"); rr.Code != http.StatusInternalServerError {
		t.Fatalf("sessionless request status=%d, want 500", rr.Code)
	}
}

func strPtr(s string) *string { return &s }
