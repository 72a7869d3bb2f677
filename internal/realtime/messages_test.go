package realtime

import (
	"testing"
	"time"

	"github.com/ardiutama/Piutang/internal/core"
	"github.com/ardiutama/Piutang/internal/store"
)

func TestEventFromReceivableRoundTrip(t *testing.T) {
	r := core.Receivable{
		ID:          "rcv-1",
		Description: "Invoice 9",
		Total:       core.Money{Units: 1200},
		Paid:        core.Money{Units: 300},
		DueDate:     core.NewDate(2024, 7, 15),
	}

	event := EventFromReceivable(store.ChangeUpdate, r)
	body, err := event.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := ChangeEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	change, err := parsed.ToChange()
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if change.Entity != core.KindReceivable || change.Kind != store.ChangeUpdate || change.ID != "rcv-1" {
		t.Fatalf("unexpected change header %+v", change)
	}
	p := change.Receivable
	if p == nil {
		t.Fatalf("receivable payload missing")
	}
	if *p.Description != "Invoice 9" || *p.Total != 1200 || *p.Paid != 300 {
		t.Fatalf("payload fields lost: %+v", p)
	}
	if p.DueDate == nil || p.DueDate.String() != "2024-07-15" {
		t.Fatalf("due date lost: %v", p.DueDate)
	}
}

func TestEventFromRevenueWithoutDate(t *testing.T) {
	v := core.Revenue{ID: "rev-1", Description: "Sale", Amount: core.Money{Units: 50}}

	// Full-payload events always carry the date field; "" marks it as
	// missing so receivers can tell a cleared date from an absent field.
	event := EventFromRevenue(store.ChangeInsert, v)
	if event.Date == nil || *event.Date != "" {
		t.Fatalf("missing date must travel as empty string, got %v", event.Date)
	}

	change, err := event.ToChange()
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if change.Revenue == nil || change.Revenue.Date == nil || !change.Revenue.Date.IsEmpty() {
		t.Fatalf("missing date must arrive as an explicit empty date, got %+v", change.Revenue)
	}
}

func TestClearedDueDatePropagates(t *testing.T) {
	st := store.New(nil)

	seeded := core.Receivable{
		ID:          "rcv-7",
		Description: "Invoice",
		Total:       core.Money{Units: 500},
		DueDate:     core.NewDate(2024, 5, 1),
	}
	insert, err := EventFromReceivable(store.ChangeInsert, seeded).ToChange()
	if err != nil {
		t.Fatalf("convert insert: %v", err)
	}
	if err := st.ApplyExternalChange(insert); err != nil {
		t.Fatalf("apply insert: %v", err)
	}

	// Another session removed the due date.
	cleared := seeded
	cleared.DueDate = core.Date{}
	update, err := EventFromReceivable(store.ChangeUpdate, cleared).ToChange()
	if err != nil {
		t.Fatalf("convert update: %v", err)
	}
	if err := st.ApplyExternalChange(update); err != nil {
		t.Fatalf("apply update: %v", err)
	}

	got := st.Receivables()[0]
	if !got.DueDate.IsEmpty() {
		t.Fatalf("due date survived a clearing update: %s", got.DueDate)
	}
}

func TestSparseUpdatePayloadStaysSparse(t *testing.T) {
	// A backend replicating only changed columns sends a partial payload;
	// absent fields must come through as nil, not zero.
	body := []byte(`{"entity":"receivable","kind":"update","id":"rcv-2","paid":600,"timestamp":"2024-01-01T00:00:00Z"}`)

	event, err := ChangeEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	change, err := event.ToChange()
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	p := change.Receivable
	if p.Paid == nil || *p.Paid != 600 {
		t.Fatalf("present field lost: %+v", p)
	}
	if p.Description != nil || p.Total != nil || p.DueDate != nil {
		t.Fatalf("absent fields materialized: %+v", p)
	}
}

func TestDeleteEvent(t *testing.T) {
	event := DeleteEvent(core.KindRevenue, "rev-9")
	if event.Kind != string(store.ChangeDelete) || event.ID != "rev-9" {
		t.Fatalf("unexpected event %+v", event)
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Fatalf("timestamp should be recent")
	}

	change, err := event.ToChange()
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if change.Kind != store.ChangeDelete || change.Entity != core.KindRevenue {
		t.Fatalf("unexpected change %+v", change)
	}
}

func TestToChangeRejectsUnknownEntity(t *testing.T) {
	event := ChangeEvent{Entity: "ledger", Kind: "insert", ID: "x"}
	if _, err := event.ToChange(); err == nil {
		t.Fatalf("expected error for unknown entity")
	}
}

func TestToChangeRejectsBadDate(t *testing.T) {
	bad := "15/07/2024"
	event := ChangeEvent{Entity: "receivable", Kind: "update", ID: "x", DueDate: &bad}
	if _, err := event.ToChange(); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}
