package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ardiutama/Piutang/internal/core"
	"github.com/ardiutama/Piutang/internal/store"
)

// ChangeEvent is the wire form of a change notification. Record fields are
// pointers: a nil field was absent from the payload and must be treated as
// unchanged by the receiving store, never as cleared. Events built here
// always carry every field, so a cleared date travels as an empty string
// rather than disappearing from the payload.
type ChangeEvent struct {
	Entity string `json:"entity"`
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Owner  string `json:"owner,omitempty"`

	Description *string `json:"description,omitempty"`
	Total       *int64  `json:"total,omitempty"`
	Paid        *int64  `json:"paid,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Amount      *int64  `json:"amount,omitempty"`
	Date        *string `json:"date,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// EventFromReceivable builds a full-payload event for a confirmed mutation.
func EventFromReceivable(kind store.ChangeKind, r core.Receivable) ChangeEvent {
	e := ChangeEvent{
		Entity:      string(core.KindReceivable),
		Kind:        string(kind),
		ID:          r.ID,
		Description: &r.Description,
		Total:       &r.Total.Units,
		Paid:        &r.Paid.Units,
		Timestamp:   time.Now(),
	}
	// "" when the date is missing, so clearing it propagates too.
	due := r.DueDate.String()
	e.DueDate = &due
	return e
}

// EventFromRevenue builds a full-payload event for a confirmed mutation.
func EventFromRevenue(kind store.ChangeKind, v core.Revenue) ChangeEvent {
	e := ChangeEvent{
		Entity:      string(core.KindRevenue),
		Kind:        string(kind),
		ID:          v.ID,
		Description: &v.Description,
		Amount:      &v.Amount.Units,
		Timestamp:   time.Now(),
	}
	d := v.Date.String()
	e.Date = &d
	return e
}

// DeleteEvent carries only the id of the removed record.
func DeleteEvent(entity core.EntityKind, id string) ChangeEvent {
	return ChangeEvent{
		Entity:    string(entity),
		Kind:      string(store.ChangeDelete),
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToChange converts the wire event into the store's tagged change form.
func (e ChangeEvent) ToChange() (store.Change, error) {
	c := store.Change{
		Entity: core.EntityKind(e.Entity),
		Kind:   store.ChangeKind(e.Kind),
		ID:     e.ID,
	}

	switch c.Entity {
	case core.KindReceivable:
		p := &store.ReceivablePayload{
			Description: e.Description,
			Total:       e.Total,
			Paid:        e.Paid,
		}
		if e.DueDate != nil {
			due, err := core.ParseDate(*e.DueDate)
			if err != nil {
				return store.Change{}, fmt.Errorf("change %s: %w", e.ID, err)
			}
			p.DueDate = &due
		}
		c.Receivable = p
	case core.KindRevenue:
		p := &store.RevenuePayload{
			Description: e.Description,
			Amount:      e.Amount,
		}
		if e.Date != nil {
			d, err := core.ParseDate(*e.Date)
			if err != nil {
				return store.Change{}, fmt.Errorf("change %s: %w", e.ID, err)
			}
			p.Date = &d
		}
		c.Revenue = p
	default:
		return store.Change{}, fmt.Errorf("unknown change entity %q", e.Entity)
	}

	return c, nil
}

// ToJSON converts the event to its wire bytes.
func (e ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON parses wire bytes into an event.
func ChangeEventFromJSON(data []byte) (ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ChangeEvent{}, err
	}
	return e, nil
}
