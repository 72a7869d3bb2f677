package store

import (
	"fmt"

	"github.com/ardiutama/Piutang/internal/core"
)

// ChangeKind classifies an out-of-band change notification.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

func (k ChangeKind) IsValid() bool {
	switch k {
	case ChangeInsert, ChangeUpdate, ChangeDelete:
		return true
	}
	return false
}

// ReceivablePayload carries the fields of a receivable change. Nil fields
// were absent from the wire payload; on update they are treated as
// unchanged rather than cleared.
type ReceivablePayload struct {
	Description *string
	Total       *int64
	Paid        *int64
	DueDate     *core.Date
}

// RevenuePayload carries the fields of a revenue change, nils meaning
// absent, same as ReceivablePayload.
type RevenuePayload struct {
	Description *string
	Amount      *int64
	Date        *core.Date
}

// Change is a tagged external change notification. Exactly one of
// Receivable/Revenue is set, matching Entity; deletes carry only the ID.
type Change struct {
	Entity core.EntityKind
	Kind   ChangeKind
	ID     string

	Receivable *ReceivablePayload
	Revenue    *RevenuePayload
}

func (c Change) validate() error {
	if !c.Entity.IsValid() {
		return fmt.Errorf("unknown change entity %q", c.Entity)
	}
	if !c.Kind.IsValid() {
		return fmt.Errorf("unknown change kind %q", c.Kind)
	}
	if c.ID == "" {
		return fmt.Errorf("change without record id")
	}
	return nil
}

// materializeReceivable builds a full record from a payload, absent fields
// defaulting to their zero values.
func (p *ReceivablePayload) materialize(id string) core.Receivable {
	r := core.Receivable{ID: id}
	if p == nil {
		return r
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Total != nil {
		r.Total = core.Money{Units: *p.Total}
	}
	if p.Paid != nil {
		r.Paid = core.Money{Units: *p.Paid}
	}
	if p.DueDate != nil {
		r.DueDate = *p.DueDate
	}
	return r
}

// merge applies the present fields onto an existing record.
func (p *ReceivablePayload) merge(r core.Receivable) core.Receivable {
	if p == nil {
		return r
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Total != nil {
		r.Total = core.Money{Units: *p.Total}
	}
	if p.Paid != nil {
		r.Paid = core.Money{Units: *p.Paid}
	}
	if p.DueDate != nil {
		r.DueDate = *p.DueDate
	}
	return r
}

func (p *RevenuePayload) materialize(id string) core.Revenue {
	v := core.Revenue{ID: id}
	if p == nil {
		return v
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.Amount != nil {
		v.Amount = core.Money{Units: *p.Amount}
	}
	if p.Date != nil {
		v.Date = *p.Date
	}
	return v
}

func (p *RevenuePayload) merge(v core.Revenue) core.Revenue {
	if p == nil {
		return v
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.Amount != nil {
		v.Amount = core.Money{Units: *p.Amount}
	}
	if p.Date != nil {
		v.Date = *p.Date
	}
	return v
}
