package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// Date is a calendar date. The zero value means "no date set";
	// receivables may legitimately have no due date.
	Date struct {
		time.Time
	}

	// Money is a whole-unit currency amount. Amounts carry no fractional
	// part: sub-unit input is rounded away at the parsing boundary.
	Money struct {
		Units int64
	}

	// Receivable is an amount owed by a customer with partial-payment
	// progress toward its total.
	Receivable struct {
		ID          string
		Description string
		Total       Money
		Paid        Money
		DueDate     Date
	}

	// Revenue is a recorded income entry, fully realized at creation.
	Revenue struct {
		ID          string
		Description string
		Amount      Money
		Date        Date
	}
)

// EntityKind tags which ledger a record or change event belongs to.
type EntityKind string

const (
	KindReceivable EntityKind = "receivable"
	KindRevenue    EntityKind = "revenue"
)

func (k EntityKind) IsValid() bool {
	return k == KindReceivable || k == KindRevenue
}

// Error taxonomy. Operation-specific errors wrap one of the three
// sentinels so callers can classify with errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("record not found")
	ErrPersistence = errors.New("persistence failed")

	ErrNegativeAmount   = fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	ErrNegativePayment  = fmt.Errorf("%w: payment cannot be negative", ErrValidation)
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrValidation)
)

const maxDescriptionLen = 200

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. An empty string is a missing date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return Date{Time: t}, nil
}

// IsEmpty reports whether the date is missing.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String renders the date as YYYY-MM-DD, or "" when missing.
func (d Date) String() string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Units < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (m Money) Add(other Money) Money {
	return Money{Units: m.Units + other.Units}
}

func (m Money) Sub(other Money) Money {
	return Money{Units: m.Units - other.Units}
}

// Remaining is the unpaid balance of the receivable.
func (r Receivable) Remaining() Money {
	return r.Total.Sub(r.Paid)
}

// IsPaid reports whether nothing remains to be collected.
func (r Receivable) IsPaid() bool {
	return r.Remaining().Units <= 0
}

func (r Receivable) Validate() error {
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(r.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, maxDescriptionLen)
	}
	if err := r.Total.Validate(); err != nil {
		return err
	}
	return r.Paid.Validate()
}

func (v Revenue) Validate() error {
	if len(strings.TrimSpace(v.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(v.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, maxDescriptionLen)
	}
	return v.Amount.Validate()
}
