package core

import (
	"errors"
	"strings"
	"testing"
)

func TestReceivableValidate(t *testing.T) {
	good := Receivable{
		Description: "Invoice 42",
		Total:       Money{Units: 1000},
		Paid:        Money{Units: 0},
		DueDate:     NewDate(2024, 6, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// Missing due date is valid.
	good.DueDate = Date{}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok without due date, got %v", err)
	}

	bads := []Receivable{
		{Description: "", Total: Money{Units: 10}},
		{Description: "   ", Total: Money{Units: 10}},
		{Description: "x", Total: Money{Units: -5}},
		{Description: "x", Total: Money{Units: 10}, Paid: Money{Units: -1}},
		{Description: strings.Repeat("a", 201), Total: Money{Units: 10}},
	}
	for i, r := range bads {
		err := r.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestRevenueValidate(t *testing.T) {
	good := Revenue{Description: "Consulting", Amount: Money{Units: 500}, Date: NewDate(2024, 1, 15)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := Revenue{Description: "Consulting", Amount: Money{Units: -1}}
	if err := bad.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReceivableRemaining(t *testing.T) {
	cases := []struct {
		total, paid int64
		remaining   int64
		paidFlag    bool
	}{
		{1000, 0, 1000, false},
		{1000, 400, 600, false},
		{1000, 1000, 0, true},
		{0, 0, 0, true},
	}
	for i, tc := range cases {
		r := Receivable{Total: Money{Units: tc.total}, Paid: Money{Units: tc.paid}}
		if got := r.Remaining().Units; got != tc.remaining {
			t.Fatalf("case %d remaining = %d, want %d", i, got, tc.remaining)
		}
		if got := r.IsPaid(); got != tc.paidFlag {
			t.Fatalf("case %d isPaid = %v, want %v", i, got, tc.paidFlag)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2024 || int(d.Month()) != 3 || d.Day() != 1 {
		t.Fatalf("unexpected date %v", d)
	}

	empty, err := ParseDate("  ")
	if err != nil {
		t.Fatalf("blank should parse as missing, got %v", err)
	}
	if !empty.IsEmpty() {
		t.Fatalf("expected missing date")
	}

	if _, err := ParseDate("01/03/2024"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
