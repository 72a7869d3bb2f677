package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in       string
		want     int64
		ok       bool
		negative bool
	}{
		{in: "1000", want: 1000, ok: true},
		{in: " 1000 ", want: 1000, ok: true},
		{in: "1000.4", want: 1000, ok: true},
		{in: "1000.5", want: 1001, ok: true},
		{in: "1000,5", want: 1001, ok: true},
		{in: "0", want: 0, ok: true},
		{in: "-5", negative: true},
		{in: ""},
		{in: "abc"},
		{in: "1.2.3"},
	}
	for i, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("case %d (%q) expected ok, got %v", i, tc.in, err)
			}
			if got.Units != tc.want {
				t.Fatalf("case %d (%q) = %d, want %d", i, tc.in, got.Units, tc.want)
			}
			continue
		}
		if err == nil {
			t.Fatalf("case %d (%q) expected error", i, tc.in)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d (%q) expected validation error, got %v", i, tc.in, err)
		}
		// Only genuinely negative input may carry the negative-amount
		// sentinel; unparseable or empty input must not.
		if got := errors.Is(err, ErrNegativeAmount); got != tc.negative {
			t.Fatalf("case %d (%q): negative-amount sentinel = %v, want %v (err %v)", i, tc.in, got, tc.negative, err)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		units int64
		want  string
	}{
		{0, "Rp 0"},
		{5, "Rp 5"},
		{1500, "Rp 1.500"},
		{1234567, "Rp 1.234.567"},
		{-800, "-Rp 800"},
	}
	for i, tc := range cases {
		if got := (Money{Units: tc.units}).Format(); got != tc.want {
			t.Fatalf("case %d: Format(%d) = %q, want %q", i, tc.units, got, tc.want)
		}
	}
}
