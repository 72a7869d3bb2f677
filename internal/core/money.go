// Package core provides the receivable/revenue domain model and the pure
// projection functions that derive table ordering and summary totals.
//
// This file handles money parsing and display formatting. Amounts are
// whole-unit currency; decimal input is accepted but rounded half-up to
// the nearest unit before it enters the domain.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every formatted amount.
const CurrencySymbol = "Rp"

// ParseAmount converts a user-supplied amount string to Money.
//
// Both dot and comma decimal separators are accepted. Fractional units are
// rounded half-up. Negative amounts are rejected with ErrNegativeAmount;
// anything unparseable with ErrValidation.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty amount", ErrValidation)
	}
	// Normalize decimal comma; grouping characters are not accepted on input.
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	units := d.Round(0).IntPart()
	return Money{Units: units}, nil
}

// Format renders the amount with the currency symbol and thousands
// grouping, e.g. "Rp 1.234.567". No decimal places are ever shown.
func (m Money) Format() string {
	neg := m.Units < 0
	u := m.Units
	if neg {
		u = -u
	}
	s := groupDigits(u)
	if neg {
		return "-" + CurrencySymbol + " " + s
	}
	return CurrencySymbol + " " + s
}

func groupDigits(u int64) string {
	digits := []byte{}
	if u == 0 {
		return "0"
	}
	for u > 0 {
		digits = append(digits, byte('0'+u%10))
		u /= 10
	}
	var b strings.Builder
	for i := len(digits) - 1; i >= 0; i-- {
		b.WriteByte(digits[i])
		if i > 0 && i%3 == 0 {
			b.WriteByte('.')
		}
	}
	return b.String()
}
