package core

import "sort"

// ReceivableSummary aggregates all receivables regardless of paging.
type ReceivableSummary struct {
	Total     Money
	Remaining Money
}

// RevenueSummary aggregates all revenues.
type RevenueSummary struct {
	Total Money
}

// SortReceivables returns a new slice ordered for display: records with a
// remaining balance come before fully paid ones, each partition ascending
// by due date. Records without a due date sort after dated ones. The sort
// is stable, so equal keys keep their store order.
func SortReceivables(in []Receivable) []Receivable {
	out := append([]Receivable(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsPaid() != b.IsPaid() {
			return !a.IsPaid()
		}
		return dateLess(a.DueDate, b.DueDate)
	})
	return out
}

// SortRevenues returns a new slice ordered newest first. Records without a
// date sort after dated ones. Stable for equal keys.
func SortRevenues(in []Revenue) []Revenue {
	out := append([]Revenue(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date.IsEmpty() != b.Date.IsEmpty() {
			return !a.Date.IsEmpty()
		}
		if a.Date.IsEmpty() {
			return false
		}
		return a.Date.After(b.Date.Time)
	})
	return out
}

// dateLess orders ascending with missing dates last.
func dateLess(a, b Date) bool {
	if a.IsEmpty() != b.IsEmpty() {
		return !a.IsEmpty()
	}
	if a.IsEmpty() {
		return false
	}
	return a.Before(b.Time)
}

func SummarizeReceivables(in []Receivable) ReceivableSummary {
	var s ReceivableSummary
	for _, r := range in {
		s.Total = s.Total.Add(r.Total)
		s.Remaining = s.Remaining.Add(r.Remaining())
	}
	return s
}

func SummarizeRevenues(in []Revenue) RevenueSummary {
	var s RevenueSummary
	for _, v := range in {
		s.Total = s.Total.Add(v.Amount)
	}
	return s
}
