package core

import (
	"sort"
	"strings"
)

// All is the wildcard value for either axis of a period filter.
const All = -1

// PeriodFilter scopes a transaction set to a calendar year and/or a
// zero-based month index. Each axis is independently wildcardable with
// All. Every view must apply its filter through this type so the
// dashboard, calendar, list and analysis views always agree.
type PeriodFilter struct {
	Year  int
	Month int
}

// Matches reports whether a date falls inside the filtered period.
func (f PeriodFilter) Matches(d Date) bool {
	if f.Year != All && d.Year() != f.Year {
		return false
	}
	if f.Month != All && int(d.Month())-1 != f.Month {
		return false
	}
	return true
}

// Totals are the headline figures of a filtered period. Type is
// authoritative for the sign: category never affects it.
type Totals struct {
	Revenue float64 `json:"revenue"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// CategoryAmount is one slice of the category breakdown.
type CategoryAmount struct {
	Category Category `json:"category"`
	Color    string   `json:"color"`
	Amount   float64  `json:"amount"`
}

// RentSegment is one individual Loyer transaction inside a month bucket,
// kept separate so a stacked chart can render each booking as its own
// block.
type RentSegment struct {
	Amount        float64 `json:"amount"`
	PricePerNight float64 `json:"pricePerNight"`
}

// MonthBucket aggregates one calendar month of the series.
type MonthBucket struct {
	Month        int                  `json:"month"` // zero-based
	Name         string               `json:"name"`
	ByCategory   map[Category]float64 `json:"byCategory"`
	RentSegments []RentSegment        `json:"rentSegments"`
}

// MonthlySeries always carries all twelve calendar months, regardless of
// any month filter: the monthly chart is a separate view from the
// single-month scope. MaxRentSegments tells a renderer how many stacked
// rent series to allocate.
type MonthlySeries struct {
	Months          [12]MonthBucket `json:"months"`
	MaxRentSegments int             `json:"maxRentSegments"`
}

// FilterByPeriod returns the subset of transactions matching the filter,
// preserving input order.
func FilterByPeriod(transactions []Transaction, f PeriodFilter) []Transaction {
	var out []Transaction
	for _, t := range transactions {
		if f.Matches(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// FilterList narrows a period-filtered set further by category and by a
// case-insensitive description search, then sorts date-descending for the
// list view. An empty category or query is a wildcard.
func FilterList(transactions []Transaction, f PeriodFilter, category Category, query string) []Transaction {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []Transaction
	for _, t := range transactions {
		if !f.Matches(t.Date) {
			continue
		}
		if category != "" && t.Category != category {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		out = append(out, t)
	}
	SortByDateDesc(out)
	return out
}

// SortByDateDesc orders transactions newest first, in place. The sort is
// stable so reloads with identical rows keep a deterministic order.
func SortByDateDesc(transactions []Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.After(transactions[j].Date)
	})
}

// ComputeTotals sums the subset into revenue, expense and net figures.
func ComputeTotals(transactions []Transaction) Totals {
	var t Totals
	for _, tr := range transactions {
		switch tr.Type {
		case Revenue:
			t.Revenue += tr.Amount
		case Expense:
			t.Expense += tr.Amount
		}
	}
	t.Net = t.Revenue - t.Expense
	return t
}

// CategoryBreakdown sums the subset per category, keeping only categories
// with a positive sum, in the fixed palette order.
func CategoryBreakdown(transactions []Transaction) []CategoryAmount {
	sums := make(map[Category]float64, len(Categories))
	for _, t := range transactions {
		sums[t.Category] += t.Amount
	}
	var out []CategoryAmount
	for _, cat := range Categories {
		if sums[cat] > 0 {
			out = append(out, CategoryAmount{
				Category: cat,
				Color:    CategoryColors[cat],
				Amount:   sums[cat],
			})
		}
	}
	return out
}

// ComputeMonthlySeries builds the twelve-month stacked series for one year
// (or all years with All). Non-Loyer categories are summed per category;
// each Loyer transaction stays its own segment, in input order, so
// distinct bookings remain visually distinct.
func ComputeMonthlySeries(transactions []Transaction, year int) MonthlySeries {
	var series MonthlySeries
	for m := 0; m < 12; m++ {
		series.Months[m] = MonthBucket{
			Month:      m,
			Name:       MonthNames[m],
			ByCategory: make(map[Category]float64),
		}
	}
	for _, t := range transactions {
		if year != All && t.Date.Year() != year {
			continue
		}
		bucket := &series.Months[int(t.Date.Month())-1]
		if t.Category == Loyer {
			seg := RentSegment{Amount: t.Amount}
			if t.Booking != nil {
				seg.PricePerNight = t.Booking.PricePerNight
			}
			bucket.RentSegments = append(bucket.RentSegments, seg)
			if len(bucket.RentSegments) > series.MaxRentSegments {
				series.MaxRentSegments = len(bucket.RentSegments)
			}
			continue
		}
		bucket.ByCategory[t.Category] += t.Amount
	}
	return series
}
