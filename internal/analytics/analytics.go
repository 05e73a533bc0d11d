// Package analytics derives dashboard figures from a ledger snapshot.
//
// Every function is pure: it reads its arguments, never mutates them and
// keeps no state between calls. Time-relative derivations take an explicit
// reference instant and only use its calendar date.
package analytics

import (
	"time"

	"tracker/internal/core"
)

// DefaultWindowDays is the length of the dashboard's trailing series.
const DefaultWindowDays = 7

// TotalSpend sums every amount in the snapshot.
func TotalSpend(snapshot []core.Expense) core.Money {
	var total core.Money
	for _, e := range snapshot {
		total = total.Add(e.Amount)
	}
	return total
}

// MonthToDateSpend sums records dated in the calendar month and year of now.
func MonthToDateSpend(snapshot []core.Expense, now time.Time) core.Money {
	today := core.DateOf(now)
	var total core.Money
	for _, e := range snapshot {
		if e.Date.SameMonth(today) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// CategoryBreakdown totals each configured category in configuration order.
// Categories with a zero total are omitted.
func CategoryBreakdown(snapshot []core.Expense, categories core.Categories) []core.CategoryTotal {
	sums := make(map[string]int64, len(categories))
	for _, e := range snapshot {
		sums[e.Category] += e.Amount.Cents
	}
	out := make([]core.CategoryTotal, 0, len(categories))
	for _, c := range categories {
		cents := sums[c.Name]
		if cents == 0 {
			continue
		}
		out = append(out, core.CategoryTotal{
			Category: c.Name,
			Color:    c.Color,
			Icon:     c.Icon,
			Total:    core.Money{Cents: cents},
		})
	}
	return out
}

// TrailingDailySeries returns exactly windowDays entries, oldest first, ending
// at now's calendar date. A record counts only on the day its date equals;
// days without records report zero.
func TrailingDailySeries(snapshot []core.Expense, now time.Time, windowDays int) []core.DailyTotal {
	if windowDays <= 0 {
		return []core.DailyTotal{}
	}
	today := core.DateOf(now)
	start := today.AddDays(-(windowDays - 1))

	series := make([]core.DailyTotal, windowDays)
	index := make(map[string]int, windowDays)
	for i := range series {
		d := start.AddDays(i)
		series[i] = core.DailyTotal{Date: d, Weekday: d.Weekday().String()[:3]}
		index[d.String()] = i
	}
	for _, e := range snapshot {
		if i, ok := index[e.Date.String()]; ok {
			series[i].Total = series[i].Total.Add(e.Amount)
		}
	}
	return series
}

// Summarize computes every dashboard derivation from one snapshot.
func Summarize(snapshot []core.Expense, categories core.Categories, now time.Time) core.Summary {
	return core.Summary{
		AsOf:         core.DateOf(now),
		Total:        TotalSpend(snapshot),
		MonthToDate:  MonthToDateSpend(snapshot, now),
		Count:        len(snapshot),
		ByCategory:   CategoryBreakdown(snapshot, categories),
		TrailingDays: TrailingDailySeries(snapshot, now, DefaultWindowDays),
	}
}
