package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"tracker/internal/core"
)

// AllCategories is the filter sentinel that passes every record through.
const AllCategories = "all"

// ErrUnknownSortKey is returned by ParseSortKey for keys outside date, amount and name.
var ErrUnknownSortKey = errors.New("unknown sort key")

// SortKey selects the ordering of FilterAndSort.
type SortKey string

const (
	SortDate   SortKey = "date"   // newest date first
	SortAmount SortKey = "amount" // highest amount first
	SortName   SortKey = "name"   // description A-Z
)

// ParseSortKey validates a sort key coming from the UI. An empty key means SortDate.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortDate, nil
	case SortDate, SortAmount, SortName:
		return k, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownSortKey, s)
	}
}

type queryOptions struct {
	lang language.Tag
}

// Option tunes FilterAndSort.
type Option func(*queryOptions)

// WithLanguage sets the collation language used for SortName.
func WithLanguage(tag language.Tag) Option {
	return func(o *queryOptions) {
		o.lang = tag
	}
}

// FilterAndSort keeps records of filterCategory (every record for "all" or an
// empty filter) and orders them by key. All orderings are stable with respect
// to the input order. The input is never modified.
func FilterAndSort(snapshot []core.Expense, filterCategory string, key SortKey, opts ...Option) []core.Expense {
	o := queryOptions{lang: language.English}
	for _, opt := range opts {
		opt(&o)
	}

	out := make([]core.Expense, 0, len(snapshot))
	for _, e := range snapshot {
		if filterCategory == "" || filterCategory == AllCategories || e.Category == filterCategory {
			out = append(out, e)
		}
	}

	switch key {
	case SortAmount:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Amount.Cents > out[j].Amount.Cents
		})
	case SortName:
		// Collators are not safe for concurrent use; one per call.
		c := collate.New(o.lang, collate.IgnoreCase, collate.IgnoreWidth)
		sort.SliceStable(out, func(i, j int) bool {
			if r := c.CompareString(out[i].Description, out[j].Description); r != 0 {
				return r < 0
			}
			return strings.ToLower(out[i].Description) < strings.ToLower(out[j].Description)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Date.After(out[j].Date.Time)
		})
	}
	return out
}
