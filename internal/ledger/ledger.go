// Package ledger owns the authoritative, ordered collection of expenses.
//
// A Ledger is single-writer: callers that share one across goroutines must
// serialise access themselves (see services.LedgerService).
package ledger

import (
	"fmt"
	"strings"

	"tracker/internal/core"
)

// Ledger keeps records newest-inserted-first, independent of their dates.
type Ledger struct {
	categories core.Categories
	items      []core.Expense
	nextID     int64
	version    uint64
	// total is the sum of every amount; Add keeps it within int64 so every
	// derived sum is exact.
	total core.Money
}

func New(categories core.Categories) *Ledger {
	return &Ledger{
		categories: categories,
		nextID:     1,
	}
}

// Categories returns the configured category set.
func (l *Ledger) Categories() core.Categories {
	return l.categories
}

// Add validates the submitted fields, assigns a fresh id and prepends the record.
// A *core.ValidationError naming the first rejected field is returned on failure,
// in which case the ledger is left untouched.
func (l *Ledger) Add(description string, amount any, category, date string) (core.Expense, error) {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return core.Expense{}, &core.ValidationError{Field: core.FieldDescription, Err: core.ErrEmptyDescription}
	}
	money, err := core.ParseAmount(amount)
	if err != nil {
		return core.Expense{}, &core.ValidationError{Field: core.FieldAmount, Err: err}
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, &core.ValidationError{Field: core.FieldDate, Err: err}
	}

	e := core.Expense{
		Description: desc,
		Amount:      money,
		Category:    strings.TrimSpace(category),
		Date:        d,
	}
	if err := e.Validate(l.categories); err != nil {
		return core.Expense{}, err
	}
	total, ok := l.total.CheckedAdd(money)
	if !ok {
		return core.Expense{}, &core.ValidationError{Field: core.FieldAmount, Err: core.ErrAmountOverflow}
	}

	e.ID = l.nextID
	l.nextID++
	l.total = total

	items := make([]core.Expense, 0, len(l.items)+1)
	items = append(items, e)
	l.items = append(items, l.items...)
	l.version++
	return e, nil
}

// Remove deletes the record with the given id. Removing an absent id is a no-op
// and reports false.
func (l *Ledger) Remove(id int64) bool {
	for i, e := range l.items {
		if e.ID != id {
			continue
		}
		items := make([]core.Expense, 0, len(l.items)-1)
		items = append(items, l.items[:i]...)
		l.items = append(items, l.items[i+1:]...)
		l.total.Cents -= e.Amount.Cents
		l.version++
		return true
	}
	return false
}

// Snapshot returns a copy of the current contents, newest first.
func (l *Ledger) Snapshot() []core.Expense {
	out := make([]core.Expense, len(l.items))
	copy(out, l.items)
	return out
}

// Get returns the record with the given id.
func (l *Ledger) Get(id int64) (core.Expense, bool) {
	for _, e := range l.items {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

// ReserveIDs makes every id issued from now on at least floor. Ids already
// issued or restored are never reused.
func (l *Ledger) ReserveIDs(floor int64) {
	if floor > l.nextID {
		l.nextID = floor
	}
}

func (l *Ledger) Len() int {
	return len(l.items)
}

// Version increases on every effective mutation.
func (l *Ledger) Version() uint64 {
	return l.version
}

// Restore replaces the contents with previously saved records, already in
// newest-first order. Records must carry ids and satisfy every Add invariant;
// anything else is reported as core.ErrIntegrity and nothing is changed.
func (l *Ledger) Restore(items []core.Expense) error {
	seen := make(map[int64]struct{}, len(items))
	var maxID int64
	var total core.Money
	for i, e := range items {
		if e.ID <= 0 {
			return fmt.Errorf("%w: record %d has no id", core.ErrIntegrity, i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d", core.ErrIntegrity, e.ID)
		}
		seen[e.ID] = struct{}{}
		if err := e.Validate(l.categories); err != nil {
			return fmt.Errorf("%w: record %d: %v", core.ErrIntegrity, e.ID, err)
		}
		sum, ok := total.CheckedAdd(e.Amount)
		if !ok {
			return fmt.Errorf("%w: record %d: %v", core.ErrIntegrity, e.ID, core.ErrAmountOverflow)
		}
		total = sum
		if e.ID > maxID {
			maxID = e.ID
		}
	}

	l.items = make([]core.Expense, len(items))
	copy(l.items, items)
	l.total = total
	if maxID >= l.nextID {
		l.nextID = maxID + 1
	}
	l.version++
	return nil
}
