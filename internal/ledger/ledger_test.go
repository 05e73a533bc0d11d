package ledger

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"tracker/internal/core"
)

func newTestLedger() *Ledger {
	return New(core.DefaultCategories())
}

func TestAddPrependsAndAssignsIDs(t *testing.T) {
	l := newTestLedger()
	first, err := l.Add("Lunch", "25.50", "Food", "2025-10-20")
	if err != nil {
		t.Fatalf("add lunch: %v", err)
	}
	second, err := l.Add("Uber", 15.0, "Transport", "2025-10-18")
	if err != nil {
		t.Fatalf("add uber: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("ids must differ: %d", first.ID)
	}

	snap := l.Snapshot()
	if len(snap) != 2 || snap[0].ID != second.ID || snap[1].ID != first.ID {
		t.Fatalf("expected newest-inserted-first, got %+v", snap)
	}
	if snap[0].Amount.Cents != 1500 || snap[1].Amount.Cents != 2550 {
		t.Fatalf("unexpected amounts %+v", snap)
	}
}

func TestAddValidation(t *testing.T) {
	cases := []struct {
		name     string
		desc     string
		amount   any
		category string
		date     string
		field    string
	}{
		{"empty description", "  ", "1", "Food", "2025-10-20", core.FieldDescription},
		{"non numeric amount", "x", "abc", "Food", "2025-10-20", core.FieldAmount},
		{"negative amount", "x", "-2", "Food", "2025-10-20", core.FieldAmount},
		{"negative number", "x", -2.5, "Food", "2025-10-20", core.FieldAmount},
		{"unknown category", "x", "1", "Travel", "2025-10-20", core.FieldCategory},
		{"malformed date", "x", "1", "Food", "10/20/2025", core.FieldDate},
		{"impossible date", "x", "1", "Food", "2025-02-30", core.FieldDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := newTestLedger()
			_, err := l.Add(tc.desc, tc.amount, tc.category, tc.date)
			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("field = %q, want %q", ve.Field, tc.field)
			}
			if l.Len() != 0 || l.Version() != 0 {
				t.Fatalf("failed add must not mutate the ledger")
			}
		})
	}
}

func TestAddAcceptsZeroAmount(t *testing.T) {
	l := newTestLedger()
	e, err := l.Add("Free sample", "0", "Food", "2025-10-20")
	if err != nil || e.Amount.Cents != 0 {
		t.Fatalf("zero amount should be accepted: %v", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	l := newTestLedger()
	a, _ := l.Add("A", "1", "Food", "2025-10-20")
	b, _ := l.Add("B", "2", "Bills", "2025-10-20")

	if !l.Remove(a.ID) {
		t.Fatalf("expected removal")
	}
	v := l.Version()
	if l.Remove(a.ID) {
		t.Fatalf("second remove should report false")
	}
	if l.Version() != v {
		t.Fatalf("no-op remove must not bump the version")
	}
	snap := l.Snapshot()
	if len(snap) != 1 || snap[0].ID != b.ID {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if l.Remove(9999) {
		t.Fatalf("absent id should be a no-op")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	l := newTestLedger()
	_, _ = l.Add("A", "1", "Food", "2025-10-20")
	snap := l.Snapshot()
	snap[0].Description = "mutated"
	if got := l.Snapshot(); len(got) != 1 || got[0].Description != "A" {
		t.Fatalf("snapshot mutation leaked into ledger: %+v", got)
	}
}

func TestLengthAndUniquenessProperty(t *testing.T) {
	l := newTestLedger()
	var ids []int64
	adds, removes := 0, 0
	for i := 0; i < 50; i++ {
		e, err := l.Add(fmt.Sprintf("item %d", i), fmt.Sprintf("%d.%02d", i, i), "Others", "2025-10-01")
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		adds++
		ids = append(ids, e.ID)
		if i%3 == 0 && l.Remove(ids[i/2]) {
			removes++
		}
	}
	snap := l.Snapshot()
	if len(snap) != adds-removes {
		t.Fatalf("len = %d, want %d", len(snap), adds-removes)
	}
	seen := map[int64]bool{}
	for _, e := range snap {
		if seen[e.ID] {
			t.Fatalf("duplicate id %d", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestRestore(t *testing.T) {
	l := newTestLedger()
	stored := []core.Expense{
		{ID: 7, Description: "Newer", Amount: core.Money{Cents: 100}, Category: "Food", Date: core.NewDate(2025, 10, 20)},
		{ID: 3, Description: "Older", Amount: core.Money{Cents: 200}, Category: "Bills", Date: core.NewDate(2025, 10, 1)},
	}
	if err := l.Restore(stored); err != nil {
		t.Fatalf("restore: %v", err)
	}
	e, err := l.Add("Next", "1", "Food", "2025-10-21")
	if err != nil {
		t.Fatalf("add after restore: %v", err)
	}
	if e.ID != 8 {
		t.Fatalf("id after restore = %d, want 8", e.ID)
	}
	if got := l.Snapshot(); len(got) != 3 || got[1].ID != 7 || got[2].ID != 3 {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestRestoreIntegrity(t *testing.T) {
	cases := map[string][]core.Expense{
		"unknown category": {{ID: 1, Description: "x", Category: "Travel", Date: core.NewDate(2025, 1, 1)}},
		"duplicate id": {
			{ID: 1, Description: "x", Category: "Food", Date: core.NewDate(2025, 1, 1)},
			{ID: 1, Description: "y", Category: "Food", Date: core.NewDate(2025, 1, 1)},
		},
		"missing id":      {{Description: "x", Category: "Food", Date: core.NewDate(2025, 1, 1)}},
		"negative amount": {{ID: 1, Description: "x", Amount: core.Money{Cents: -1}, Category: "Food", Date: core.NewDate(2025, 1, 1)}},
		"total overflow": {
			{ID: 2, Description: "x", Amount: core.Money{Cents: math.MaxInt64}, Category: "Food", Date: core.NewDate(2025, 1, 1)},
			{ID: 1, Description: "y", Amount: core.Money{Cents: 1}, Category: "Food", Date: core.NewDate(2025, 1, 1)},
		},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			l := newTestLedger()
			if err := l.Restore(items); !errors.Is(err, core.ErrIntegrity) {
				t.Fatalf("expected ErrIntegrity, got %v", err)
			}
			if l.Len() != 0 {
				t.Fatalf("failed restore must not change contents")
			}
		})
	}
}

func TestAddRejectsTotalOverflow(t *testing.T) {
	l := newTestLedger()
	if _, err := l.Add("Yacht", "90000000000000000", "Shopping", "2025-10-20"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := l.Add("Second yacht", "90000000000000000", "Shopping", "2025-10-20")
	if !errors.Is(err, core.ErrAmountOverflow) {
		t.Fatalf("expected ErrAmountOverflow, got %v", err)
	}
	if field, _ := core.FieldOf(err); field != core.FieldAmount {
		t.Fatalf("field = %q, want amount", field)
	}
	if l.Len() != 1 || l.Version() != 1 {
		t.Fatalf("rejected add must not mutate the ledger")
	}

	var total int64
	for _, e := range l.Snapshot() {
		total += e.Amount.Cents
	}
	if total != 9_000_000_000_000_000_00 {
		t.Fatalf("total = %d", total)
	}

	// Removing frees headroom for the next add.
	l.Remove(1)
	if _, err := l.Add("Second yacht", "90000000000000000", "Shopping", "2025-10-20"); err != nil {
		t.Fatalf("add after remove: %v", err)
	}
}

func TestReserveIDs(t *testing.T) {
	l := newTestLedger()
	l.ReserveIDs(1_700_000_000_000)
	e, err := l.Add("Lunch", "1", "Food", "2025-10-20")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.ID != 1_700_000_000_000 {
		t.Fatalf("id = %d, want reserved floor", e.ID)
	}

	// A lower floor never moves ids backwards.
	l.ReserveIDs(5)
	if e, _ := l.Add("Dinner", "1", "Food", "2025-10-20"); e.ID != 1_700_000_000_001 {
		t.Fatalf("id = %d", e.ID)
	}

	// Restored ids above the floor win.
	r := newTestLedger()
	r.ReserveIDs(10)
	if err := r.Restore([]core.Expense{{ID: 40, Description: "x", Amount: core.Money{Cents: 1}, Category: "Food", Date: core.NewDate(2025, 1, 1)}}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if e, _ := r.Add("y", "1", "Food", "2025-10-20"); e.ID != 41 {
		t.Fatalf("id after restore = %d, want 41", e.ID)
	}
}
