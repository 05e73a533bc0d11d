package google

import (
	"context"
	"strings"
	"testing"
	"time"

	"tracker/internal/core"
)

func TestNewExporter_MissingSpreadsheetID(t *testing.T) {
	_, err := NewExporter(context.Background(), "  ", "Expenses", nil)
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewExporter_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewExporter(context.Background(), "sheet-id", "Expenses", nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewExporter_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/nonexistent/sa.json")

	_, err := NewExporter(context.Background(), "sheet-id", "Expenses", nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExporterWithoutService(t *testing.T) {
	c := newExporter(nil, "id", "", nil)
	if c.sheetName != "Expenses" {
		t.Errorf("default sheet name = %q", c.sheetName)
	}
	e := core.Expense{ID: 1, Description: "x", Amount: core.Money{Cents: 1}, Category: "Food", Date: core.NewDate(2025, 1, 1)}
	if _, err := c.Append(context.Background(), e); err == nil {
		t.Error("expected error without service")
	}
	if err := c.Delete(context.Background(), 1); err == nil {
		t.Error("expected error without service")
	}
	if _, err := c.Append(context.Background(), core.Expense{}); err == nil || !strings.Contains(err.Error(), "invalid id") {
		t.Errorf("expected invalid id error, got %v", err)
	}
}

func TestExpenseRow(t *testing.T) {
	e := core.Expense{ID: 42, Description: "Lunch", Amount: core.Money{Cents: 2550}, Category: "Food", Date: core.NewDate(2025, 10, 20)}
	row := expenseRow(e)
	if len(row) != 5 {
		t.Fatalf("row len = %d", len(row))
	}
	if row[0] != int64(42) || row[1] != "2025-10-20" || row[2] != "Lunch" || row[3] != 25.5 || row[4] != "Food" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestParseIDColumnAndFindRow(t *testing.T) {
	values := [][]any{{"ID"}, {"7"}, {}, {float64(9)}, {"abc"}, {" 12 "}}
	ids := parseIDColumn(values)
	want := []int64{0, 7, 0, 9, 0, 12}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if got := findRow(ids, 9); got != 4 {
		t.Errorf("findRow(9) = %d, want 4", got)
	}
	if got := findRow(ids, 100); got != 0 {
		t.Errorf("findRow(100) = %d, want 0", got)
	}
}

func TestRowCache(t *testing.T) {
	c := newExporter(nil, "id", "Expenses", nil)

	c.mu.Lock()
	c.cachedIDs = []int64{0, 3, 5}
	c.cacheExpiresAt = time.Now().Add(time.Minute)
	c.mu.Unlock()

	ids, err := c.idColumn(context.Background())
	if err != nil || len(ids) != 3 {
		t.Fatalf("cached column = %v, %v", ids, err)
	}
	ids[0] = 99
	if c.cachedIDs[0] != 0 {
		t.Fatal("idColumn must return a copy")
	}

	c.invalidateRowCache()
	if c.cachedIDs != nil || !c.cacheExpiresAt.IsZero() {
		t.Fatal("cache should be cleared")
	}
	if got := c.rowRef(4); got != "Expenses!A4:E4" {
		t.Errorf("rowRef = %q", got)
	}
}
