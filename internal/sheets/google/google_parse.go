package google

import (
	"fmt"
	"strconv"
	"strings"

	"tracker/internal/core"
)

// expenseRow renders e in sheets.Header column order.
func expenseRow(e core.Expense) []any {
	return []any{e.ID, e.Date.String(), e.Description, e.Amount.Dollars(), e.Category}
}

func headerRow(cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

// parseIDColumn converts column A values into ids. Rows without a numeric
// id, such as the header, map to 0 so indexes keep lining up with rows.
func parseIDColumn(values [][]any) []int64 {
	ids := make([]int64, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(row[0]))
		if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
			ids[i] = id
		}
	}
	return ids
}

// findRow returns the 1-based sheet row holding id, or 0.
func findRow(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i + 1
		}
	}
	return 0
}
