// Package sheets defines the outbound port for exporting ledger changes to
// a spreadsheet. Adapters live in the google and memory subpackages.
package sheets

import (
	"context"

	"tracker/internal/core"
)

// Header is the first row of an export sheet.
var Header = []string{"ID", "Date", "Description", "Amount", "Category"}

// Exporter mirrors ledger mutations into a sheet. Both operations are
// idempotent so redelivered events are harmless.
type Exporter interface {
	// Append writes e unless a row with its id already exists.
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	// Delete removes the row for id. A missing row is not an error.
	Delete(ctx context.Context, id int64) error
}
