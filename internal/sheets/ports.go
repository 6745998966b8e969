// Package sheets defines the outbound ports used to mirror expenses into a
// spreadsheet.
package sheets

import (
	"context"

	"expenseflow/internal/core"
)

// Header is the first row of the export sheet. Column A holds the expense ID.
var Header = []string{"id", "date", "title", "category", "amount", "description", "version"}

// Ports for outbound adapters.
type (
	// ExpenseExporter keeps one row per expense, keyed by ID.
	ExpenseExporter interface {
		// Upsert writes the expense row, replacing an existing row with the same
		// ID unless that row carries a newer version. It reports whether a row
		// was written.
		Upsert(ctx context.Context, e core.Expense, version int64) (written bool, err error)

		// Delete replaces the row for id with a tombstone carrying version, so
		// an older upsert delivered late cannot bring the expense back. A row
		// with a newer version is left alone. It reports whether a tombstone
		// was written.
		Delete(ctx context.Context, id int64, version int64) (written bool, err error)
	}
)
