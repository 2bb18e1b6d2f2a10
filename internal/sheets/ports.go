package sheets

import (
	"context"
	"time"

	"paycheck/internal/ledger"
	"paycheck/internal/pipeline"
)

// Tab names written by every export.
const (
	TabExpensePivot     = "Expense Pivot"
	TabIncomeVsExpense  = "Income vs Expense"
	TabRecurringCharges = "Recurring Charges"
	TabSortedExpenses   = "Sorted Expenses"
	TabLedgers          = "Ledgers"
)

// Tabs lists the tab names in the order they are written.
var Tabs = []string{TabExpensePivot, TabIncomeVsExpense, TabRecurringCharges, TabSortedExpenses, TabLedgers}

type (
	// Export is everything pushed to a spreadsheet in one go. Dashboard is
	// nil when nothing has been uploaded yet.
	Export struct {
		Dashboard   *pipeline.Dashboard
		Ledgers     []ledger.Snapshot
		GeneratedAt time.Time
	}

	// DashboardExporter replaces the exported tabs with a new Export.
	DashboardExporter interface {
		Export(ctx context.Context, e Export) error
	}
)
