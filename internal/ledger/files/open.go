package files

import (
	"path/filepath"

	"paycheck/internal/core"
	"paycheck/internal/ledger"
	"paycheck/internal/log"
)

// OpenLedgers builds the three ledgers on the files in dir.
func OpenLedgers(dir string, logger *log.Logger) *ledger.Set {
	p := func(name string) string { return filepath.Join(dir, name) }
	return &ledger.Set{
		Paycheck1: ledger.New[core.PaycheckExpense](ledger.Paycheck1,
			NewCSVStore[core.PaycheckExpense](p(Paycheck1Ledger), logger),
			NewBudgetStore(p(Paycheck1Budget), Paycheck1BudgetKey, logger), logger),
		Paycheck2: ledger.New[core.PaycheckExpense](ledger.Paycheck2,
			NewCSVStore[core.PaycheckExpense](p(Paycheck2Ledger), logger),
			NewBudgetStore(p(Paycheck2Budget), Paycheck2BudgetKey, logger), logger),
		Groceries: ledger.New[core.GroceryExpense](ledger.Groceries,
			NewCSVStore[core.GroceryExpense](p(GroceryLedger), logger),
			NewBudgetStore(p(GroceryBudget), GroceryBudgetKey, logger), logger),
	}
}
