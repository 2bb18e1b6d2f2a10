// Package files persists ledgers, budgets and uploaded statements as flat
// files in one data directory.
package files

import (
	"fmt"
	"os"
	"path/filepath"
)

// File names inside the data directory.
const (
	Paycheck1Ledger = "paycheck1_expenses.csv"
	Paycheck2Ledger = "second_paycheck_expenses.csv"
	GroceryLedger   = "grocery_expenses.csv"
	Paycheck1Budget = "paycheck1_income.json"
	Paycheck2Budget = "paycheck2_income.json"
	GroceryBudget   = "grocery_budget.json"
	UploadRegistry  = "uploaded_files.json"
)

// Budget keys inside the JSON budget files.
const (
	Paycheck1BudgetKey = "paycheck1_key"
	Paycheck2BudgetKey = "paycheck2_key"
	GroceryBudgetKey   = "grocery_budget_key"
)

// writeFileAtomic replaces path with data via a temporary file in the same
// directory, so readers never see a partial write.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
