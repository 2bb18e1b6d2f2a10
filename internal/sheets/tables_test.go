package sheets

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"paycheck/internal/core"
	"paycheck/internal/ledger"
	"paycheck/internal/pipeline"
)

const deposit = "Defense Finance and Accounting Service"

func dashboard(t *testing.T) *pipeline.Dashboard {
	t.Helper()
	batch := core.StatementBatch{FileName: "jan.csv", Rows: []core.RawRow{
		{Date: "2024-01-01", Description: deposit, Amount: "2000"},
		{Date: "2024-01-05", Description: "Netflix", Amount: "-15.99"},
		{Date: "2024-01-15", Description: deposit, Amount: "2100"},
		{Date: "2024-01-20", Description: "Netflix", Amount: "-15.99"},
		{Date: "2024-01-21", Description: "Rent", Amount: "-900"},
	}}
	d, err := pipeline.New(pipeline.DefaultOptions(), nil).Run(context.Background(), []core.StatementBatch{batch})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return d
}

func tableByName(tables []Table, name string) Table {
	for _, t := range tables {
		if t.Name == name {
			return t
		}
	}
	return Table{}
}

func TestBuildTables_Order(t *testing.T) {
	tables := BuildTables(Export{})
	if len(tables) != len(Tabs) {
		t.Fatalf("got %d tables, want %d", len(tables), len(Tabs))
	}
	for i, name := range Tabs {
		if tables[i].Name != name {
			t.Errorf("table %d = %q, want %q", i, tables[i].Name, name)
		}
	}
}

func TestBuildTables_NoDashboard(t *testing.T) {
	tables := BuildTables(Export{})
	for _, name := range []string{TabExpensePivot, TabRecurringCharges, TabSortedExpenses} {
		if rows := tableByName(tables, name).Rows; len(rows) != 1 {
			t.Errorf("%s has %d rows, want header only", name, len(rows))
		}
	}
	if rows := tableByName(tables, TabLedgers).Rows; len(rows) != 0 {
		t.Errorf("Ledgers has %d rows, want 0", len(rows))
	}
}

func TestExpensePivotTable(t *testing.T) {
	tab := tableByName(BuildTables(Export{Dashboard: dashboard(t)}), TabExpensePivot)

	// header, P1 2024-02, P2 2024-02, blank, header, two averages
	if len(tab.Rows) != 7 {
		t.Fatalf("rows = %v", tab.Rows)
	}
	p1 := tab.Rows[1]
	if p1[0] != "Paycheck 1" || p1[1] != "2024-02" || p1[2] != "15.99" || p1[3] != 1 {
		t.Errorf("paycheck 1 row = %v", p1)
	}
	p2 := tab.Rows[2]
	if p2[0] != "Paycheck 2" || p2[2] != "915.99" || p2[3] != 2 {
		t.Errorf("paycheck 2 row = %v", p2)
	}
	if avg := tab.Rows[6]; avg[0] != "Paycheck 2" || avg[1] != "915.99" || avg[2] != "2.00" {
		t.Errorf("average row = %v", avg)
	}
}

func TestIncomeVsExpenseTable(t *testing.T) {
	tab := tableByName(BuildTables(Export{Dashboard: dashboard(t)}), TabIncomeVsExpense)

	if tab.Rows[0][1] != "2000.00" {
		t.Errorf("most recent income = %v, want 2000.00", tab.Rows[0][1])
	}
	if len(tab.Rows) < 4 {
		t.Fatalf("rows = %v", tab.Rows)
	}
	first := tab.Rows[3]
	if first[0] != "2024-02" || first[1] != "Paycheck 1" || first[2] != "2000.00" || first[3] != "15.99" || first[4] != "1984.01" {
		t.Errorf("first period row = %v", first)
	}
}

func TestIncomeVsExpenseTable_NoIncome(t *testing.T) {
	d := dashboard(t)
	d.MostRecentIncome = nil
	tab := tableByName(BuildTables(Export{Dashboard: d}), TabIncomeVsExpense)
	if tab.Rows[0][1] != "" {
		t.Errorf("most recent income = %v, want empty", tab.Rows[0][1])
	}
}

func TestRecurringAndSortedTables(t *testing.T) {
	tables := BuildTables(Export{Dashboard: dashboard(t)})

	rec := tableByName(tables, TabRecurringCharges)
	if len(rec.Rows) != 2 {
		t.Fatalf("recurring rows = %v", rec.Rows)
	}
	if r := rec.Rows[1]; r[0] != "Netflix" || r[1] != 5 || r[2] != 20 || r[3] != "15.99" || r[4] != 15 {
		t.Errorf("recurring row = %v", r)
	}

	sorted := tableByName(tables, TabSortedExpenses)
	if len(sorted.Rows) != 4 {
		t.Fatalf("sorted rows = %v", sorted.Rows)
	}
	if r := sorted.Rows[1]; r[1] != "Netflix" || r[3] != "Paycheck 1" {
		t.Errorf("first sorted row = %v", r)
	}
	if r := sorted.Rows[2]; r[1] != "Rent" || r[2] != "900.00" {
		t.Errorf("second sorted row = %v", r)
	}
}

func TestLedgersTable(t *testing.T) {
	e := Export{
		GeneratedAt: time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
		Ledgers: []ledger.Snapshot{
			{
				Name:    ledger.Groceries,
				Columns: core.GroceryExpenseColumns,
				Rows:    [][]string{{"2024-02-01", "Aldi", "42.10"}},
				Summary: core.NewBudgetSummary(decimal.NewFromInt(300), decimal.RequireFromString("42.10")),
			},
			{Name: ledger.Paycheck1, Columns: core.PaycheckExpenseColumns},
		},
	}
	tab := tableByName(BuildTables(e), TabLedgers)

	want := [][]any{
		{"generated_at", "2024-03-01 08:30:00"},
		{},
		{"groceries", "1 entries"},
		{"date", "store", "amount"},
		{"2024-02-01", "Aldi", "42.10"},
		{"budget", "300.00", "spent", "42.10", "remaining", "257.90"},
		{},
		{"paycheck1", "0 entries"},
		{"txn", "cost", "d"},
		{"budget", "0.00", "spent", "0.00", "remaining", "0.00"},
	}
	if len(tab.Rows) != len(want) {
		t.Fatalf("rows = %v", tab.Rows)
	}
	for i := range want {
		if len(tab.Rows[i]) != len(want[i]) {
			t.Fatalf("row %d = %v, want %v", i, tab.Rows[i], want[i])
		}
		for j := range want[i] {
			if tab.Rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %v, want %v", i, j, tab.Rows[i][j], want[i][j])
			}
		}
	}
}
