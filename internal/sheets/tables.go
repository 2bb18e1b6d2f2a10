package sheets

import (
	"strconv"

	"github.com/shopspring/decimal"

	"paycheck/internal/core"
	"paycheck/internal/pipeline"
)

// Table is one tab's content as a grid of cell values.
type Table struct {
	Name string
	Rows [][]any
}

// BuildTables renders an Export into one Table per tab, in Tabs order.
func BuildTables(e Export) []Table {
	return []Table{
		expensePivotTable(e.Dashboard),
		incomeVsExpenseTable(e.Dashboard),
		recurringTable(e.Dashboard),
		sortedExpensesTable(e.Dashboard),
		ledgersTable(e),
	}
}

func money(d decimal.Decimal) string {
	return core.Round2(d).StringFixed(2)
}

func expensePivotTable(d *pipeline.Dashboard) Table {
	t := Table{Name: TabExpensePivot, Rows: [][]any{{"paycheck_cycle", "paycheck_period", "amount", "count"}}}
	if d == nil {
		return t
	}
	counts := make(map[string]int, len(d.CycleExpenseCounts))
	for _, c := range d.CycleExpenseCounts {
		counts[string(c.Cycle)+"|"+c.Period.String()] = c.Count
	}
	for _, r := range d.ExpensePivot {
		t.Rows = append(t.Rows, []any{
			string(r.Cycle), r.Period.String(), money(r.Amount),
			counts[string(r.Cycle)+"|"+r.Period.String()],
		})
	}
	t.Rows = append(t.Rows, []any{}, []any{"paycheck_cycle", "average_amount", "average_count"})
	avgCounts := make(map[core.Cycle]decimal.Decimal, len(d.CycleExpenseAvgCounts))
	for _, c := range d.CycleExpenseAvgCounts {
		avgCounts[c.Cycle] = c.AverageCount
	}
	for _, r := range d.AverageCycleExpenses {
		t.Rows = append(t.Rows, []any{string(r.Cycle), money(r.Amount), money(avgCounts[r.Cycle])})
	}
	return t
}

func incomeVsExpenseTable(d *pipeline.Dashboard) Table {
	t := Table{Name: TabIncomeVsExpense, Rows: [][]any{{"most_recent_income", ""}}}
	if d == nil {
		return t
	}
	if d.MostRecentIncome != nil {
		t.Rows[0][1] = money(*d.MostRecentIncome)
	}
	t.Rows = append(t.Rows, []any{}, []any{"paycheck_period", "paycheck_cycle", "income", "expense", "delta"})
	for _, r := range d.IncomeExpenseByPeriod {
		t.Rows = append(t.Rows, []any{r.Period.String(), string(r.Cycle), money(r.Income), money(r.Expense), money(r.Delta)})
	}
	t.Rows = append(t.Rows, []any{}, []any{"paycheck_cycle", "mean_income", "mean_expense", "delta"})
	for _, r := range d.IncomeExpenseMean {
		t.Rows = append(t.Rows, []any{string(r.Cycle), money(r.Income), money(r.Expense), money(r.Delta)})
	}
	return t
}

func recurringTable(d *pipeline.Dashboard) Table {
	t := Table{Name: TabRecurringCharges, Rows: [][]any{{"description", "min_charge_day", "max_charge_day", "mean_amount", "delta"}}}
	if d == nil {
		return t
	}
	for _, r := range d.RecurringChargeRange {
		t.Rows = append(t.Rows, []any{r.Description, r.MinChargeDay, r.MaxChargeDay, money(r.MeanAmount), r.Delta})
	}
	return t
}

func sortedExpensesTable(d *pipeline.Dashboard) Table {
	t := Table{Name: TabSortedExpenses, Rows: [][]any{{"date", "description", "amount", "paycheck_cycle", "paycheck_period"}}}
	if d == nil {
		return t
	}
	for _, x := range d.SortedExpenses {
		t.Rows = append(t.Rows, []any{x.Date.String(), x.Description, money(x.Amount), string(x.Cycle), x.Period.String()})
	}
	return t
}

func ledgersTable(e Export) Table {
	t := Table{Name: TabLedgers}
	if !e.GeneratedAt.IsZero() {
		t.Rows = append(t.Rows, []any{"generated_at", e.GeneratedAt.UTC().Format("2006-01-02 15:04:05")})
	}
	for i, s := range e.Ledgers {
		if i > 0 || len(t.Rows) > 0 {
			t.Rows = append(t.Rows, []any{})
		}
		t.Rows = append(t.Rows, []any{s.Name, strconv.Itoa(len(s.Rows)) + " entries"})
		header := make([]any, len(s.Columns))
		for j, c := range s.Columns {
			header[j] = c
		}
		t.Rows = append(t.Rows, header)
		for _, r := range s.Rows {
			row := make([]any, len(r))
			for j, v := range r {
				row[j] = v
			}
			t.Rows = append(t.Rows, row)
		}
		t.Rows = append(t.Rows, []any{"budget", money(s.Summary.Budget), "spent", money(s.Summary.Spent), "remaining", money(s.Summary.Remaining)})
	}
	return t
}
