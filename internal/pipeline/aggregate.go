package pipeline

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"paycheck/internal/core"
)

// DefaultIncomeSubstring selects deposit income. Matching is by substring,
// unlike the exact DefaultDepositMarker.
const DefaultIncomeSubstring = "Defense"

// Split partitions transactions. Expense amounts are stored as positive
// magnitudes. Each listing is ordered newest first.
type Split struct {
	Expenses      []core.AnnotatedTransaction
	Income        []core.AnnotatedTransaction
	DepositIncome []core.AnnotatedTransaction
}

// CyclePeriodAmount is one cell of a (cycle, period) pivot.
type CyclePeriodAmount struct {
	Cycle  core.Cycle      `json:"paycheck_cycle"`
	Period core.YearMonth  `json:"paycheck_period"`
	Amount decimal.Decimal `json:"amount"`
}

type CycleAmount struct {
	Cycle  core.Cycle      `json:"paycheck_cycle"`
	Amount decimal.Decimal `json:"amount"`
}

type CyclePeriodCount struct {
	Cycle  core.Cycle     `json:"paycheck_cycle"`
	Period core.YearMonth `json:"paycheck_period"`
	Count  int            `json:"count"`
}

type CycleAverageCount struct {
	Cycle        core.Cycle      `json:"paycheck_cycle"`
	AverageCount decimal.Decimal `json:"average_count"`
}

// IncomeExpense compares mean deposit income with mean cycle spending.
type IncomeExpense struct {
	Cycle   core.Cycle      `json:"paycheck_cycle"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Delta   decimal.Decimal `json:"delta"`
}

// PeriodIncomeExpense compares income and spending of one paycheck interval.
type PeriodIncomeExpense struct {
	Period  core.YearMonth  `json:"paycheck_period"`
	Cycle   core.Cycle      `json:"paycheck_cycle"`
	Expense decimal.Decimal `json:"expense"`
	Income  decimal.Decimal `json:"income"`
	Delta   decimal.Decimal `json:"delta"`
}

// SplitTransactions derives the expense, income and deposit income listings.
// Zero amounts are neither expense nor income.
func SplitTransactions(txns []core.AnnotatedTransaction, incomeSubstring string) Split {
	var s Split
	for _, t := range descending(txns) {
		switch {
		case t.Amount.IsNegative():
			e := t
			e.Amount = t.Amount.Neg()
			s.Expenses = append(s.Expenses, e)
		case t.Amount.IsPositive():
			s.Income = append(s.Income, t)
		}
		if incomeSubstring != "" && strings.Contains(t.Description, incomeSubstring) {
			s.DepositIncome = append(s.DepositIncome, t)
		}
	}
	return s
}

type cyclePeriod struct {
	cycle  core.Cycle
	period core.YearMonth
}

func lessCyclePeriod(a, b cyclePeriod) bool {
	if a.cycle != b.cycle {
		return a.cycle < b.cycle
	}
	return a.period.Before(b.period)
}

type cpGroup struct {
	key   cyclePeriod
	sum   decimal.Decimal
	count int
}

// groupByCyclePeriod sums amounts per (cycle, period). Rows without a cycle
// or period are left out.
func groupByCyclePeriod(txns []core.AnnotatedTransaction) []cpGroup {
	index := make(map[cyclePeriod]int)
	var groups []cpGroup
	for _, t := range txns {
		if t.Cycle == core.CycleNone || t.Period.IsZero() {
			continue
		}
		k := cyclePeriod{cycle: t.Cycle, period: t.Period}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, cpGroup{key: k, sum: decimal.Zero})
		}
		groups[i].sum = groups[i].sum.Add(t.Amount)
		groups[i].count++
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return lessCyclePeriod(groups[i].key, groups[j].key)
	})
	return groups
}

// ExpensePivot sums amounts per (cycle, period), ordered by cycle then period.
func ExpensePivot(txns []core.AnnotatedTransaction) []CyclePeriodAmount {
	groups := groupByCyclePeriod(txns)
	rows := make([]CyclePeriodAmount, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, CyclePeriodAmount{Cycle: g.key.cycle, Period: g.key.period, Amount: core.Round2(g.sum)})
	}
	return rows
}

// DepositIncomePivot is ExpensePivot applied to deposit income.
func DepositIncomePivot(depositIncome []core.AnnotatedTransaction) []CyclePeriodAmount {
	return ExpensePivot(depositIncome)
}

// CyclePivotFor keeps the pivot rows of one cycle.
func CyclePivotFor(rows []CyclePeriodAmount, cycle core.Cycle) []CyclePeriodAmount {
	out := []CyclePeriodAmount{}
	for _, r := range rows {
		if r.Cycle == cycle {
			out = append(out, r)
		}
	}
	return out
}

// AverageCycleExpenses is the mean over periods of each cycle's per-period
// expense sum.
func AverageCycleExpenses(expenses []core.AnnotatedTransaction) []CycleAmount {
	groups := groupByCyclePeriod(expenses)
	var rows []CycleAmount
	for _, m := range meanPerCycle(groups, func(g cpGroup) decimal.Decimal { return g.sum }) {
		rows = append(rows, CycleAmount{Cycle: m.cycle, Amount: core.Round2(m.mean)})
	}
	return rows
}

// CycleExpenseCounts counts expenses per (cycle, period).
func CycleExpenseCounts(expenses []core.AnnotatedTransaction) []CyclePeriodCount {
	groups := groupByCyclePeriod(expenses)
	rows := make([]CyclePeriodCount, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, CyclePeriodCount{Cycle: g.key.cycle, Period: g.key.period, Count: g.count})
	}
	return rows
}

// CycleExpenseAvgCounts is the mean per-period expense count of each cycle.
func CycleExpenseAvgCounts(expenses []core.AnnotatedTransaction) []CycleAverageCount {
	groups := groupByCyclePeriod(expenses)
	var rows []CycleAverageCount
	for _, m := range meanPerCycle(groups, func(g cpGroup) decimal.Decimal { return decimal.NewFromInt(int64(g.count)) }) {
		rows = append(rows, CycleAverageCount{Cycle: m.cycle, AverageCount: core.Round2(m.mean)})
	}
	return rows
}

type cycleMean struct {
	cycle core.Cycle
	mean  decimal.Decimal
}

// meanPerCycle averages value(g) over the groups of each cycle. groups must
// be ordered by cycle.
func meanPerCycle(groups []cpGroup, value func(cpGroup) decimal.Decimal) []cycleMean {
	var out []cycleMean
	for i := 0; i < len(groups); {
		j := i
		sum := decimal.Zero
		for j < len(groups) && groups[j].key.cycle == groups[i].key.cycle {
			sum = sum.Add(value(groups[j]))
			j++
		}
		out = append(out, cycleMean{cycle: groups[i].key.cycle, mean: mean(sum, j-i)})
		i = j
	}
	return out
}

func mean(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}

// SortedExpenses orders expenses by cycle ascending (unassigned last), amount
// descending, description ascending, then date ascending.
func SortedExpenses(expenses []core.AnnotatedTransaction) []core.AnnotatedTransaction {
	out := make([]core.AnnotatedTransaction, len(expenses))
	copy(out, expenses)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Cycle != b.Cycle {
			if a.Cycle == core.CycleNone {
				return false
			}
			if b.Cycle == core.CycleNone {
				return true
			}
			return a.Cycle < b.Cycle
		}
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		if a.Description != b.Description {
			return a.Description < b.Description
		}
		return a.Date.Time.Before(b.Date.Time)
	})
	return out
}

// IncomeExpenseMean joins the mean deposit income of each cycle with its
// average expense. Cycles missing on either side are dropped.
func IncomeExpenseMean(depositIncome, expenses []core.AnnotatedTransaction) []IncomeExpense {
	income := make(map[core.Cycle]decimal.Decimal)
	counts := make(map[core.Cycle]int)
	for _, t := range depositIncome {
		if t.Cycle == core.CycleNone {
			continue
		}
		income[t.Cycle] = income[t.Cycle].Add(t.Amount)
		counts[t.Cycle]++
	}
	rows := []IncomeExpense{}
	for _, avg := range AverageCycleExpenses(expenses) {
		n, ok := counts[avg.Cycle]
		if !ok {
			continue
		}
		in := core.Round2(mean(income[avg.Cycle], n))
		rows = append(rows, IncomeExpense{
			Cycle:   avg.Cycle,
			Income:  in,
			Expense: avg.Amount,
			Delta:   in.Sub(avg.Amount),
		})
	}
	return rows
}

// IncomeExpenseByPeriod joins per-(period, cycle) deposit income and expense
// sums, newest period first.
func IncomeExpenseByPeriod(depositIncome, expenses []core.AnnotatedTransaction) []PeriodIncomeExpense {
	income := make(map[cyclePeriod]decimal.Decimal)
	for _, g := range groupByCyclePeriod(depositIncome) {
		income[g.key] = core.Round2(g.sum)
	}
	rows := []PeriodIncomeExpense{}
	for _, g := range groupByCyclePeriod(expenses) {
		in, ok := income[g.key]
		if !ok {
			continue
		}
		exp := core.Round2(g.sum)
		rows = append(rows, PeriodIncomeExpense{
			Period:  g.key.period,
			Cycle:   g.key.cycle,
			Expense: exp,
			Income:  in,
			Delta:   in.Sub(exp),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Period != rows[j].Period {
			return rows[j].Period.Before(rows[i].Period)
		}
		return rows[i].Cycle < rows[j].Cycle
	})
	return rows
}
