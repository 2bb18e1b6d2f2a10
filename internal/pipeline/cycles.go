package pipeline

import "paycheck/internal/core"

// DefaultDepositMarker is the exact description of a paycheck deposit.
const DefaultDepositMarker = "Defense Finance and Accounting Service"

// AssignCycles labels each transaction with the paycheck that funds it and
// the budget period that paycheck belongs to. Input must be sorted ascending
// by date, as returned by Normalize.
//
// Deposits (description equal to marker) alternate Paycheck 1, Paycheck 2.
// A period starts at the month of each Paycheck 1 deposit and is shifted one
// month forward, so a deposit on 2024-01-15 funds period 2024-02. A
// transaction belongs to the last deposit dated on or before it; when several
// deposits share a date the later one wins. Transactions before the first
// deposit get no cycle but inherit the first deposit's period. With no
// deposits every cycle and period stays null.
func AssignCycles(txns []core.AnnotatedTransaction, marker string) []core.AnnotatedTransaction {
	out := make([]core.AnnotatedTransaction, len(txns))
	copy(out, txns)

	type deposit struct {
		date   core.Date
		cycle  core.Cycle
		period core.YearMonth
	}
	var deposits []deposit
	n := 1
	var period core.YearMonth
	for _, t := range out {
		if t.Description != marker {
			continue
		}
		if n == 1 {
			period = core.MonthOf(t.Date)
		}
		deposits = append(deposits, deposit{date: t.Date, cycle: core.CycleFor(n), period: period})
		n = 3 - n
	}

	var leading core.YearMonth
	if len(deposits) > 0 {
		leading = deposits[0].period
	}

	next := 0 // first deposit not yet in effect
	for i := range out {
		for next < len(deposits) && !deposits[next].date.Time.After(out[i].Date.Time) {
			next++
		}
		if next == 0 {
			out[i].Cycle = core.CycleNone
			out[i].Period = leading.AddMonths(1)
			continue
		}
		d := deposits[next-1]
		out[i].Cycle = d.cycle
		out[i].Period = d.period.AddMonths(1)
	}
	return out
}
