package pipeline

import (
	"github.com/shopspring/decimal"

	"paycheck/internal/core"
)

// ComputeRunningTotal sets RunningTotal to start plus the cumulative sum of
// amounts in input order. Input must be sorted ascending by date.
func ComputeRunningTotal(txns []core.AnnotatedTransaction, start decimal.Decimal) []core.AnnotatedTransaction {
	out := make([]core.AnnotatedTransaction, len(txns))
	running := start
	for i, t := range txns {
		running = running.Add(t.Amount)
		t.RunningTotal = running
		out[i] = t
	}
	return out
}
