package core

import "github.com/shopspring/decimal"

// BudgetSummary compares a ledger's budget with what has been recorded against it.
type BudgetSummary struct {
	Budget    decimal.Decimal `json:"budget"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

// NewBudgetSummary computes remaining = budget - spent, rounded for display.
func NewBudgetSummary(budget, spent decimal.Decimal) BudgetSummary {
	return BudgetSummary{
		Budget:    Round2(budget),
		Spent:     Round2(spent),
		Remaining: Round2(budget.Sub(spent)),
	}
}
