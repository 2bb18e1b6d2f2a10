package pipeline

import (
	"fmt"

	"github.com/shopspring/decimal"

	"paycheck/internal/core"
)

// IncomePolicy selects which deposit of the most recent period is reported as
// the most recent income.
type IncomePolicy string

const (
	// FirstInPeriod picks the earliest deposit of the latest period.
	FirstInPeriod IncomePolicy = "first-in-period"
	// LatestInPeriod picks the newest deposit of the latest period.
	LatestInPeriod IncomePolicy = "latest-in-period"
	// LegacySlice orders the latest period newest first, drops the last
	// element and takes the first. It needs two deposits in the period.
	LegacySlice IncomePolicy = "legacy-slice"
)

// IsValid reports whether p is a known policy.
func (p IncomePolicy) IsValid() bool {
	switch p {
	case FirstInPeriod, LatestInPeriod, LegacySlice:
		return true
	}
	return false
}

// ParseIncomePolicy maps a configuration value to a policy. Empty selects
// FirstInPeriod.
func ParseIncomePolicy(s string) (IncomePolicy, error) {
	if s == "" {
		return FirstInPeriod, nil
	}
	p := IncomePolicy(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown income policy %q", s)
	}
	return p, nil
}

// MostRecentIncome returns the amount of one deposit from the maximum
// paycheck period according to policy.
func MostRecentIncome(depositIncome []core.AnnotatedTransaction, policy IncomePolicy) (decimal.Decimal, error) {
	var latest core.YearMonth
	for _, t := range depositIncome {
		if !t.Period.IsZero() && (latest.IsZero() || latest.Before(t.Period)) {
			latest = t.Period
		}
	}
	empty := &core.EmptyTransactionSetError{View: "most_recent_income"}
	if latest.IsZero() {
		return decimal.Zero, empty
	}

	var group []core.AnnotatedTransaction
	for _, t := range ascending(depositIncome) {
		if t.Period == latest {
			group = append(group, t)
		}
	}

	switch policy {
	case LatestInPeriod:
		return group[len(group)-1].Amount, nil
	case LegacySlice:
		if len(group) < 2 {
			return decimal.Zero, empty
		}
		newestFirst := descending(group)
		return newestFirst[:len(newestFirst)-1][0].Amount, nil
	default:
		return group[0].Amount, nil
	}
}
