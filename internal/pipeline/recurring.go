package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"paycheck/internal/core"
)

// RecurringThreshold is the number of expenses sharing a description that
// makes the description recurring.
const RecurringThreshold = 2

type RecurringByDateRow struct {
	Cycle       core.Cycle      `json:"paycheck_cycle"`
	Description string          `json:"description"`
	Date        core.Date       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
}

type RecurringByDayRow struct {
	Description string          `json:"description"`
	DayOfMonth  int             `json:"day_of_month"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	Amount      decimal.Decimal `json:"amount"`
}

type RecurringByCycleRow struct {
	Cycle       core.Cycle      `json:"paycheck_cycle"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// ChargeRange is the span of days of month a recurring charge has hit.
type ChargeRange struct {
	Description  string          `json:"description"`
	MinChargeDay int             `json:"min_charge_day"`
	MaxChargeDay int             `json:"max_charge_day"`
	MeanAmount   decimal.Decimal `json:"mean_amount"`
	Delta        int             `json:"delta"`
}

// RecurringDescriptions returns, in first-seen order, the descriptions that
// occur in at least RecurringThreshold expenses. Matching is exact.
func RecurringDescriptions(expenses []core.AnnotatedTransaction) []string {
	counts := make(map[string]int)
	var order []string
	for _, t := range expenses {
		if counts[t.Description] == 0 {
			order = append(order, t.Description)
		}
		counts[t.Description]++
	}
	out := []string{}
	for _, d := range order {
		if counts[d] >= RecurringThreshold {
			out = append(out, d)
		}
	}
	return out
}

// RecurringExpenses keeps the expenses whose description is recurring.
func RecurringExpenses(expenses []core.AnnotatedTransaction) []core.AnnotatedTransaction {
	recurring := make(map[string]bool)
	for _, d := range RecurringDescriptions(expenses) {
		recurring[d] = true
	}
	out := []core.AnnotatedTransaction{}
	for _, t := range expenses {
		if recurring[t.Description] {
			out = append(out, t)
		}
	}
	return out
}

type meanGroup[K comparable] struct {
	key   K
	sum   decimal.Decimal
	count int
}

// meanBy groups txns by key, skipping rows for which key reports false, and
// returns the groups ordered by less.
func meanBy[K comparable](txns []core.AnnotatedTransaction, key func(core.AnnotatedTransaction) (K, bool), less func(a, b K) bool) []meanGroup[K] {
	index := make(map[K]int)
	var groups []meanGroup[K]
	for _, t := range txns {
		k, ok := key(t)
		if !ok {
			continue
		}
		i, seen := index[k]
		if !seen {
			i = len(groups)
			index[k] = i
			groups = append(groups, meanGroup[K]{key: k, sum: decimal.Zero})
		}
		groups[i].sum = groups[i].sum.Add(t.Amount)
		groups[i].count++
	}
	sort.SliceStable(groups, func(i, j int) bool { return less(groups[i].key, groups[j].key) })
	return groups
}

type cycleDescDate struct {
	cycle core.Cycle
	desc  string
	date  core.Date
}

// RecurringByDate is the mean recurring amount per (cycle, description, date).
func RecurringByDate(recurring []core.AnnotatedTransaction) []RecurringByDateRow {
	groups := meanBy(recurring,
		func(t core.AnnotatedTransaction) (cycleDescDate, bool) {
			return cycleDescDate{t.Cycle, t.Description, t.Date}, t.Cycle != core.CycleNone
		},
		func(a, b cycleDescDate) bool {
			if a.cycle != b.cycle {
				return a.cycle < b.cycle
			}
			if a.desc != b.desc {
				return a.desc < b.desc
			}
			return a.date.Time.Before(b.date.Time)
		})
	rows := make([]RecurringByDateRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, RecurringByDateRow{
			Cycle:       g.key.cycle,
			Description: g.key.desc,
			Date:        g.key.date,
			Amount:      core.Round2(mean(g.sum, g.count)),
		})
	}
	return rows
}

type descDay struct {
	desc             string
	day, month, year int
}

// RecurringByDay is the mean recurring amount per (description, day of month,
// month, year).
func RecurringByDay(recurring []core.AnnotatedTransaction) []RecurringByDayRow {
	groups := meanBy(recurring,
		func(t core.AnnotatedTransaction) (descDay, bool) {
			return descDay{t.Description, t.DayOfMonth, t.Month, t.Year}, true
		},
		func(a, b descDay) bool {
			switch {
			case a.desc != b.desc:
				return a.desc < b.desc
			case a.day != b.day:
				return a.day < b.day
			case a.month != b.month:
				return a.month < b.month
			default:
				return a.year < b.year
			}
		})
	rows := make([]RecurringByDayRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, RecurringByDayRow{
			Description: g.key.desc,
			DayOfMonth:  g.key.day,
			Month:       g.key.month,
			Year:        g.key.year,
			Amount:      core.Round2(mean(g.sum, g.count)),
		})
	}
	return rows
}

type cycleDesc struct {
	cycle core.Cycle
	desc  string
}

// RecurringByCycle is the mean recurring amount per (cycle, description).
func RecurringByCycle(recurring []core.AnnotatedTransaction) []RecurringByCycleRow {
	groups := meanBy(recurring,
		func(t core.AnnotatedTransaction) (cycleDesc, bool) {
			return cycleDesc{t.Cycle, t.Description}, t.Cycle != core.CycleNone
		},
		func(a, b cycleDesc) bool {
			if a.cycle != b.cycle {
				return a.cycle < b.cycle
			}
			return a.desc < b.desc
		})
	rows := make([]RecurringByCycleRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, RecurringByCycleRow{
			Cycle:       g.key.cycle,
			Description: g.key.desc,
			Amount:      core.Round2(mean(g.sum, g.count)),
		})
	}
	return rows
}

// RecurringChargeRange reports, per recurring description, the earliest and
// latest day of month it was charged and its mean amount. Rows are ordered by
// (min day, max day); ties stay in description order.
func RecurringChargeRange(recurring []core.AnnotatedTransaction) []ChargeRange {
	type span struct {
		min, max int
		sum      decimal.Decimal
		count    int
	}
	spans := make(map[string]*span)
	var descs []string
	for _, t := range recurring {
		s, ok := spans[t.Description]
		if !ok {
			s = &span{min: t.DayOfMonth, max: t.DayOfMonth, sum: decimal.Zero}
			spans[t.Description] = s
			descs = append(descs, t.Description)
		}
		s.min = min(s.min, t.DayOfMonth)
		s.max = max(s.max, t.DayOfMonth)
		s.sum = s.sum.Add(t.Amount)
		s.count++
	}
	sort.Strings(descs)

	rows := make([]ChargeRange, 0, len(descs))
	for _, d := range descs {
		s := spans[d]
		rows = append(rows, ChargeRange{
			Description:  d,
			MinChargeDay: s.min,
			MaxChargeDay: s.max,
			MeanAmount:   core.Round2(mean(s.sum, s.count)),
			Delta:        s.max - s.min,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].MinChargeDay != rows[j].MinChargeDay {
			return rows[i].MinChargeDay < rows[j].MinChargeDay
		}
		return rows[i].MaxChargeDay < rows[j].MaxChargeDay
	})
	return rows
}
