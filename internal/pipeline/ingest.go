// Package pipeline turns uploaded statement rows into the derived views of the
// dashboard: paycheck cycle assignment, running balance and aggregations.
//
// Every stage returns a new slice and leaves its input untouched.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"paycheck/internal/core"
)

// Layouts accepted for statement dates, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"2006/01/02",
	"Jan 2, 2006",
}

func parseStatementDate(s string) (core.Date, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}, true
		}
	}
	return core.Date{}, false
}

// Normalize concatenates the batches, parses each row and returns the
// transactions sorted ascending by date. Rows sharing a date keep their
// upload order. Duplicate rows are kept.
func Normalize(batches []core.StatementBatch) ([]core.AnnotatedTransaction, error) {
	var out []core.AnnotatedTransaction
	for _, b := range batches {
		for i, row := range b.Rows {
			d, ok := parseStatementDate(row.Date)
			if !ok {
				return nil, &core.MalformedDateError{File: b.FileName, Row: i + 1, Value: row.Date}
			}
			amount, err := core.ParseAmount(row.Amount)
			if err != nil {
				return nil, &core.MalformedAmountError{File: b.FileName, Row: i + 1, Value: row.Amount}
			}
			out = append(out, annotate(core.Transaction{
				Date:        d,
				Description: strings.TrimSpace(row.Description),
				Amount:      amount,
			}))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Time.Before(out[j].Date.Time)
	})
	return out, nil
}

func annotate(t core.Transaction) core.AnnotatedTransaction {
	return core.AnnotatedTransaction{
		Transaction: t,
		DayOfMonth:  t.Date.Day(),
		Month:       t.Date.Month(),
		Year:        t.Date.Year(),
	}
}

// descending returns a copy ordered newest first. Equal dates keep their
// relative order.
func descending(txns []core.AnnotatedTransaction) []core.AnnotatedTransaction {
	out := make([]core.AnnotatedTransaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Time.After(out[j].Date.Time)
	})
	return out
}

func ascending(txns []core.AnnotatedTransaction) []core.AnnotatedTransaction {
	out := make([]core.AnnotatedTransaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Time.Before(out[j].Date.Time)
	})
	return out
}
