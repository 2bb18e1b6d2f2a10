package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2024, 1, 1), true},
		{NewDate(2024, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 2, 15))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-02-15"` {
		t.Fatalf("unexpected json %s", b)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2024-03-01"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Year() != 2024 || d.Month() != 3 || d.Day() != 1 {
		t.Fatalf("unexpected date %v", d)
	}
	if err := json.Unmarshal([]byte(`"03/01/2024"`), &d); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}
}

func TestYearMonth(t *testing.T) {
	ym := MonthOf(NewDate(2024, 12, 20))
	if got := ym.AddMonths(1).String(); got != "2025-01" {
		t.Fatalf("expected 2025-01, got %s", got)
	}
	if !ym.Before(ym.AddMonths(1)) {
		t.Fatalf("expected %s before next month", ym)
	}
	if (YearMonth{}).AddMonths(1) != (YearMonth{}) {
		t.Fatalf("null period must stay null")
	}
	b, _ := json.Marshal(YearMonth{})
	if string(b) != "null" {
		t.Fatalf("expected null, got %s", b)
	}
	parsed, err := ParseYearMonth("2024-02")
	if err != nil || parsed != (YearMonth{Year: 2024, Month: time.February}) {
		t.Fatalf("unexpected parse %v err=%v", parsed, err)
	}
}

func TestCycleJSON(t *testing.T) {
	b, _ := json.Marshal(struct {
		A Cycle `json:"a"`
		B Cycle `json:"b"`
	}{A: Cycle1})
	if string(b) != `{"a":"Paycheck 1","b":null}` {
		t.Fatalf("unexpected json %s", b)
	}
	if CycleFor(2) != Cycle2 || CycleFor(1) != Cycle1 {
		t.Fatalf("CycleFor mismatch")
	}
}

func TestPaycheckExpenseValidate(t *testing.T) {
	good := PaycheckExpense{Label: "Rent", Cost: decimal.NewFromInt(1200), Date: NewDate(2024, 1, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := good
	zero.Cost = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero cost should be allowed, got %v", err)
	}

	cases := []struct {
		e    PaycheckExpense
		want error
	}{
		{PaycheckExpense{Label: "", Cost: decimal.NewFromInt(1), Date: NewDate(2024, 1, 1)}, ErrEmptyLabel},
		{PaycheckExpense{Label: "a", Cost: decimal.NewFromInt(-1), Date: NewDate(2024, 1, 1)}, ErrNegativeAmount},
		{PaycheckExpense{Label: "a", Cost: decimal.NewFromInt(1)}, ErrInvalidDate},
		{PaycheckExpense{Label: "a", Cost: decimal.RequireFromString("12.345"), Date: NewDate(2024, 1, 1)}, ErrInvalidAmount},
		{PaycheckExpense{Label: strings.Repeat("x", 201), Cost: decimal.NewFromInt(1), Date: NewDate(2024, 1, 1)}, ErrLabelTooLong},
	}
	for i, tc := range cases {
		if err := tc.e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestGroceryExpenseValidate(t *testing.T) {
	good := GroceryExpense{Date: NewDate(2024, 1, 3), Store: "Aldi", Amount: decimal.RequireFromString("54.20")}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got := good.WithID("abc"); got.GetID() != "abc" || good.GetID() != "" {
		t.Fatalf("WithID must copy, got %q / %q", got.GetID(), good.GetID())
	}
	bad := good
	bad.Store = "   "
	if err := bad.Validate(); !errors.Is(err, ErrEmptyLabel) {
		t.Fatalf("expected ErrEmptyLabel, got %v", err)
	}
	fine := good
	fine.Amount = decimal.RequireFromString("54.205")
	if err := fine.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for sub-cent amount, got %v", err)
	}
	fine.Amount = decimal.RequireFromString("54.200")
	if err := fine.Validate(); err != nil {
		t.Fatalf("trailing zeros should be allowed, got %v", err)
	}
}

func TestLedgerRowRoundTrip(t *testing.T) {
	p := PaycheckExpense{ID: "1", Label: "Car note", Cost: decimal.RequireFromString("310.5"), Date: NewDate(2024, 3, 1)}
	fields := map[string]string{"id": p.ID}
	for i, c := range p.Columns() {
		fields[c] = p.Row()[i]
	}
	got, err := PaycheckExpense{}.ParseRow(fields)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.ID != "1" || got.Label != "Car note" || !got.Cost.Equal(p.Cost) || got.Date != p.Date {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	g, err := GroceryExpense{}.ParseRow(map[string]string{"date": "2024-03-02 00:00:00", "store": "Aldi", "amount": "41"})
	if err != nil || g.Date != NewDate(2024, 3, 2) {
		t.Fatalf("expected timestamped date to parse, got %+v err=%v", g, err)
	}
	if _, err := (GroceryExpense{}).ParseRow(map[string]string{"date": "bad", "store": "Aldi", "amount": "1"}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
