package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"-12.34", "-12.34", true},
		{"+5.5", "5.5", true},
		{" 2.50 ", "2.5", true},
		{"$1,234.50", "1234.5", true},
		{"-$30", "-30", true},
		{"0", "0", true},
		{"1,23", "", false},
		{"1.234,56", "", false},
		{"1,234.5,6", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"--1", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestParseNonNegative(t *testing.T) {
	if _, err := ParseNonNegative("-1"); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	d, err := ParseNonNegative("0")
	if err != nil || !d.IsZero() {
		t.Fatalf("expected zero, got %s err=%v", d, err)
	}
}

func TestRound2(t *testing.T) {
	cases := map[string]string{
		"1.005":  "1.01",
		"-1.005": "-1.01",
		"2.994":  "2.99",
		"10":     "10",
	}
	for in, want := range cases {
		if got := Round2(decimal.RequireFromString(in)); !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("Round2(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	cases := map[string]string{
		"0":        "$0.00",
		"1234.5":   "$1,234.50",
		"-1234567": "-$1,234,567.00",
		"999.999":  "$1,000.00",
		"12.3":     "$12.30",
	}
	for in, want := range cases {
		if got := FormatUSD(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatUSD(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestBudgetSummary(t *testing.T) {
	s := NewBudgetSummary(decimal.NewFromInt(400), decimal.RequireFromString("150.255"))
	if !s.Remaining.Equal(decimal.RequireFromString("249.75")) {
		t.Fatalf("unexpected remaining %s", s.Remaining)
	}
}
