// Package core provides amount parsing and rounding utilities.
//
// Amounts are carried as decimal.Decimal at full precision through every
// computation and rounded to cents only when a value leaves the system.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a statement amount to a signed decimal.
//
// It accepts an optional leading sign, an optional "$" and thousands
// separators ahead of a dot decimal point. Anything else that does not
// parse is rejected; an unparseable amount never defaults to zero.
//
// Examples:
//
//	ParseAmount("-12.34")    -> -12.34
//	ParseAmount("$1,234.50") -> 1234.5
//	ParseAmount("-$30")      -> -30
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if dot := strings.Index(s, "."); dot >= 0 {
		if strings.LastIndex(s, ",") > dot {
			return decimal.Zero, ErrInvalidAmount
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" || strings.ContainsAny(s, "+-eE ") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// ParseNonNegative parses a manually entered cost. Zero is allowed.
func ParseNonNegative(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// Round2 rounds to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatUSD formats an amount as a dollar string (e.g. "-$1,234.50").
func FormatUSD(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := Round2(d.Abs()).StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
