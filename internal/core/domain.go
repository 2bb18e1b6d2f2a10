package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CycleNone Cycle = ""
	Cycle1    Cycle = "Paycheck 1"
	Cycle2    Cycle = "Paycheck 2"
)

const dateLayout = "2006-01-02"

type (
	// Cycle labels which of the two alternating paychecks funds a transaction.
	Cycle string

	Date struct {
		time.Time
	}

	// YearMonth is a budget period label such as 2024-02. The zero value is the
	// null period.
	YearMonth struct {
		Year  int
		Month time.Month
	}

	// RawRow is one uploaded statement row before parsing.
	RawRow struct {
		Date        string `json:"date"`
		Description string `json:"description"`
		Amount      string `json:"amount"`
	}

	// StatementBatch is the content of one uploaded statement file.
	StatementBatch struct {
		FileName string   `json:"file_name"`
		Rows     []RawRow `json:"rows"`
	}

	Transaction struct {
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
	}

	AnnotatedTransaction struct {
		Transaction
		DayOfMonth   int             `json:"day_of_month"`
		Month        int             `json:"month"`
		Year         int             `json:"year"`
		Cycle        Cycle           `json:"paycheck_cycle"`
		Period       YearMonth       `json:"paycheck_period"`
		RunningTotal decimal.Decimal `json:"running_total"`
	}

	// PaycheckExpense is a manually tracked expense funded by one paycheck.
	PaycheckExpense struct {
		ID    string          `json:"id"`
		Label string          `json:"txn"`
		Cost  decimal.Decimal `json:"cost"`
		Date  Date            `json:"d"`
	}

	// GroceryExpense is a manually tracked grocery purchase.
	GroceryExpense struct {
		ID     string          `json:"id"`
		Date   Date            `json:"date"`
		Store  string          `json:"store"`
		Amount decimal.Decimal `json:"amount"`
	}
)

var (
	ErrInvalidDay     = errors.New("invalid day")
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidDate    = errors.New("date cannot be zero")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrEmptyLabel     = errors.New("empty label")
	ErrLabelTooLong   = errors.New("label too long (max 200 characters)")
)

// CycleFor returns the label of paycheck n (1 or 2).
func CycleFor(n int) Cycle {
	if n == 2 {
		return Cycle2
	}
	return Cycle1
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// MonthOf returns the period a date falls in.
func MonthOf(d Date) YearMonth {
	return YearMonth{Year: d.Year(), Month: time.Month(d.Month())}
}

// ParseYearMonth parses a YYYY-MM label.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

// AddMonths shifts the period by n calendar months.
func (ym YearMonth) AddMonths(n int) YearMonth {
	if ym.IsZero() {
		return ym
	}
	t := time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

func (ym YearMonth) String() string {
	if ym.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) MarshalJSON() ([]byte, error) {
	if ym.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + ym.String() + `"`), nil
}

func (ym *YearMonth) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*ym = YearMonth{}
		return nil
	}
	parsed, err := ParseYearMonth(s)
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

func (c Cycle) MarshalJSON() ([]byte, error) {
	if c == CycleNone {
		return []byte("null"), nil
	}
	return []byte(`"` + string(c) + `"`), nil
}

func (c *Cycle) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*c = Cycle(s)
	return nil
}

// PaycheckExpenseColumns are the persisted columns of a paycheck ledger.
var PaycheckExpenseColumns = []string{"txn", "cost", "d"}

// GroceryExpenseColumns are the persisted columns of the grocery ledger.
var GroceryExpenseColumns = []string{"date", "store", "amount"}

func (e PaycheckExpense) GetID() string { return e.ID }

func (e PaycheckExpense) WithID(id string) PaycheckExpense {
	e.ID = id
	return e
}

func (e PaycheckExpense) Total() decimal.Decimal { return e.Cost }

func (e PaycheckExpense) Validate() error {
	if err := validateLabel(e.Label); err != nil {
		return err
	}
	if err := validateCost(e.Cost); err != nil {
		return err
	}
	return e.Date.Validate()
}

func (PaycheckExpense) Columns() []string { return PaycheckExpenseColumns }

func (e PaycheckExpense) Row() []string {
	return []string{e.Label, Round2(e.Cost).StringFixed(2), e.Date.String()}
}

// ParseRow builds an entry from persisted column values keyed by column name.
func (PaycheckExpense) ParseRow(fields map[string]string) (PaycheckExpense, error) {
	cost, err := ParseNonNegative(fields["cost"])
	if err != nil {
		return PaycheckExpense{}, fmt.Errorf("cost %q: %w", fields["cost"], err)
	}
	d, err := parseLedgerDate(fields["d"])
	if err != nil {
		return PaycheckExpense{}, err
	}
	e := PaycheckExpense{ID: fields["id"], Label: strings.TrimSpace(fields["txn"]), Cost: cost, Date: d}
	return e, e.Validate()
}

func (e GroceryExpense) GetID() string { return e.ID }

func (e GroceryExpense) WithID(id string) GroceryExpense {
	e.ID = id
	return e
}

func (e GroceryExpense) Total() decimal.Decimal { return e.Amount }

func (e GroceryExpense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := validateLabel(e.Store); err != nil {
		return err
	}
	return validateCost(e.Amount)
}

func (GroceryExpense) Columns() []string { return GroceryExpenseColumns }

func (e GroceryExpense) Row() []string {
	return []string{e.Date.String(), e.Store, Round2(e.Amount).StringFixed(2)}
}

// ParseRow builds an entry from persisted column values keyed by column name.
func (GroceryExpense) ParseRow(fields map[string]string) (GroceryExpense, error) {
	amount, err := ParseNonNegative(fields["amount"])
	if err != nil {
		return GroceryExpense{}, fmt.Errorf("amount %q: %w", fields["amount"], err)
	}
	d, err := parseLedgerDate(fields["date"])
	if err != nil {
		return GroceryExpense{}, err
	}
	e := GroceryExpense{ID: fields["id"], Date: d, Store: strings.TrimSpace(fields["store"]), Amount: amount}
	return e, e.Validate()
}

// parseLedgerDate accepts ISO dates, optionally followed by a time part.
func parseLedgerDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, fmt.Errorf("date %q: %w", s, ErrInvalidDate)
	}
	return d, nil
}

// validateCost requires a non-negative amount in whole cents, so a stored row
// reads back equal to the entry that was saved.
func validateCost(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrNegativeAmount
	}
	if !d.Equal(Round2(d)) {
		return fmt.Errorf("more than two decimal places: %w", ErrInvalidAmount)
	}
	return nil
}

func validateLabel(s string) error {
	if len(strings.TrimSpace(s)) == 0 {
		return ErrEmptyLabel
	}
	if len(s) > 200 {
		return ErrLabelTooLong
	}
	return nil
}
