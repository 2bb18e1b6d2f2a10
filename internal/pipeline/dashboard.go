package pipeline

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"paycheck/internal/core"
	"paycheck/internal/log"
)

// Options configures a Pipeline.
type Options struct {
	DepositMarker   string
	IncomeSubstring string
	StartingBalance decimal.Decimal
	IncomePolicy    IncomePolicy
}

// DefaultOptions returns the stock deposit rules, a zero starting balance and
// the FirstInPeriod income policy.
func DefaultOptions() Options {
	return Options{
		DepositMarker:   DefaultDepositMarker,
		IncomeSubstring: DefaultIncomeSubstring,
		StartingBalance: decimal.Zero,
		IncomePolicy:    FirstInPeriod,
	}
}

// Dashboard holds every derived view of one pipeline run.
type Dashboard struct {
	GeneratedAt time.Time `json:"generated_at"`

	AllTransactions []core.AnnotatedTransaction `json:"all_transactions"`
	Expenses        []core.AnnotatedTransaction `json:"expenses"`
	Income          []core.AnnotatedTransaction `json:"income"`
	DepositIncome   []core.AnnotatedTransaction `json:"deposit_income"`

	// MostRecentIncome is nil when no deposit has a period.
	MostRecentIncome *decimal.Decimal `json:"most_recent_income"`

	ExpensePivot           []CyclePeriodAmount `json:"expense_pivot"`
	ExpensePaycheck1       []CyclePeriodAmount `json:"expense_paycheck1"`
	ExpensePaycheck2       []CyclePeriodAmount `json:"expense_paycheck2"`
	DepositIncomePivot     []CyclePeriodAmount `json:"deposit_income_pivot"`
	DepositIncomePaycheck1 []CyclePeriodAmount `json:"deposit_income_paycheck1"`
	DepositIncomePaycheck2 []CyclePeriodAmount `json:"deposit_income_paycheck2"`
	AverageCycleExpenses   []CycleAmount       `json:"average_cycle_expenses"`
	CycleExpenseCounts     []CyclePeriodCount  `json:"cycle_expense_counts"`
	CycleExpenseAvgCounts  []CycleAverageCount `json:"cycle_expense_avg_counts"`

	RecurringExpenses    []core.AnnotatedTransaction `json:"recurring_expenses"`
	RecurringByDate      []RecurringByDateRow        `json:"recurring_by_date"`
	RecurringByDay       []RecurringByDayRow         `json:"recurring_by_day"`
	RecurringByCycle     []RecurringByCycleRow       `json:"recurring_by_cycle"`
	RecurringChargeRange []ChargeRange               `json:"recurring_charge_range"`

	SortedExpenses        []core.AnnotatedTransaction `json:"sorted_expenses"`
	IncomeExpenseMean     []IncomeExpense             `json:"income_expense_mean"`
	IncomeExpenseByPeriod []PeriodIncomeExpense       `json:"income_expense_by_period"`
}

// ViewNames lists the names accepted by View, in presentation order.
var ViewNames = []string{
	"all_transactions", "expenses", "income", "deposit_income", "most_recent_income",
	"expense_pivot", "expense_paycheck1", "expense_paycheck2",
	"deposit_income_pivot", "deposit_income_paycheck1", "deposit_income_paycheck2",
	"average_cycle_expenses", "cycle_expense_counts", "cycle_expense_avg_counts",
	"recurring_expenses", "recurring_by_date", "recurring_by_day", "recurring_by_cycle",
	"recurring_charge_range", "sorted_expenses", "income_expense_mean", "income_expense_by_period",
}

// View returns the named view and whether the name is known.
func (d *Dashboard) View(name string) (any, bool) {
	switch name {
	case "all_transactions":
		return d.AllTransactions, true
	case "expenses":
		return d.Expenses, true
	case "income":
		return d.Income, true
	case "deposit_income":
		return d.DepositIncome, true
	case "most_recent_income":
		return d.MostRecentIncome, true
	case "expense_pivot":
		return d.ExpensePivot, true
	case "expense_paycheck1":
		return d.ExpensePaycheck1, true
	case "expense_paycheck2":
		return d.ExpensePaycheck2, true
	case "deposit_income_pivot":
		return d.DepositIncomePivot, true
	case "deposit_income_paycheck1":
		return d.DepositIncomePaycheck1, true
	case "deposit_income_paycheck2":
		return d.DepositIncomePaycheck2, true
	case "average_cycle_expenses":
		return d.AverageCycleExpenses, true
	case "cycle_expense_counts":
		return d.CycleExpenseCounts, true
	case "cycle_expense_avg_counts":
		return d.CycleExpenseAvgCounts, true
	case "recurring_expenses":
		return d.RecurringExpenses, true
	case "recurring_by_date":
		return d.RecurringByDate, true
	case "recurring_by_day":
		return d.RecurringByDay, true
	case "recurring_by_cycle":
		return d.RecurringByCycle, true
	case "recurring_charge_range":
		return d.RecurringChargeRange, true
	case "sorted_expenses":
		return d.SortedExpenses, true
	case "income_expense_mean":
		return d.IncomeExpenseMean, true
	case "income_expense_by_period":
		return d.IncomeExpenseByPeriod, true
	}
	return nil, false
}

// Pipeline computes a Dashboard from uploaded statements.
type Pipeline struct {
	opts   Options
	logger *log.Logger
	now    func() time.Time
}

// New creates a Pipeline. Empty rule strings fall back to the defaults.
func New(opts Options, logger *log.Logger) *Pipeline {
	if opts.DepositMarker == "" {
		opts.DepositMarker = DefaultDepositMarker
	}
	if opts.IncomeSubstring == "" {
		opts.IncomeSubstring = DefaultIncomeSubstring
	}
	if !opts.IncomePolicy.IsValid() {
		opts.IncomePolicy = FirstInPeriod
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Pipeline{
		opts:   opts,
		logger: logger.WithComponent(log.ComponentPipeline),
		now:    time.Now,
	}
}

// Options returns the effective options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Run recomputes every view from scratch. Malformed rows abort the run; an
// upload set without transactions yields an EmptyTransactionSetError.
func (p *Pipeline) Run(ctx context.Context, batches []core.StatementBatch) (*Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	txns, err := Normalize(batches)
	if err != nil {
		p.logger.WarnContext(ctx, "Statement normalization failed",
			log.FieldOperation, log.OpParse,
			log.FieldError, err)
		return nil, err
	}
	if len(txns) == 0 {
		return nil, &core.EmptyTransactionSetError{View: "transactions"}
	}

	txns = AssignCycles(txns, p.opts.DepositMarker)
	txns = ComputeRunningTotal(txns, p.opts.StartingBalance)
	split := SplitTransactions(txns, p.opts.IncomeSubstring)

	d := &Dashboard{
		GeneratedAt:     p.now().UTC(),
		AllTransactions: descending(txns),
		Expenses:        nonNil(split.Expenses),
		Income:          nonNil(split.Income),
		DepositIncome:   nonNil(split.DepositIncome),
	}

	switch amount, err := MostRecentIncome(split.DepositIncome, p.opts.IncomePolicy); {
	case err == nil:
		d.MostRecentIncome = &amount
	case core.IsEmptySet(err):
		p.logger.DebugContext(ctx, "No most recent income", log.FieldError, err)
	default:
		return nil, err
	}

	d.ExpensePivot = ExpensePivot(split.Expenses)
	d.ExpensePaycheck1 = CyclePivotFor(d.ExpensePivot, core.Cycle1)
	d.ExpensePaycheck2 = CyclePivotFor(d.ExpensePivot, core.Cycle2)
	d.DepositIncomePivot = DepositIncomePivot(split.DepositIncome)
	d.DepositIncomePaycheck1 = CyclePivotFor(d.DepositIncomePivot, core.Cycle1)
	d.DepositIncomePaycheck2 = CyclePivotFor(d.DepositIncomePivot, core.Cycle2)
	d.AverageCycleExpenses = nonNil(AverageCycleExpenses(split.Expenses))
	d.CycleExpenseCounts = CycleExpenseCounts(split.Expenses)
	d.CycleExpenseAvgCounts = nonNil(CycleExpenseAvgCounts(split.Expenses))

	d.RecurringExpenses = RecurringExpenses(split.Expenses)
	d.RecurringByDate = RecurringByDate(d.RecurringExpenses)
	d.RecurringByDay = RecurringByDay(d.RecurringExpenses)
	d.RecurringByCycle = RecurringByCycle(d.RecurringExpenses)
	d.RecurringChargeRange = RecurringChargeRange(d.RecurringExpenses)

	d.SortedExpenses = SortedExpenses(d.Expenses)
	d.IncomeExpenseMean = IncomeExpenseMean(split.DepositIncome, split.Expenses)
	d.IncomeExpenseByPeriod = IncomeExpenseByPeriod(split.DepositIncome, split.Expenses)

	p.logger.InfoContext(ctx, "Dashboard computed",
		"files", len(batches),
		"transactions", len(txns),
		"expenses", len(d.Expenses),
		"recurring", len(d.RecurringChargeRange),
		log.FieldDuration, time.Since(start).Milliseconds())
	return d, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
