// Package ledger implements the manually maintained expense ledgers. One
// generic Ledger is instantiated per ledger; each pairs an entry store with a
// budget setting.
package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paycheck/internal/core"
	"paycheck/internal/log"
)

// Ledger names.
const (
	Paycheck1 = "paycheck1"
	Paycheck2 = "paycheck2"
	Groceries = "groceries"
)

// Names lists every ledger in display order.
var Names = []string{Paycheck1, Paycheck2, Groceries}

type (
	// Record is an entry type a Ledger can hold. Columns and ParseRow are
	// called on the zero value.
	Record[T any] interface {
		GetID() string
		WithID(id string) T
		Total() decimal.Decimal
		Validate() error
		Columns() []string
		Row() []string
		ParseRow(fields map[string]string) (T, error)
	}

	// Store persists ledger entries. Load never fails: a missing or corrupt
	// source yields an empty ledger and unreadable rows are skipped.
	Store[T any] interface {
		Load(ctx context.Context) []T
		Save(ctx context.Context, entries []T) error
	}

	// BudgetStore persists one budget amount. Load returns zero when unset.
	BudgetStore interface {
		Load(ctx context.Context) decimal.Decimal
		Save(ctx context.Context, amount decimal.Decimal) error
	}

	// Observer is told about every successful change to a ledger.
	Observer func(ctx context.Context, ledger string)
)

// Ledger is an ordered list of entries kept in memory and written through to
// its Store after each mutation. If the write fails the edit is kept and a
// *core.PersistenceError is returned alongside the result.
type Ledger[T Record[T]] struct {
	name   string
	store  Store[T]
	budget BudgetStore
	logger *log.Logger
	newID  func() string

	mu        sync.Mutex
	loaded    bool
	entries   []T
	amount    decimal.Decimal
	observers []Observer
}

// New creates a ledger. Entries are loaded on first use.
func New[T Record[T]](name string, store Store[T], budget BudgetStore, logger *log.Logger) *Ledger[T] {
	if logger == nil {
		logger = log.Discard()
	}
	return &Ledger[T]{
		name:   name,
		store:  store,
		budget: budget,
		logger: logger.WithComponent(log.ComponentLedger).With(log.FieldLedger, name),
		newID:  uuid.NewString,
	}
}

func (l *Ledger[T]) Name() string { return l.name }

// Observe registers fn to run after each change.
func (l *Ledger[T]) Observe(fn Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

func (l *Ledger[T]) ensureLoaded(ctx context.Context) {
	if l.loaded {
		return
	}
	l.entries = l.store.Load(ctx)
	l.amount = l.budget.Load(ctx)
	l.loaded = true

	// rows stored without an id get one now and keep it from the next save on
	missing := false
	for i, e := range l.entries {
		if e.GetID() == "" {
			l.entries[i] = e.WithID(l.newID())
			missing = true
		}
	}
	l.logger.DebugContext(ctx, "Ledger loaded", "entries", len(l.entries), "assigned_ids", missing)
}

// Reload discards the working copy; the next call reads the stores again.
func (l *Ledger[T]) Reload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = false
	l.entries = nil
}

// List returns the entries in insertion order.
func (l *Ledger[T]) List(ctx context.Context) []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)
	return append([]T(nil), l.entries...)
}

// Get returns the entry with the given ID.
func (l *Ledger[T]) Get(ctx context.Context, id string) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)
	if i := l.indexOf(id); i >= 0 {
		return l.entries[i], nil
	}
	var zero T
	return zero, core.ErrEntryNotFound
}

// Add validates e, assigns it a new ID and appends it.
func (l *Ledger[T]) Add(ctx context.Context, e T) (T, error) {
	if err := e.Validate(); err != nil {
		var zero T
		return zero, err
	}
	l.mu.Lock()
	l.ensureLoaded(ctx)
	e = e.WithID(l.newID())
	l.entries = append(l.entries, e)
	err := l.saveLocked(ctx)
	l.mu.Unlock()

	l.changed(ctx, log.OpCreate, e.GetID())
	return e, err
}

// Update replaces the entry with the given ID, keeping its position.
func (l *Ledger[T]) Update(ctx context.Context, id string, e T) (T, error) {
	var zero T
	if err := e.Validate(); err != nil {
		return zero, err
	}
	l.mu.Lock()
	l.ensureLoaded(ctx)
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return zero, core.ErrEntryNotFound
	}
	e = e.WithID(id)
	l.entries[i] = e
	err := l.saveLocked(ctx)
	l.mu.Unlock()

	l.changed(ctx, log.OpUpdate, id)
	return e, err
}

// Delete removes the entry with the given ID.
func (l *Ledger[T]) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	l.ensureLoaded(ctx)
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return core.ErrEntryNotFound
	}
	l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
	err := l.saveLocked(ctx)
	l.mu.Unlock()

	l.changed(ctx, log.OpDelete, id)
	return err
}

// Clear removes every entry.
func (l *Ledger[T]) Clear(ctx context.Context) error {
	l.mu.Lock()
	l.ensureLoaded(ctx)
	l.entries = nil
	err := l.saveLocked(ctx)
	l.mu.Unlock()

	l.changed(ctx, log.OpClear, "")
	return err
}

// Budget returns the configured budget, zero when unset.
func (l *Ledger[T]) Budget(ctx context.Context) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)
	return l.amount
}

// SetBudget stores a non-negative budget.
func (l *Ledger[T]) SetBudget(ctx context.Context, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return core.ErrNegativeAmount
	}
	l.mu.Lock()
	l.ensureLoaded(ctx)
	l.amount = amount
	err := l.budget.Save(ctx, amount)
	l.mu.Unlock()

	if err != nil {
		err = l.persistenceError("save budget", err)
		l.logger.ErrorContext(ctx, "Budget not persisted", log.FieldError, err)
	}
	l.changed(ctx, log.OpUpdate, "")
	return err
}

// Summary compares the budget with the sum of entry totals.
func (l *Ledger[T]) Summary(ctx context.Context) core.BudgetSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)
	return l.summaryLocked()
}

func (l *Ledger[T]) summaryLocked() core.BudgetSummary {
	spent := decimal.Zero
	for _, e := range l.entries {
		spent = spent.Add(e.Total())
	}
	return core.NewBudgetSummary(l.amount, spent)
}

// Snapshot renders the ledger as a table. Rows and summary come from the same
// state.
func (l *Ledger[T]) Snapshot(ctx context.Context) Snapshot {
	var zero T
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	s := Snapshot{
		Name:    l.name,
		Columns: append([]string(nil), zero.Columns()...),
		Rows:    make([][]string, 0, len(l.entries)),
		Summary: l.summaryLocked(),
	}
	for _, e := range l.entries {
		s.Rows = append(s.Rows, e.Row())
	}
	return s
}

func (l *Ledger[T]) indexOf(id string) int {
	for i, e := range l.entries {
		if e.GetID() == id {
			return i
		}
	}
	return -1
}

func (l *Ledger[T]) saveLocked(ctx context.Context) error {
	if err := l.store.Save(ctx, append([]T(nil), l.entries...)); err != nil {
		err = l.persistenceError("save", err)
		l.logger.ErrorContext(ctx, "Ledger not persisted, keeping in-memory copy", log.FieldError, err)
		return err
	}
	return nil
}

func (l *Ledger[T]) persistenceError(op string, err error) error {
	var pe *core.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &core.PersistenceError{Store: l.name, Op: op, Err: err}
}

func (l *Ledger[T]) changed(ctx context.Context, op, id string) {
	l.mu.Lock()
	observers := append([]Observer(nil), l.observers...)
	l.mu.Unlock()

	log.NewStructuredLogger(l.logger).LogLedgerChange(ctx, l.name, op, id)
	for _, fn := range observers {
		fn(ctx, l.name)
	}
}

// Snapshot is a ledger rendered as rows of strings.
type Snapshot struct {
	Name    string             `json:"name"`
	Columns []string           `json:"columns"`
	Rows    [][]string         `json:"rows"`
	Summary core.BudgetSummary `json:"summary"`
}
