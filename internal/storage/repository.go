// Package storage persists ledgers, budgets and uploaded statements in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"paycheck/internal/core"
	"paycheck/internal/ledger"
	"paycheck/internal/log"
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it to the latest schema.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// LedgerStore is a ledger.Store backed by the ledger_entries table. Entries
// are stored as JSON.
type LedgerStore[T ledger.Record[T]] struct {
	repo *SQLiteRepository
	name string
}

// NewLedgerStore returns the store for the named ledger.
func NewLedgerStore[T ledger.Record[T]](repo *SQLiteRepository, name string) *LedgerStore[T] {
	return &LedgerStore[T]{repo: repo, name: name}
}

func (s *LedgerStore[T]) Load(ctx context.Context) []T {
	rows, err := s.repo.db.QueryContext(ctx,
		`SELECT id, payload FROM ledger_entries WHERE ledger = ? ORDER BY position`, s.name)
	if err != nil {
		s.repo.logger.WarnContext(ctx, "Ledger query failed, starting empty", log.FieldLedger, s.name, log.FieldError, err)
		return nil
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			s.repo.logger.WarnContext(ctx, "Skipping unreadable ledger row", log.FieldLedger, s.name, log.FieldError, err)
			continue
		}
		var e T
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			s.repo.logger.WarnContext(ctx, "Skipping unreadable ledger row", log.FieldLedger, s.name, log.FieldEntryID, id, log.FieldError, err)
			continue
		}
		if err := e.Validate(); err != nil {
			s.repo.logger.WarnContext(ctx, "Skipping invalid ledger row", log.FieldLedger, s.name, log.FieldEntryID, id, log.FieldError, err)
			continue
		}
		out = append(out, e.WithID(id))
	}
	if err := rows.Err(); err != nil {
		s.repo.logger.WarnContext(ctx, "Ledger rows incomplete", log.FieldLedger, s.name, log.FieldError, err)
	}
	return out
}

// Save replaces the ledger's rows in one transaction.
func (s *LedgerStore[T]) Save(ctx context.Context, entries []T) error {
	fail := func(op string, err error) error {
		return &core.PersistenceError{Store: "sqlite:" + s.name, Op: op, Err: err}
	}
	tx, err := s.repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fail("begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE ledger = ?`, s.name); err != nil {
		return fail("delete", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ledger_entries (ledger, id, position, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fail("prepare", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return fail("encode", err)
		}
		if _, err := stmt.ExecContext(ctx, s.name, e.GetID(), i, string(payload)); err != nil {
			return fail("insert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fail("commit", err)
	}
	return nil
}

// BudgetStore is a ledger.BudgetStore backed by the budget_settings table.
type BudgetStore struct {
	repo *SQLiteRepository
	name string
}

func NewBudgetStore(repo *SQLiteRepository, name string) *BudgetStore {
	return &BudgetStore{repo: repo, name: name}
}

func (s *BudgetStore) Load(ctx context.Context) decimal.Decimal {
	var raw string
	err := s.repo.db.QueryRowContext(ctx, `SELECT amount FROM budget_settings WHERE ledger = ?`, s.name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero
	}
	if err != nil {
		s.repo.logger.WarnContext(ctx, "Budget query failed, using zero", log.FieldLedger, s.name, log.FieldError, err)
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		s.repo.logger.WarnContext(ctx, "Budget value unreadable, using zero", log.FieldLedger, s.name, log.FieldError, err)
		return decimal.Zero
	}
	return amount
}

func (s *BudgetStore) Save(ctx context.Context, amount decimal.Decimal) error {
	_, err := s.repo.db.ExecContext(ctx, `
		INSERT INTO budget_settings (ledger, amount) VALUES (?, ?)
		ON CONFLICT(ledger) DO UPDATE SET amount = excluded.amount,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		s.name, amount.String())
	if err != nil {
		return &core.PersistenceError{Store: "sqlite:" + s.name, Op: "save budget", Err: err}
	}
	return nil
}

// OpenLedgers builds the three ledgers on the repository.
func OpenLedgers(repo *SQLiteRepository, logger *log.Logger) *ledger.Set {
	return &ledger.Set{
		Paycheck1: ledger.New[core.PaycheckExpense](ledger.Paycheck1,
			NewLedgerStore[core.PaycheckExpense](repo, ledger.Paycheck1),
			NewBudgetStore(repo, ledger.Paycheck1), logger),
		Paycheck2: ledger.New[core.PaycheckExpense](ledger.Paycheck2,
			NewLedgerStore[core.PaycheckExpense](repo, ledger.Paycheck2),
			NewBudgetStore(repo, ledger.Paycheck2), logger),
		Groceries: ledger.New[core.GroceryExpense](ledger.Groceries,
			NewLedgerStore[core.GroceryExpense](repo, ledger.Groceries),
			NewBudgetStore(repo, ledger.Groceries), logger),
	}
}
