package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"paycheck/internal/core"
	"paycheck/internal/ledger"
	"paycheck/internal/log"
)

type ledgerView struct {
	Name    string             `json:"name"`
	Columns []string           `json:"columns"`
	Entries any                `json:"entries"`
	Summary core.BudgetSummary `json:"summary"`
}

// ledgerAPI hides the entry type of a ledger from the handlers.
type ledgerAPI interface {
	view(ctx context.Context) ledgerView
	add(ctx context.Context, fields map[string]string) (any, error)
	update(ctx context.Context, id string, fields map[string]string) (any, error)
	remove(ctx context.Context, id string) error
	clear(ctx context.Context) error
	setBudget(ctx context.Context, amount decimal.Decimal) error
	summary(ctx context.Context) core.BudgetSummary
}

type typedLedger[T ledger.Record[T]] struct {
	l *ledger.Ledger[T]
}

func (t typedLedger[T]) view(ctx context.Context) ledgerView {
	var zero T
	entries := t.l.List(ctx)
	if entries == nil {
		entries = []T{}
	}
	return ledgerView{Name: t.l.Name(), Columns: zero.Columns(), Entries: entries, Summary: t.l.Summary(ctx)}
}

func (t typedLedger[T]) parse(fields map[string]string) (T, error) {
	var zero T
	delete(fields, "id")
	return zero.ParseRow(fields)
}

func (t typedLedger[T]) add(ctx context.Context, fields map[string]string) (any, error) {
	e, err := t.parse(fields)
	if err != nil {
		return nil, err
	}
	return t.l.Add(ctx, e)
}

func (t typedLedger[T]) update(ctx context.Context, id string, fields map[string]string) (any, error) {
	e, err := t.parse(fields)
	if err != nil {
		return nil, err
	}
	return t.l.Update(ctx, id, e)
}

func (t typedLedger[T]) remove(ctx context.Context, id string) error { return t.l.Delete(ctx, id) }

func (t typedLedger[T]) clear(ctx context.Context) error { return t.l.Clear(ctx) }

func (t typedLedger[T]) setBudget(ctx context.Context, amount decimal.Decimal) error {
	return t.l.SetBudget(ctx, amount)
}

func (t typedLedger[T]) summary(ctx context.Context) core.BudgetSummary { return t.l.Summary(ctx) }

func (s *Server) ledgerFor(name string) (ledgerAPI, error) {
	switch name {
	case ledger.Paycheck1:
		return typedLedger[core.PaycheckExpense]{l: s.ledgers.Paycheck1}, nil
	case ledger.Paycheck2:
		return typedLedger[core.PaycheckExpense]{l: s.ledgers.Paycheck2}, nil
	case ledger.Groceries:
		return typedLedger[core.GroceryExpense]{l: s.ledgers.Groceries}, nil
	}
	return nil, core.ErrUnknownLedger
}

func isPersistence(err error) bool {
	var pe *core.PersistenceError
	return errors.As(err, &pe)
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledgerFor(r.PathValue("ledger"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Set("ledger", l.view(r.Context())).Write(w)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledgerFor(r.PathValue("ledger"))
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	fields, err := ParseEntryFields(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	entry, err := l.add(r.Context(), fields)
	if err != nil && !isPersistence(err) {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Set("entry", entry).
		Set("summary", l.summary(r.Context())).
		Warning(err).
		Write(w)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledgerFor(r.PathValue("ledger"))
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	fields, err := ParseEntryFields(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	entry, err := l.update(r.Context(), r.PathValue("id"), fields)
	if err != nil && !isPersistence(err) {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().
		Set("entry", entry).
		Set("summary", l.summary(r.Context())).
		Warning(err).
		Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledgerFor(r.PathValue("ledger"))
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	id := r.PathValue("id")
	err = l.remove(r.Context(), id)
	if err != nil && !isPersistence(err) {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().
		Set("deleted", id).
		Set("summary", l.summary(r.Context())).
		Warning(err).
		Write(w)
}

func (s *Server) handleClearEntries(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledgerFor(r.PathValue("ledger"))
	if err != nil {
		writeError(w, r, log.OpClear, err)
		return
	}
	err = l.clear(r.Context())
	if err != nil && !isPersistence(err) {
		writeError(w, r, log.OpClear, err)
		return
	}
	NewJSONResponse().
		Set("cleared", true).
		Set("summary", l.summary(r.Context())).
		Warning(err).
		Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledgerFor(r.PathValue("ledger"))
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	amount, err := ParseBudget(r)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			writeError(w, r, log.OpUpdate, err)
			return
		}
		BadRequestError(err.Error()).Write(w)
		return
	}
	err = l.setBudget(r.Context(), amount)
	if err != nil && !isPersistence(err) {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Set("summary", l.summary(r.Context())).Warning(err).Write(w)
}
