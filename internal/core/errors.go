package core

import (
	"errors"
	"fmt"
)

// ErrEntryNotFound is returned when a ledger entry ID is unknown.
var ErrEntryNotFound = errors.New("ledger entry not found")

// ErrUnknownLedger is returned for a ledger name outside the configured set.
var ErrUnknownLedger = errors.New("unknown ledger")

// MalformedDateError reports a statement row whose date cannot be parsed.
type MalformedDateError struct {
	File  string
	Row   int
	Value string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q in %s row %d", e.Value, e.File, e.Row)
}

// MalformedAmountError reports a statement row whose amount cannot be parsed.
type MalformedAmountError struct {
	File  string
	Row   int
	Value string
}

func (e *MalformedAmountError) Error() string {
	return fmt.Sprintf("malformed amount %q in %s row %d", e.Value, e.File, e.Row)
}

func (e *MalformedAmountError) Unwrap() error {
	return ErrInvalidAmount
}

// EmptyTransactionSetError indicates an aggregate was requested over zero
// qualifying rows.
type EmptyTransactionSetError struct {
	View string
}

func (e *EmptyTransactionSetError) Error() string {
	return fmt.Sprintf("no qualifying transactions for %s", e.View)
}

// PersistenceError indicates a ledger or setting could not be saved.
type PersistenceError struct {
	Store string
	Op    string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error [%s %s]: %v", e.Store, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsEmptySet reports whether err is (or wraps) an EmptyTransactionSetError.
func IsEmptySet(err error) bool {
	var target *EmptyTransactionSetError
	return errors.As(err, &target)
}
