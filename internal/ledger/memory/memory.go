// Package memory provides in-process ledger and budget stores.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Store keeps ledger entries in memory. A non-nil Err makes Save fail,
// leaving the stored entries untouched.
type Store[T any] struct {
	mu      sync.Mutex
	entries []T
	saves   int
	Err     error
}

func New[T any](seed ...T) *Store[T] {
	return &Store[T]{entries: append([]T(nil), seed...)}
}

func (s *Store[T]) Load(_ context.Context) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.entries...)
}

func (s *Store[T]) Save(_ context.Context, entries []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.entries = append([]T(nil), entries...)
	s.saves++
	return nil
}

// Saves reports how many saves succeeded.
func (s *Store[T]) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Budget keeps a budget amount in memory.
type Budget struct {
	mu     sync.Mutex
	amount decimal.Decimal
	Err    error
}

func NewBudget(amount decimal.Decimal) *Budget {
	return &Budget{amount: amount}
}

func (b *Budget) Load(_ context.Context) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.amount
}

func (b *Budget) Save(_ context.Context, amount decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.amount = amount
	return nil
}
