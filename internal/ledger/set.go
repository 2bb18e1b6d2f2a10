package ledger

import (
	"context"

	"paycheck/internal/core"
)

// Set groups the three ledgers the application tracks.
type Set struct {
	Paycheck1 *Ledger[core.PaycheckExpense]
	Paycheck2 *Ledger[core.PaycheckExpense]
	Groceries *Ledger[core.GroceryExpense]
}

// Observe registers fn on every ledger of the set.
func (s *Set) Observe(fn Observer) {
	s.Paycheck1.Observe(fn)
	s.Paycheck2.Observe(fn)
	s.Groceries.Observe(fn)
}

// Snapshots renders every ledger in Names order.
func (s *Set) Snapshots(ctx context.Context) []Snapshot {
	return []Snapshot{
		s.Paycheck1.Snapshot(ctx),
		s.Paycheck2.Snapshot(ctx),
		s.Groceries.Snapshot(ctx),
	}
}

// Snapshot renders the named ledger.
func (s *Set) Snapshot(ctx context.Context, name string) (Snapshot, error) {
	switch name {
	case Paycheck1:
		return s.Paycheck1.Snapshot(ctx), nil
	case Paycheck2:
		return s.Paycheck2.Snapshot(ctx), nil
	case Groceries:
		return s.Groceries.Snapshot(ctx), nil
	}
	return Snapshot{}, core.ErrUnknownLedger
}

// Reload drops every working copy.
func (s *Set) Reload() {
	s.Paycheck1.Reload()
	s.Paycheck2.Reload()
	s.Groceries.Reload()
}
