package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"paycheck/internal/core"
	"paycheck/internal/ledger"
	"paycheck/internal/ledger/memory"
)

func grocery(store, amount string, day int) core.GroceryExpense {
	return core.GroceryExpense{Date: core.NewDate(2024, 3, day), Store: store, Amount: decimal.RequireFromString(amount)}
}

func newGroceries(t *testing.T) (*ledger.Ledger[core.GroceryExpense], *memory.Store[core.GroceryExpense], *memory.Budget) {
	t.Helper()
	store := memory.New[core.GroceryExpense]()
	budget := memory.NewBudget(decimal.Zero)
	return ledger.New[core.GroceryExpense](ledger.Groceries, store, budget, nil), store, budget
}

func TestLedgerCRUD(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newGroceries(t)

	a, err := l.Add(ctx, grocery("Aldi", "40", 1))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, _ := l.Add(ctx, grocery("Costco", "120.50", 2))
	c, _ := l.Add(ctx, grocery("Trader Joe's", "33", 3))
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct generated IDs, got %q and %q", a.ID, b.ID)
	}

	// deleting the middle entry must not disturb the IDs of the others
	if err := l.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	updated, err := l.Update(ctx, c.ID, grocery("Trader Joe's", "35", 4))
	if err != nil || updated.ID != c.ID {
		t.Fatalf("update: %+v err=%v", updated, err)
	}

	got := l.List(ctx)
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != c.ID || !got[1].Amount.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("unexpected entries %+v", got)
	}
	if persisted := store.Load(ctx); len(persisted) != 2 {
		t.Fatalf("expected write-through, store has %d entries", len(persisted))
	}

	if err := l.Delete(ctx, b.ID); !errors.Is(err, core.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if _, err := l.Update(ctx, "missing", grocery("x", "1", 1)); !errors.Is(err, core.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if _, err := l.Get(ctx, a.ID); err != nil {
		t.Fatalf("get: %v", err)
	}

	if err := l.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(l.List(ctx)) != 0 || len(store.Load(ctx)) != 0 {
		t.Fatalf("expected empty ledger after clear")
	}
}

func TestLedgerRejectsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newGroceries(t)

	cases := []struct {
		e    core.GroceryExpense
		want error
	}{
		{grocery("", "1", 1), core.ErrEmptyLabel},
		{grocery("Aldi", "-1", 1), core.ErrNegativeAmount},
		{core.GroceryExpense{Store: "Aldi", Amount: decimal.NewFromInt(1)}, core.ErrInvalidDate},
	}
	for i, tc := range cases {
		if _, err := l.Add(ctx, tc.e); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
	if store.Saves() != 0 || len(l.List(ctx)) != 0 {
		t.Fatalf("rejected entries must not be stored")
	}
}

func TestLedgerKeepsEditWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newGroceries(t)
	store.Err = errors.New("read-only filesystem")

	e, err := l.Add(ctx, grocery("Aldi", "10", 1))
	var pe *core.PersistenceError
	if !errors.As(err, &pe) || pe.Store != ledger.Groceries {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if got := l.List(ctx); len(got) != 1 || got[0].ID != e.ID {
		t.Fatalf("in-memory edit should be kept, got %+v", got)
	}
}

func TestLedgerBudgetSummary(t *testing.T) {
	ctx := context.Background()
	l, _, budget := newGroceries(t)

	if !l.Budget(ctx).IsZero() {
		t.Fatalf("expected zero default budget")
	}
	if err := l.SetBudget(ctx, decimal.NewFromInt(-5)); !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if err := l.SetBudget(ctx, decimal.NewFromInt(400)); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if !budget.Load(ctx).Equal(decimal.NewFromInt(400)) {
		t.Fatalf("budget not persisted")
	}

	l.Add(ctx, grocery("Aldi", "150.25", 1))
	l.Add(ctx, grocery("Costco", "49.75", 2))

	s := l.Summary(ctx)
	if !s.Spent.Equal(decimal.NewFromInt(200)) || !s.Remaining.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestLedgerAssignsMissingIDsOnLoad(t *testing.T) {
	ctx := context.Background()
	store := memory.New(grocery("Aldi", "1", 1), grocery("Aldi", "2", 2))
	l := ledger.New[core.GroceryExpense](ledger.Groceries, store, memory.NewBudget(decimal.Zero), nil)

	got := l.List(ctx)
	if got[0].ID == "" || got[1].ID == "" || got[0].ID != l.List(ctx)[0].ID {
		t.Fatalf("expected stable generated IDs, got %+v", got)
	}
}

func TestLedgerObserver(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newGroceries(t)
	var seen []string
	l.Observe(func(_ context.Context, name string) { seen = append(seen, name) })

	e, _ := l.Add(ctx, grocery("Aldi", "1", 1))
	l.Delete(ctx, e.ID)
	l.Delete(ctx, e.ID) // not found, no notification

	if len(seen) != 2 || seen[0] != ledger.Groceries {
		t.Fatalf("unexpected notifications %v", seen)
	}
}

func TestSetSnapshot(t *testing.T) {
	ctx := context.Background()
	newPaycheck := func(name string) *ledger.Ledger[core.PaycheckExpense] {
		return ledger.New[core.PaycheckExpense](name, memory.New[core.PaycheckExpense](), memory.NewBudget(decimal.NewFromInt(2000)), nil)
	}
	set := &ledger.Set{
		Paycheck1: newPaycheck(ledger.Paycheck1),
		Paycheck2: newPaycheck(ledger.Paycheck2),
		Groceries: ledger.New[core.GroceryExpense](ledger.Groceries, memory.New[core.GroceryExpense](), memory.NewBudget(decimal.Zero), nil),
	}
	set.Paycheck1.Add(ctx, core.PaycheckExpense{Label: "Rent", Cost: decimal.NewFromInt(1200), Date: core.NewDate(2024, 3, 1)})

	snap, err := set.Snapshot(ctx, ledger.Paycheck1)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Rows) != 1 || snap.Rows[0][0] != "Rent" || snap.Rows[0][1] != "1200.00" || snap.Columns[2] != "d" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !snap.Summary.Remaining.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("unexpected remaining %s", snap.Summary.Remaining)
	}
	if _, err := set.Snapshot(ctx, "savings"); !errors.Is(err, core.ErrUnknownLedger) {
		t.Fatalf("expected ErrUnknownLedger, got %v", err)
	}
	if all := set.Snapshots(ctx); len(all) != 3 || all[2].Name != ledger.Groceries {
		t.Fatalf("unexpected snapshots %+v", all)
	}
}

func TestLedgerSnapshotConsistentUnderWrites(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newGroceries(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := l.Add(ctx, grocery("Aldi", "1.25", 1+i%28)); err != nil {
				t.Errorf("add: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		snap := l.Snapshot(ctx)
		sum := decimal.Zero
		for _, row := range snap.Rows {
			sum = sum.Add(decimal.RequireFromString(row[2]))
		}
		if !sum.Equal(snap.Summary.Spent) {
			t.Fatalf("snapshot rows sum to %s but summary spent is %s", sum, snap.Summary.Spent)
		}
	}
	wg.Wait()

	if snap := l.Snapshot(ctx); len(snap.Rows) != 200 {
		t.Fatalf("expected 200 rows, got %d", len(snap.Rows))
	}
}
