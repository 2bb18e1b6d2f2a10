package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"paycheck/internal/core"
	"paycheck/internal/statement"
)

func TestCSVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, n := range []int{0, 1, 50} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), Paycheck1Ledger)
			s := NewCSVStore[core.PaycheckExpense](path, nil)

			var want []core.PaycheckExpense
			for i := 0; i < n; i++ {
				want = append(want, core.PaycheckExpense{
					ID:    fmt.Sprintf("id-%d", i),
					Label: fmt.Sprintf("Bill, %d \"quoted\"", i),
					Cost:  decimal.New(int64(i*137+5), -2),
					Date:  core.NewDate(2024, 1+i%12, 1+i%28),
				})
			}
			if err := s.Save(ctx, want); err != nil {
				t.Fatalf("save: %v", err)
			}
			got := s.Load(ctx)
			if len(got) != n {
				t.Fatalf("expected %d entries, got %d", n, len(got))
			}
			for i := range want {
				if got[i].ID != want[i].ID || got[i].Label != want[i].Label ||
					!got[i].Cost.Equal(want[i].Cost) || got[i].Date != want[i].Date {
					t.Fatalf("entry %d mismatch: want %+v got %+v", i, want[i], got[i])
				}
			}
		})
	}
}

func TestCSVStoreLegacyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), GroceryLedger)
	content := "date,store,amount\n" +
		"2024-03-01,Aldi,40.10\n" +
		"not-a-date,Broken,1\n" +
		"2024-03-03,Costco,-5\n" +
		"2024-03-04,Safeway,12\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	got := NewCSVStore[core.GroceryExpense](path, nil).Load(ctx)
	if len(got) != 2 || got[0].Store != "Aldi" || got[1].Store != "Safeway" {
		t.Fatalf("expected bad rows skipped, got %+v", got)
	}
	if got[0].ID != "" {
		t.Fatalf("legacy rows have no id until the ledger assigns one")
	}
}

func TestCSVStoreMissingOrCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if got := NewCSVStore[core.GroceryExpense](filepath.Join(dir, "none.csv"), nil).Load(ctx); len(got) != 0 {
		t.Fatalf("missing file should load empty")
	}
	corrupt := filepath.Join(dir, "corrupt.csv")
	os.WriteFile(corrupt, []byte("date,store,amount\n\"unterminated,1,2\n"), 0o644)
	if got := NewCSVStore[core.GroceryExpense](corrupt, nil).Load(ctx); len(got) != 0 {
		t.Fatalf("corrupt file should load empty, got %+v", got)
	}
}

func TestCSVStoreSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	os.WriteFile(blocker, nil, 0o644)
	s := NewCSVStore[core.GroceryExpense](filepath.Join(blocker, "ledger.csv"), nil)

	err := s.Save(context.Background(), nil)
	var pe *core.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestBudgetStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, GroceryBudget)
	s := NewBudgetStore(path, GroceryBudgetKey, nil)

	if !s.Load(ctx).IsZero() {
		t.Fatalf("missing file should load zero")
	}
	if err := s.Save(ctx, decimal.RequireFromString("412.5")); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `{"grocery_budget_key":412.5}` {
		t.Fatalf("unexpected file content %s", data)
	}
	if got := s.Load(ctx); !got.Equal(decimal.RequireFromString("412.5")) {
		t.Fatalf("expected 412.5, got %s", got)
	}

	os.WriteFile(path, []byte(`{"grocery_budget_key": "oops"`), 0o644)
	if !s.Load(ctx).IsZero() {
		t.Fatalf("corrupt file should load zero")
	}
}

func TestRegistryPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), UploadRegistry)
	r := NewRegistry(path, nil)

	jan := core.StatementBatch{FileName: "jan.csv", Rows: []core.RawRow{{Date: "2024-01-01", Description: "x", Amount: "-1"}}}
	if err := r.Add(ctx, jan); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Add(ctx, jan); !errors.Is(err, statement.ErrAlreadyUploaded) {
		t.Fatalf("expected ErrAlreadyUploaded, got %v", err)
	}

	reopened, _ := NewRegistry(path, nil).List(ctx)
	if len(reopened) != 1 || reopened[0].Rows[0] != jan.Rows[0] {
		t.Fatalf("unexpected reopened registry %+v", reopened)
	}
	if err := r.Remove(ctx, "feb.csv"); !errors.Is(err, statement.ErrNotUploaded) {
		t.Fatalf("expected ErrNotUploaded, got %v", err)
	}
	if err := r.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if after, _ := NewRegistry(path, nil).List(ctx); len(after) != 0 {
		t.Fatalf("expected empty registry, got %d", len(after))
	}
}

func TestOpenLedgersPersistAcrossRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	set := OpenLedgers(dir, nil)
	e, err := set.Paycheck2.Add(ctx, core.PaycheckExpense{Label: "Insurance", Cost: decimal.NewFromInt(90), Date: core.NewDate(2024, 4, 2)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := set.Paycheck2.SetBudget(ctx, decimal.NewFromInt(1800)); err != nil {
		t.Fatalf("set budget: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, Paycheck2Ledger)); err != nil {
		t.Fatalf("expected %s: %v", Paycheck2Ledger, err)
	}
	reopened := OpenLedgers(dir, nil)
	got := reopened.Paycheck2.List(ctx)
	if len(got) != 1 || got[0].ID != e.ID {
		t.Fatalf("unexpected entries after restart %+v", got)
	}
	if !reopened.Paycheck2.Budget(ctx).Equal(decimal.NewFromInt(1800)) {
		t.Fatalf("budget not restored")
	}
	if len(reopened.Paycheck1.List(ctx)) != 0 {
		t.Fatalf("ledgers must be independent")
	}
}

func TestOpenLedgersSubCentCost(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	set := OpenLedgers(dir, nil)
	if _, err := set.Paycheck1.Add(ctx, core.PaycheckExpense{Label: "Water", Cost: decimal.RequireFromString("12.345"), Date: core.NewDate(2024, 5, 1)}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := set.Groceries.Add(ctx, core.GroceryExpense{Date: core.NewDate(2024, 5, 2), Store: "Aldi", Amount: decimal.RequireFromString("0.001")}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	kept, err := set.Paycheck1.Add(ctx, core.PaycheckExpense{Label: "Power", Cost: decimal.RequireFromString("12.34"), Date: core.NewDate(2024, 5, 1)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	reopened := OpenLedgers(dir, nil)
	mem := set.Paycheck1.List(ctx)
	got := reopened.Paycheck1.List(ctx)
	if len(got) != 1 || len(mem) != 1 {
		t.Fatalf("expected one entry in memory and on disk, got %+v / %+v", mem, got)
	}
	if got[0].ID != kept.ID || !got[0].Cost.Equal(mem[0].Cost) {
		t.Fatalf("reopened entry %+v differs from %+v", got[0], mem[0])
	}
	if !reopened.Paycheck1.Summary(ctx).Spent.Equal(set.Paycheck1.Summary(ctx).Spent) {
		t.Fatalf("summary drifted across restart")
	}
	if len(reopened.Groceries.List(ctx)) != 0 {
		t.Fatalf("rejected grocery entry was persisted")
	}
}
