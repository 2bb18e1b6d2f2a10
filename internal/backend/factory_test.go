package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"paycheck/internal/config"
	"paycheck/internal/core"
	"paycheck/internal/ledger/files"
)

func TestBackendTypeIsValid(t *testing.T) {
	for _, bt := range []BackendType{FilesBackend, SQLiteBackend, MemoryBackend} {
		if !bt.IsValid() {
			t.Fatalf("%s should be valid", bt)
		}
	}
	if BackendType("sheets").IsValid() {
		t.Fatalf("sheets is not a persistence backend")
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "files", DataDir: "/tmp/x"})
	if err != nil || cfg.Type != FilesBackend || cfg.DataDirectory != "/tmp/x" {
		t.Fatalf("unexpected config %+v err=%v", cfg, err)
	}
}

func TestCreateBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cases := []Config{
		{Type: FilesBackend, DataDirectory: dir},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "paycheck.db")},
		{Type: MemoryBackend},
	}
	f := NewFactory(nil)
	for _, cfg := range cases {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if res.Cleanup != nil {
				t.Cleanup(func() { res.Cleanup() })
			}
			p := res.Persistence
			if err := p.Ready(ctx); err != nil {
				t.Fatalf("ready: %v", err)
			}
			if _, err := p.Ledgers.Groceries.Add(ctx, core.GroceryExpense{
				Date: core.NewDate(2024, 1, 2), Store: "Aldi", Amount: decimal.NewFromInt(12),
			}); err != nil {
				t.Fatalf("add: %v", err)
			}
			if err := p.Uploads.Add(ctx, core.StatementBatch{FileName: "jan.csv"}); err != nil {
				t.Fatalf("upload: %v", err)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, files.GroceryLedger)); err != nil {
		t.Fatalf("files backend should write %s: %v", files.GroceryLedger, err)
	}
	if _, err := f.CreateBackend(ctx, Config{Type: "nope"}); err == nil {
		t.Fatalf("expected error for invalid type")
	}
}
