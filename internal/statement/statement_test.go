package statement

import (
	"context"
	"errors"
	"strings"
	"testing"

	"paycheck/internal/core"
)

func TestParseCSV(t *testing.T) {
	in := "\ufeffPosted,DATE,Description,Amount,Memo\n" +
		"x,2024-01-15,Defense Finance and Accounting Service,2000.00,\n" +
		",,,,\n" +
		"x,01/16/2024,\"Coffee, Inc\",-4.50,latte\n"
	b, err := ParseCSV("checking.csv", strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if b.FileName != "checking.csv" || len(b.Rows) != 2 {
		t.Fatalf("unexpected batch %+v", b)
	}
	want := core.RawRow{Date: "01/16/2024", Description: "Coffee, Inc", Amount: "-4.50"}
	if b.Rows[1] != want {
		t.Fatalf("expected %+v, got %+v", want, b.Rows[1])
	}
}

func TestParseCSVMissingColumn(t *testing.T) {
	cases := []string{
		"Date,Amount\n2024-01-01,1\n",
		"",
	}
	for i, in := range cases {
		if _, err := ParseCSV("bad.csv", strings.NewReader(in)); !errors.Is(err, ErrMissingColumn) {
			t.Fatalf("case %d expected ErrMissingColumn, got %v", i, err)
		}
	}
}

func TestParseCSVShortRow(t *testing.T) {
	b, err := ParseCSV("short.csv", strings.NewReader("Date,Description,Amount\n2024-01-01,Only\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if b.Rows[0].Amount != "" {
		t.Fatalf("expected empty amount for short row, got %q", b.Rows[0].Amount)
	}
}

func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	if err := r.Add(ctx, core.StatementBatch{FileName: "jan.csv"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Add(ctx, core.StatementBatch{FileName: "feb.csv"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Add(ctx, core.StatementBatch{FileName: "jan.csv"}); !errors.Is(err, ErrAlreadyUploaded) {
		t.Fatalf("expected ErrAlreadyUploaded, got %v", err)
	}

	list, _ := r.List(ctx)
	if len(list) != 2 || list[0].FileName != "jan.csv" {
		t.Fatalf("unexpected list %+v", list)
	}
	if err := r.Remove(ctx, "jan.csv"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := r.Remove(ctx, "jan.csv"); !errors.Is(err, ErrNotUploaded) {
		t.Fatalf("expected ErrNotUploaded, got %v", err)
	}
	if err := r.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if list, _ := r.List(ctx); len(list) != 0 {
		t.Fatalf("expected empty registry, got %d", len(list))
	}
}

func TestFingerprint(t *testing.T) {
	a := []core.StatementBatch{{FileName: "a.csv", Rows: []core.RawRow{{Date: "2024-01-01", Description: "x", Amount: "1"}}}}
	b := []core.StatementBatch{{FileName: "a.csv", Rows: []core.RawRow{{Date: "2024-01-01", Description: "x", Amount: "2"}}}}
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("different content must differ")
	}
	if Fingerprint(a) != Fingerprint(a) {
		t.Fatalf("fingerprint must be deterministic")
	}
	if Fingerprint(nil) == "" {
		t.Fatalf("empty set still has a fingerprint")
	}
}
