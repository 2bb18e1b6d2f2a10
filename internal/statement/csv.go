// Package statement decodes bank statement exports and tracks which files
// have been uploaded.
package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"paycheck/internal/core"
)

// ErrMissingColumn is returned when a statement lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

var requiredColumns = []string{"date", "description", "amount"}

// ParseCSV reads a statement with Date, Description and Amount columns.
// Header matching is case-insensitive and extra columns are ignored. Values
// are returned unparsed; the pipeline validates them.
func ParseCSV(name string, r io.Reader) (core.StatementBatch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return core.StatementBatch{}, fmt.Errorf("%s: %w: empty file", name, ErrMissingColumn)
	}
	if err != nil {
		return core.StatementBatch{}, fmt.Errorf("%s: read header: %w", name, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return core.StatementBatch{}, fmt.Errorf("%s: %w %q", name, ErrMissingColumn, c)
		}
	}

	batch := core.StatementBatch{FileName: name}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return core.StatementBatch{}, fmt.Errorf("%s: %w", name, err)
		}
		if blank(rec) {
			continue
		}
		batch.Rows = append(batch.Rows, core.RawRow{
			Date:        field(rec, cols["date"]),
			Description: field(rec, cols["description"]),
			Amount:      field(rec, cols["amount"]),
		})
	}
	return batch, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
