package files

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"strings"

	"paycheck/internal/core"
	"paycheck/internal/ledger"
	"paycheck/internal/log"
)

// CSVStore keeps a ledger in a CSV file with an id column followed by the
// entry columns.
type CSVStore[T ledger.Record[T]] struct {
	path   string
	logger *log.Logger
}

func NewCSVStore[T ledger.Record[T]](path string, logger *log.Logger) *CSVStore[T] {
	if logger == nil {
		logger = log.Discard()
	}
	return &CSVStore[T]{path: path, logger: logger.WithComponent(log.ComponentStorage).With(log.FieldFile, path)}
}

// Load reads the file. A missing or unreadable file yields no entries; rows
// that fail to parse are skipped with a warning.
func (s *CSVStore[T]) Load(ctx context.Context) []T {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Ledger file unreadable, starting empty", log.FieldError, err)
		return nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		s.logger.WarnContext(ctx, "Ledger file corrupt, starting empty", log.FieldError, err)
		return nil
	}
	if len(records) == 0 {
		return nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var zero T
	out := make([]T, 0, len(records)-1)
	for n, rec := range records[1:] {
		fields := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) && h != "" {
				fields[h] = rec[i]
			}
		}
		e, err := zero.ParseRow(fields)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping unreadable ledger row", "row", n+1, log.FieldError, err)
			continue
		}
		out = append(out, e)
	}
	return out
}

// Save rewrites the whole file.
func (s *CSVStore[T]) Save(ctx context.Context, entries []T) error {
	var zero T
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(append([]string{"id"}, zero.Columns()...)); err != nil {
		return s.fail("encode", err)
	}
	for _, e := range entries {
		if err := w.Write(append([]string{e.GetID()}, e.Row()...)); err != nil {
			return s.fail("encode", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return s.fail("encode", err)
	}
	if err := writeFileAtomic(s.path, buf.Bytes()); err != nil {
		return s.fail("save", err)
	}
	s.logger.DebugContext(ctx, "Ledger file written", log.FieldRows, len(entries))
	return nil
}

func (s *CSVStore[T]) fail(op string, err error) error {
	return &core.PersistenceError{Store: s.path, Op: op, Err: err}
}
