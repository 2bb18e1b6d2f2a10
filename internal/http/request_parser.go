// Package http provides the JSON API server and its handlers.
//
// This file implements request body decoding: JSON entry payloads keyed by
// ledger column and multipart statement uploads.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"paycheck/internal/core"
	"paycheck/internal/statement"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 32 << 20
	uploadField   = "files"
)

// errBadUpload marks uploads that are not a readable multipart form with at
// least one file.
var errBadUpload = errors.New("malformed upload")

// ParseEntryFields decodes a JSON object of column values into strings.
// Numbers keep their literal form; nested values are rejected.
func ParseEntryFields(r *http.Request) (map[string]string, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		s, err := stringValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		fields[strings.ToLower(strings.TrimSpace(k))] = sanitizeInput(s)
	}
	return fields, nil
}

// ParseBudget decodes {"amount": ...} where amount is a number or a string.
func ParseBudget(r *http.Request) (decimal.Decimal, error) {
	fields, err := ParseEntryFields(r)
	if err != nil {
		return decimal.Zero, err
	}
	amount, ok := fields["amount"]
	if !ok {
		return decimal.Zero, fmt.Errorf("amount: %w", core.ErrInvalidAmount)
	}
	return core.ParseAmount(amount)
}

// ParseStatementUploads reads every CSV sent in the multipart field "files".
func ParseStatementUploads(r *http.Request) ([]core.StatementBatch, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadUpload, err)
	}
	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no %q field", errBadUpload, uploadField)
	}

	batches := make([]core.StatementBatch, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		b, err := statement.ParseCSV(sanitizeInput(fh.Filename), f)
		f.Close()
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, nil
}

func stringValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case nil:
		return "", nil
	case bool:
		return "", errors.New("boolean not allowed")
	default:
		return "", errors.New("nested value not allowed")
	}
}
