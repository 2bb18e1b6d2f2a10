// Package http provides the JSON API server and its handlers.
//
// This file implements a small builder for JSON responses so that every
// handler reports data, warnings and errors in the same envelope.

package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"

	"paycheck/internal/core"
	"paycheck/internal/statement"
)

// JSONResponseBuilder collects the status, headers and fields of a JSON
// response object.
type JSONResponseBuilder struct {
	statusCode int
	fields     map[string]any
	headers    map[string]string
}

// NewJSONResponse creates a builder with a 200 status and no fields.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		fields:     make(map[string]any),
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Set adds a top-level field.
func (b *JSONResponseBuilder) Set(key string, value any) *JSONResponseBuilder {
	b.fields[key] = value
	return b
}

// Header adds a response header.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Warning reports a change that was applied but not persisted. Other errors
// and nil are ignored.
func (b *JSONResponseBuilder) Warning(err error) *JSONResponseBuilder {
	var pe *core.PersistenceError
	if errors.As(err, &pe) {
		b.fields["warning"] = "change applied but not saved: " + pe.Error()
	}
	return b
}

// Write encodes the response.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.fields)
}

// ErrorResponse creates an error envelope {"error": message, "code": code}.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Set("error", message).
		Set("code", code)
}

// BadRequestError creates a 400 response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

// NotFoundError creates a 404 response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

// InternalServerError creates a 500 response. The cause is logged, not sent.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal", "internal server error")
}

// ErrorFor maps a domain error to its response.
func ErrorFor(err error) *JSONResponseBuilder {
	var (
		dateErr   *core.MalformedDateError
		amountErr *core.MalformedAmountError
		emptyErr  *core.EmptyTransactionSetError
		csvErr    *csv.ParseError
	)
	switch {
	case errors.As(err, &dateErr),
		errors.As(err, &amountErr),
		errors.As(err, &csvErr),
		errors.Is(err, statement.ErrMissingColumn):
		return ErrorResponse(http.StatusUnprocessableEntity, "invalid_statement", err.Error())
	case errors.As(err, &emptyErr):
		return ErrorResponse(http.StatusNotFound, "no_transactions", err.Error())
	case errors.Is(err, core.ErrUnknownLedger),
		errors.Is(err, core.ErrEntryNotFound),
		errors.Is(err, statement.ErrNotUploaded):
		return NotFoundError(err.Error())
	case errors.Is(err, statement.ErrAlreadyUploaded):
		return ErrorResponse(http.StatusConflict, "already_uploaded", err.Error())
	case errors.Is(err, core.ErrEmptyLabel),
		errors.Is(err, core.ErrLabelTooLong),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrInvalidMonth):
		return ErrorResponse(http.StatusUnprocessableEntity, "invalid_entry", err.Error())
	}
	return InternalServerError()
}
