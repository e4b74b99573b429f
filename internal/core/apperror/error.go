// Package apperror defines the coded errors the ledger returns to callers.
// Each code maps to one HTTP status; handlers render {code, message, details}.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeInternal         = "INTERNAL_ERROR"
	CodeValidation       = "VALIDATION_ERROR"
	CodeInsufficientLots = "INSUFFICIENT_LOTS"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeIdempotency      = "IDEMPOTENCY_CONFLICT"
)

var statusByCode = map[string]int{
	CodeInternal:         http.StatusInternalServerError,
	CodeValidation:       http.StatusBadRequest,
	CodeInsufficientLots: http.StatusUnprocessableEntity,
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeForbidden:        http.StatusForbidden,
	CodeNotFound:         http.StatusNotFound,
	CodeConflict:         http.StatusConflict,
	CodeIdempotency:      http.StatusConflict,
}

// AppError is a failure with a stable code. Err, if set, is logged but
// never sent to clients.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

// New builds an AppError whose HTTP status follows from code.
func New(code, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail sets one detail entry and returns e for chaining.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func NewValidation(message string) *AppError {
	return New(CodeValidation, message)
}

func NewNotFound(entity string, id any) *AppError {
	return New(CodeNotFound, entity+" not found").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewInsufficientLots is raised by strict consumption when active lots
// cannot cover the requested quantity.
func NewInsufficientLots(productID, requested, available string) *AppError {
	return New(CodeInsufficientLots, "Insufficient inventory lots").
		WithDetail("product_id", productID).
		WithDetail("requested", requested).
		WithDetail("available", available)
}

// NewInternal hides err behind a generic message.
func NewInternal(err error) *AppError {
	e := New(CodeInternal, "Internal server error")
	e.Err = err
	return e
}

func NewUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func NewConflict(message string) *AppError {
	return New(CodeConflict, message)
}

// NewIdempotencyConflict is returned while a request with the same key is still running.
func NewIdempotencyConflict(key string) *AppError {
	return New(CodeIdempotency, "Operation already in progress").
		WithDetail("idempotency_key", key)
}

// NewIdempotencyMismatch is returned when a key is reused for a different
// caller, route or body.
func NewIdempotencyMismatch(key string) *AppError {
	return New(CodeIdempotency, "Idempotency key reused for a different request").
		WithDetail("idempotency_key", key)
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus is 500 for anything that is not an AppError.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}
