// Package errors provides the sentinel errors and error types shared by the
// parsers, the warehouse and the front ends.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Check them with errors.Is.
var (
	// ErrParseFailure indicates the model-backed parser could not reach the
	// model or use its reply. Callers may retry with the rule parser.
	ErrParseFailure = errors.New("intent parse failure")

	// ErrWarehouseMissing indicates the warehouse table does not exist yet.
	// Query operations translate it into an empty result.
	ErrWarehouseMissing = errors.New("warehouse missing")

	// ErrInvalidInput indicates a client supplied a malformed request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimitExceeded indicates a client exhausted its model budget.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// IsParseFailure reports whether err is or wraps ErrParseFailure.
func IsParseFailure(err error) bool { return errors.Is(err, ErrParseFailure) }

// IsWarehouseMissing reports whether err is or wraps ErrWarehouseMissing.
func IsWarehouseMissing(err error) bool { return errors.Is(err, ErrWarehouseMissing) }

// IsInvalidInput reports whether err is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrInvalidInput) || errors.As(err, &ve)
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
