package errors

import (
	"errors"
	"fmt"
)

// User-facing messages for the two failure modes a front end must keep apart.
const (
	MsgNoMatches    = "No matching results. Try adjusting subject, course number, keywords, or recency."
	MsgParseFailure = "Sorry, I could not understand that question. Try rephrasing it, or use plain keywords such as \"easy cs 580 recent\"."
)

// ErrorWrapper attaches module and operation context to errors.
type ErrorWrapper struct {
	module    string
	operation string
}

// NewWrapper creates a new error wrapper with module and operation context.
func NewWrapper(module, operation string) *ErrorWrapper {
	return &ErrorWrapper{module: module, operation: operation}
}

// Wrap wraps err with a user-facing message. Returns nil if err is nil.
func (w *ErrorWrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Module:      w.module,
		Operation:   w.operation,
		Cause:       err,
		UserMessage: userMessage,
	}
}

// Wrapf wraps err with a formatted user-facing message.
func (w *ErrorWrapper) Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return w.Wrap(err, fmt.Sprintf(format, args...))
}

// WrappedError carries both the internal cause and a user-facing message.
type WrappedError struct {
	Module      string // e.g. "warehouse", "genai"
	Operation   string // e.g. "rank", "parse"
	Cause       error
	UserMessage string
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Module, e.Operation, e.UserMessage, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// GetUserMessage returns the user-facing message for err. Parse failures map
// to MsgParseFailure; other unwrapped errors return their own text.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var wrapped *WrappedError
	if errors.As(err, &wrapped) {
		return wrapped.UserMessage
	}
	if errors.Is(err, ErrParseFailure) {
		return MsgParseFailure
	}
	return err.Error()
}
