// Package errors provides structured error types for signalviz.
//
// Every failure that terminates a render carries one of a small set of codes
// so the CLI and the HTTP server can react to it without string matching:
//   - NOT_FOUND: the signal does not exist on the ledger
//   - EXTERNAL_SERVICE: a ledger call failed or a REST service answered non-200
//   - DOMAIN: geometric input that the math cannot handle (e.g. radius <= 0)
//   - INVALID_*: user or configuration input rejected before any work starts
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDomain, "radius must be positive, got %v", m)
//	if errors.Is(err, errors.ErrCodeDomain) {
//	    // reject the request
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeExternalService, origErr, "fetch style %s", style)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidSignalID Code = "INVALID_SIGNAL_ID"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Collaborator failures (ledger RPC, geocoder, map tiles)
	ErrCodeExternalService Code = "EXTERNAL_SERVICE"

	// Geometry that cannot be computed
	ErrCodeDomain Code = "DOMAIN"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// NotFound is shorthand for New(ErrCodeNotFound, ...).
func NotFound(format string, args ...any) *Error {
	return New(ErrCodeNotFound, format, args...)
}

// ExternalService is shorthand for Wrap(ErrCodeExternalService, ...).
// cause may be nil when the failure is a bad status rather than a Go error.
func ExternalService(cause error, format string, args ...any) *Error {
	return Wrap(ErrCodeExternalService, cause, format, args...)
}

// Domain is shorthand for New(ErrCodeDomain, ...).
func Domain(format string, args ...any) *Error {
	return New(ErrCodeDomain, format, args...)
}

// Is reports whether err has the given error code.
// It returns the code of the outermost *Error in the chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
