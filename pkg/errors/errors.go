// Package errors provides structured error types for reftree.
//
// Every error that crosses a package boundary carries a machine-readable
// [Code], so the CLI, the HTTP API and tests can branch on the failure kind
// without string matching:
//   - INVALID_*: input validation failures
//   - UNRESOLVED_PROJECT: a project the Reference Source could not enumerate
//   - INTERNAL_INCONSISTENCY: a broken registry invariant during tree construction
//   - TOOL_*: the external graph renderer is missing or failed
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnresolvedProject, "project %q not found", name)
//	if errors.Is(err, errors.ErrCodeUnresolvedProject) {
//	    // Handle unknown project
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeToolFailed, origErr, "dot exited")
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
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidProject   Code = "INVALID_PROJECT"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidMode      Code = "INVALID_MODE"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeInvalidWorkspace Code = "INVALID_WORKSPACE"

	// Resolution errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeUnresolvedProject Code = "UNRESOLVED_PROJECT"

	// Construction errors
	ErrCodeInconsistent  Code = "INTERNAL_INCONSISTENCY"
	ErrCodeLimitExceeded Code = "LIMIT_EXCEEDED"

	// External renderer errors
	ErrCodeToolNotFound Code = "TOOL_NOT_FOUND"
	ErrCodeToolFailed   Code = "TOOL_FAILED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code,
// so a TOOL_FAILED wrapped by an INVALID_INPUT still matches TOOL_FAILED.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
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
