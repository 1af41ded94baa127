// Package errors provides structured error types for mvnpack.
//
// Every failure that crosses a package boundary carries a [Code] so the CLI
// can map it to a stable exit status and a short user message:
//   - INVALID_*: malformed input, plans, configuration or glob patterns
//   - DUPLICATE_ARTIFACT: the same coordinate registered twice in a plan
//   - NOT_FOUND: an artifact that no source could resolve
//   - INTERRUPTED: a cancelled metadata load or reactor run
//   - INSTALL_FAILED / PLUGIN_FAILED: installer or plugin loader failures
//   - INTERNAL_ERROR: anything unexpected
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPlan, "artifact %s has no path", coord)
//	if errors.Is(err, errors.ErrCodeInvalidPlan) {
//	    // reject the plan
//	}
//
//	err := errors.Wrap(errors.ErrCodeInstallFailed, cause, "install %s", coord)
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
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPlan    Code = "INVALID_PLAN"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidPattern Code = "INVALID_PATTERN"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Plan consistency errors
	ErrCodeDuplicateArtifact Code = "DUPLICATE_ARTIFACT"

	// Resolution errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Lifecycle errors
	ErrCodeInterrupted   Code = "INTERRUPTED"
	ErrCodeInstallFailed Code = "INSTALL_FAILED"
	ErrCodePluginFailed  Code = "PLUGIN_FAILED"

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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
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

// ExitCode maps an error to a process exit status.
// Invalid input of any kind exits 2, interruption 130, everything else 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidPlan, ErrCodeInvalidConfig,
		ErrCodeInvalidPattern, ErrCodeInvalidPath, ErrCodeDuplicateArtifact:
		return 2
	case ErrCodeInterrupted:
		return 130
	}
	return 1
}
