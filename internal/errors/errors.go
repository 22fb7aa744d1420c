package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/trainplan/internal/logger"
)

// Code is a stable, machine-readable rejection code
type Code string

const (
	CodeInvalidInput      Code = "invalid_input"
	CodeStalePreview      Code = "stale_preview"
	CodeBlockingConflicts Code = "blocking_conflicts"
	CodeNotFound          Code = "not_found"
	CodeStorage           Code = "storage"
)

// StalePreviewMessage is returned whenever a snapshot token no longer matches
const StalePreviewMessage = "invalid configuration: refresh preview"

// Error is a structured rejection with a stable code and a human-readable message
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a structured error
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a structured error around a cause
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Invalid reports a client-actionable input validation failure
func Invalid(format string, args ...interface{}) *Error {
	return New(CodeInvalidInput, fmt.Sprintf(format, args...))
}

// Stale reports a snapshot token mismatch
func Stale() *Error {
	return New(CodeStalePreview, StalePreviewMessage)
}

// Blocked reports a create rejected by blocking conflicts
func Blocked(format string, args ...interface{}) *Error {
	return New(CodeBlockingConflicts, fmt.Sprintf(format, args...))
}

// Storage wraps a persistence failure
func Storage(message string, err error) *Error {
	return Wrap(CodeStorage, message, err)
}

// NotFound reports a missing entity
func NotFound(format string, args ...interface{}) *Error {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}

// CodeOf returns the code of the first structured error in the chain, or "" if none
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	if code := CodeOf(err); code != "" {
		return fmt.Sprintf("Error [%s]: %v", code, err)
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err, "code", CodeOf(err))
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
