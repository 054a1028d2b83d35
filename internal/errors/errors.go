// Package errors defines the error taxonomy shared by the coin counting
// pipeline and its collaborators.
//
// The core only fails on malformed input. Empty detections and unmatched
// circles are ordinary data states and never surface as errors.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeIO           ErrorType = "io"
	ErrorTypeInternal     ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewInvalidInputError creates an error for a malformed image, parameter set
// or rule table.
func NewInvalidInputError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeInvalidInput, Message: message, Cause: cause}
}

// InvalidInputf is NewInvalidInputError with a formatted message and no cause.
func InvalidInputf(format string, args ...interface{}) *AppError {
	return &AppError{Type: ErrorTypeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeConfig, Message: message, Cause: cause}
}

// NewIOError creates an error for file open, decode or encode failures.
func NewIOError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeIO, Message: message, Cause: cause}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Cause: cause}
}

// IsType reports whether any AppError in err's chain has the given type.
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// TypeOf returns the type of the first AppError in err's chain, or
// ErrorTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}
