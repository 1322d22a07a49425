// Package errors provides a lightweight structured error type (RebuildError)
// for category-based classification across the rebuild pipeline and CLI.
package errors

import (
	goerrors "errors"
	"fmt"
)

// ErrorCategory represents the failure class of a RebuildError.
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig ErrorCategory = "config"

	// Cache file exists but cannot be decoded
	CategoryParse ErrorCategory = "parse"

	// Staging a notebook into the working directory failed
	CategoryCopy ErrorCategory = "copy"

	// The external notebook executor reported failure
	CategoryExecution ErrorCategory = "execution"

	// Cache persistence failed
	CategoryIO ErrorCategory = "io"

	// Run history store errors
	CategoryHistory ErrorCategory = "history"

	// Fallback for errors that carry no category
	CategoryUnknown ErrorCategory = "unknown"
)

// ContextFields carries structured context for RebuildError
type ContextFields map[string]any

// RebuildError is a structured error with category and context. Every failure
// aborts the run, so there is no severity or retry dimension.
type RebuildError struct {
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// Error implements the error interface
func (e *RebuildError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *RebuildError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *RebuildError) WithContext(key string, value any) *RebuildError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new RebuildError
func New(category ErrorCategory, message string) *RebuildError {
	return &RebuildError{
		Category: category,
		Message:  message,
	}
}

// Wrap creates a new RebuildError that wraps an existing error
func Wrap(err error, category ErrorCategory, message string) *RebuildError {
	return &RebuildError{
		Category: category,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error (or anything it wraps) belongs to a category
func IsCategory(err error, category ErrorCategory) bool {
	var re *RebuildError
	if goerrors.As(err, &re) {
		return re.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or CategoryUnknown if the
// chain contains no RebuildError.
func GetCategory(err error) ErrorCategory {
	var re *RebuildError
	if goerrors.As(err, &re) {
		return re.Category
	}
	return CategoryUnknown
}
