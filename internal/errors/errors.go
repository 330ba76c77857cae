// Package errors provides a lightweight structured error type (MetadocsError)
// for category-based classification in the CLI adapter.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a metadocs error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Local environment errors (port binding, missing directories)
	CategoryNetwork    ErrorCategory = "network"
	CategoryFileSystem ErrorCategory = "filesystem"

	// External tool and build errors
	CategoryProcess ErrorCategory = "process"
	CategoryBuild   ErrorCategory = "build"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// MetadocsError is a structured error with category, retryability, and context
type MetadocsError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for MetadocsError
type ContextFields map[string]any

// Error implements the error interface
func (e *MetadocsError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *MetadocsError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *MetadocsError) WithContext(key string, value any) *MetadocsError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

func (e *MetadocsError) withMessage(msg string) *MetadocsError {
	e.Message = msg
	return e
}

// New creates a new MetadocsError
func New(category ErrorCategory, severity ErrorSeverity, message string) *MetadocsError {
	return &MetadocsError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new MetadocsError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *MetadocsError {
	return &MetadocsError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapRetryable creates a new retryable MetadocsError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *MetadocsError {
	return &MetadocsError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// As returns the first MetadocsError in err's chain.
func As(err error) (*MetadocsError, bool) {
	for err != nil {
		if me, ok := err.(*MetadocsError); ok {
			return me, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if me, ok := As(err); ok {
		return me.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if me, ok := As(err); ok {
		return me.Retryable
	}
	return false
}
