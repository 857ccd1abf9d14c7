package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Pipeline stage errors
	ErrorTypeExtraction     ErrorType = "EXTRACTION"
	ErrorTypeTransformation ErrorType = "TRANSFORMATION"
	ErrorTypeStaging        ErrorType = "STAGING"
	ErrorTypeUpload         ErrorType = "UPLOAD"
	ErrorTypeEmit           ErrorType = "EMIT"

	// Application errors
	ErrorTypeConfig   ErrorType = "CONFIG"
	ErrorTypeInternal ErrorType = "INTERNAL"
	ErrorTypeTimeout  ErrorType = "TIMEOUT"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Table      string    `json:"table,omitempty"`
	Cause      error     `json:"-"`
	StackTrace string    `json:"-"`
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

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

// Constructor functions for common error types

// NewExtractionError creates an extraction error for a source table
func NewExtractionError(table string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeExtraction,
		Message:    fmt.Sprintf("failed to extract source table '%s'", table),
		Table:      table,
		Cause:      err,
		StackTrace: captureStackTrace(),
	}
}

// NewTransformationError creates a transformation error for a target table
func NewTransformationError(table string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeTransformation,
		Message:    fmt.Sprintf("failed to transform records for '%s'", table),
		Table:      table,
		Cause:      err,
		StackTrace: captureStackTrace(),
	}
}

// NewStagingError creates a staging/serialization error for a target table
func NewStagingError(table string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeStaging,
		Message:    fmt.Sprintf("failed to stage file for '%s'", table),
		Table:      table,
		Cause:      err,
		StackTrace: captureStackTrace(),
	}
}

// NewUploadError creates an upload error for an object key
func NewUploadError(key string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeUpload,
		Message:    fmt.Sprintf("failed to upload object '%s'", key),
		Cause:      err,
		StackTrace: captureStackTrace(),
	}
}

// NewEmitError creates a load-command emission error
func NewEmitError(message string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeEmit,
		Message:    message,
		Cause:      err,
		StackTrace: captureStackTrace(),
	}
}

// NewConfigError creates a configuration error
func NewConfigError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConfig,
		Message:    message,
		StackTrace: captureStackTrace(),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StackTrace: captureStackTrace(),
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    fmt.Sprintf("operation '%s' timed out", operation),
		StackTrace: captureStackTrace(),
	}
}

// Helper functions

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsExtraction checks if an error is an extraction error
func IsExtraction(err error) bool {
	return IsType(err, ErrorTypeExtraction)
}

// IsStaging checks if an error is a staging error
func IsStaging(err error) bool {
	return IsType(err, ErrorTypeStaging)
}

// IsUpload checks if an error is an upload error
func IsUpload(err error) bool {
	return IsType(err, ErrorTypeUpload)
}

// Table returns the source or target table an error is scoped to, if any
func Table(err error) string {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Table
	}
	return ""
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, add context to message
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	// Otherwise create a new internal error
	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
