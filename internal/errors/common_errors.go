package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSourceNotFound     ErrorType = "SOURCE_NOT_FOUND"
	ErrTypeSchema             ErrorType = "SCHEMA"
	ErrTypeQuantileDegenerate ErrorType = "QUANTILE_DEGENERATE"
	ErrTypeWrite              ErrorType = "WRITE"
	ErrTypeValidation         ErrorType = "VALIDATION"
	ErrTypeConfig             ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewSourceNotFoundError reports an input path that does not resolve or cannot be opened.
func NewSourceNotFoundError(path string, cause error) *AppError {
	return NewAppError(ErrTypeSourceNotFound, fmt.Sprintf("source %q not found", path), cause).
		WithContext("path", path)
}

// NewSchemaError reports a missing column or a cell that does not decode to its column type.
func NewSchemaError(message string, cause error) *AppError {
	return NewAppError(ErrTypeSchema, message, cause)
}

// NewColumnMissingError reports a required column absent from the source header.
func NewColumnMissingError(column string) *AppError {
	return NewSchemaError(fmt.Sprintf("required column %q not found", column), nil).
		WithContext("column", column)
}

// NewCellTypeError reports a cell that cannot be decoded as the column's type.
// Row is the 1-based row number in the source.
func NewCellTypeError(column string, row int, value string, cause error) *AppError {
	return NewSchemaError(fmt.Sprintf("column %q row %d: cannot decode %q", column, row, value), cause).
		WithContext("column", column).
		WithContext("row", row)
}

// NewQuantileDegenerateError reports a metric whose quartile edges are not distinct.
func NewQuantileDegenerateError(metric string, distinct int) *AppError {
	return NewAppError(ErrTypeQuantileDegenerate,
		fmt.Sprintf("cannot cut %s into quartiles: bin edges are not unique (%d distinct values)", metric, distinct), nil).
		WithContext("metric", metric).
		WithContext("distinct_values", distinct)
}

// NewWriteError reports an output destination that could not be written.
func NewWriteError(path string, cause error) *AppError {
	return NewAppError(ErrTypeWrite, fmt.Sprintf("failed to write %q", path), cause).
		WithContext("path", path)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "" if there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err's chain contains an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
