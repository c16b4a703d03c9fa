package operations

import (
	"errors"
	"fmt"

	apperrors "rfmcli/internal/errors"
)

// ErrorType represents the type of step error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
)

// StepError represents a step-specific error. The cause chain is preserved so
// callers can still match the underlying AppError.
type StepError struct {
	Type    ErrorType `json:"type"`
	Step    string    `json:"step,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *StepError) Error() string {
	if e == nil {
		return "unknown step error"
	}
	msg := fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(step, message string) *StepError {
	return &StepError{
		Type:    ErrorTypeValidation,
		Step:    step,
		Message: message,
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(step string, cause error) *StepError {
	return &StepError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "run was cancelled",
		Cause:   cause,
	}
}

// WrapError wraps an error with step context
func WrapError(err error, step string, message string) *StepError {
	if err == nil {
		return nil
	}

	var stepErr *StepError
	if errors.As(err, &stepErr) {
		if stepErr.Step == "" {
			stepErr.Step = step
		}
		return stepErr
	}

	return &StepError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: message,
		Cause:   err,
	}
}

// ErrorTypeOf returns the label used to report err: the AppError type when
// one is in the chain, otherwise the step error type.
func ErrorTypeOf(err error) string {
	if err == nil {
		return ""
	}
	if t := apperrors.TypeOf(err); t != "" {
		return string(t)
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return string(stepErr.Type)
	}
	return string(ErrorTypeExecution)
}
