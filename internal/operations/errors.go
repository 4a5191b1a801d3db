package operations

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of pipeline fault
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeFatal        ErrorType = "fatal"
)

// PipelineError is a fault that ends a validation run. Data problems are issues,
// not PipelineErrors.
type PipelineError struct {
	Type    ErrorType `json:"type"`
	Stage   string    `json:"stage,omitempty"`
	File    string    `json:"file,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError reports a stage that cannot run with the given input.
func NewValidationError(stage, message string) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeValidation,
		Stage:   stage,
		Message: message,
	}
}

// NewExecutionError wraps an error returned by a stage.
func NewExecutionError(stage string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeExecution,
		Stage:   stage,
		Message: "stage execution failed",
		Cause:   cause,
	}
}

// NewCancellationError reports a run cancelled before stage could start.
func NewCancellationError(stage string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeCancellation,
		Stage:   stage,
		Message: "validation was cancelled",
		Cause:   cause,
	}
}

// NewFatalError reports an unrecoverable fault, such as a panic inside a stage.
func NewFatalError(message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeFatal,
		Message: message,
		Cause:   cause,
	}
}

// GetErrorType returns the type of the error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Type
	}
	return ErrorTypeExecution
}

// IsCancellation reports whether err is a cancellation fault.
func IsCancellation(err error) bool {
	return GetErrorType(err) == ErrorTypeCancellation
}

// WrapError attaches stage and file context to err.
func WrapError(err error, stage, file string) *PipelineError {
	if err == nil {
		return nil
	}

	var pErr *PipelineError
	if errors.As(err, &pErr) {
		if pErr.Stage == "" {
			pErr.Stage = stage
		}
		if pErr.File == "" {
			pErr.File = file
		}
		return pErr
	}

	wrapped := NewExecutionError(stage, err)
	wrapped.File = file
	return wrapped
}
