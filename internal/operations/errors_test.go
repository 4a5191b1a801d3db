package operations

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineErrorMessages(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name string
		err  *PipelineError
		want string
		typ  ErrorType
	}{
		{"validation", NewValidationError("parsing", "no dataset supplied"), "[validation] parsing: no dataset supplied", ErrorTypeValidation},
		{"execution", NewExecutionError("firm_learning", cause), "[execution] firm_learning: stage execution failed: disk full", ErrorTypeExecution},
		{"cancellation", NewCancellationError("data_quality", nil), "[cancellation] data_quality: validation was cancelled", ErrorTypeCancellation},
		{"fatal", NewFatalError("stage panicked: boom", nil), "[fatal] stage panicked: boom", ErrorTypeFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.Equal(t, tt.typ, GetErrorType(tt.err))
		})
	}
}

func TestPipelineErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("outer: %w", NewExecutionError("firm_learning", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeExecution, GetErrorType(err))
	assert.True(t, IsCancellation(NewCancellationError("parsing", nil)))
	assert.False(t, IsCancellation(cause))
	assert.Equal(t, ErrorType(""), GetErrorType(nil))
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "parsing", "a.csv"))

	plain := WrapError(errors.New("boom"), "parsing", "a.csv")
	assert.Equal(t, ErrorTypeExecution, plain.Type)
	assert.Equal(t, "parsing", plain.Stage)
	assert.Equal(t, "a.csv", plain.File)

	typed := NewValidationError("", "bad input")
	wrapped := WrapError(typed, "header_analysis", "b.csv")
	assert.Same(t, typed, wrapped)
	assert.Equal(t, "header_analysis", wrapped.Stage)
	assert.Equal(t, ErrorTypeValidation, wrapped.Type)
}
