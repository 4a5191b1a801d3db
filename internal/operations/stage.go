package operations

import (
	"context"

	"nexusprep/pkg/contracts/domain"
)

// Step represents a single stage of the validation pipeline
type Step interface {
	// ID returns the unique identifier for this step
	ID() string

	// Name returns the human-readable name for this step
	Name() string

	// GetDependencies returns the IDs of steps that must complete before this step
	GetDependencies() []string

	// Execute runs the step for one file. Data problems go to state as issues and
	// shape the returned status; a non-nil error is a pipeline fault.
	Execute(ctx context.Context, state *FileState) (domain.StageResult, error)
}

// BaseStage provides common functionality for Step implementations
type BaseStage struct {
	id           string
	name         string
	dependencies []string
}

// NewBaseStage creates a new base step
func NewBaseStage(id, name string, dependencies []string) BaseStage {
	if dependencies == nil {
		dependencies = []string{}
	}
	return BaseStage{
		id:           id,
		name:         name,
		dependencies: dependencies,
	}
}

// ID returns the step ID
func (b *BaseStage) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

// Name returns the step name
func (b *BaseStage) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// GetDependencies returns the step dependencies
func (b *BaseStage) GetDependencies() []string {
	if b == nil {
		return nil
	}
	return b.dependencies
}

// result starts a StageResult for this step and file.
func (b *BaseStage) result(state *FileState, status domain.StageStatus, message string) domain.StageResult {
	return domain.StageResult{
		ID:      domain.StageID(b.id),
		File:    state.File(),
		Status:  status,
		Message: message,
		Details: map[string]any{},
	}
}

// statusFor derives a stage status from the issues it raised.
func statusFor(issues []domain.Issue) domain.StageStatus {
	switch {
	case domain.CountBySeverity(issues, domain.SeverityError) > 0:
		return domain.StageError
	case len(issues) > 0:
		return domain.StageWarning
	default:
		return domain.StageSuccess
	}
}
