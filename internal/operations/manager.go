package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"nexusprep/internal/learning"
	"nexusprep/internal/mapping"
	"nexusprep/internal/readiness"
	"nexusprep/internal/taxonomy"
	"nexusprep/pkg/contracts/domain"
)

// Manager orchestrates validation runs
type Manager struct {
	registry *Registry
	config   *Config
	sink     *learning.Sink
	reporter ProgressReporter
	tracer   *PipelineTracer
	logger   *slog.Logger
}

// NewManager creates a manager with the seven default stages registered.
func NewManager(config *Config, sink *learning.Sink, logger *slog.Logger) *Manager {
	if config == nil {
		config = NewConfig()
	}
	registry := NewRegistry()
	for _, step := range DefaultStages(config, sink) {
		// IDs are fixed and unique
		_ = registry.Register(step)
	}
	m := NewManagerWithRegistry(registry, config, logger)
	m.sink = sink
	return m
}

// NewManagerWithRegistry creates a manager over an explicit set of steps.
func NewManagerWithRegistry(registry *Registry, config *Config, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	tracer, err := NewPipelineTracer(nil)
	if err != nil {
		logger.Warn("pipeline_tracer_unavailable", slog.String("error", err.Error()))
	}
	return &Manager{
		registry: registry,
		config:   config,
		tracer:   tracer,
		logger:   logger.With("component", "pipeline"),
	}
}

// RegisterStage registers a step with the pipeline
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the step registry
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetConfig returns the pipeline configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// SetProgressReporter sets the receiver of run and stage events
func (m *Manager) SetProgressReporter(reporter ProgressReporter) {
	m.reporter = reporter
}

// SetTracer replaces the default tracer
func (m *Manager) SetTracer(tracer *PipelineTracer) {
	if tracer != nil {
		m.tracer = tracer
	}
}

// runState tracks the position of a run for progress and fault attribution.
type runState struct {
	id       string
	firmID   string
	files    []*FileState
	progress *ProgressTracker
	stage    string
	file     string
	fault    *PipelineError
}

// Validate runs the pipeline for the default firm.
func (m *Manager) Validate(ctx context.Context, files []*domain.Dataset) *domain.ValidationResult {
	return m.ValidateForFirm(ctx, "", files)
}

// ValidateForFirm runs every stage over every file in input order. It never panics and
// never returns an error: a stage error or panic ends the run, is recorded as one issue
// of type "error", and the partial result is returned. Repeated dataset names are made
// unique first so each file keeps its own scope.
func (m *Manager) ValidateForFirm(ctx context.Context, firmID string, files []*domain.Dataset) *domain.ValidationResult {
	if firmID == "" {
		firmID = m.config.DefaultFirm
	}
	domain.UniqueNames(files)

	result := &domain.ValidationResult{
		ID:             uuid.NewString(),
		FirmID:         firmID,
		StartedAt:      time.Now().UTC(),
		Stages:         []domain.StageResult{},
		Issues:         []domain.Issue{},
		Mappings:       []domain.ColumnMapping{},
		Normalizations: []domain.Normalization{},
		Files:          []domain.FileSummary{},
	}

	run := &runState{
		id:       result.ID,
		firmID:   firmID,
		files:    make([]*FileState, len(files)),
		progress: NewProgressTracker(0),
	}
	for i, ds := range files {
		run.files[i] = NewFileState(ds, firmID, nil, result)
	}

	ctx, span := m.tracer.TraceRun(ctx, run.id, firmID, len(files))
	defer span.End()

	start := time.Now()
	m.logRunStart(ctx, run.id, firmID, len(files))
	m.broadcast(EventTypeValidationStarted, "", "running", RunEvent{RunID: run.id, FirmID: firmID, Files: len(files)})

	defer func() {
		if r := recover(); r != nil {
			m.recordFault(ctx, run, result, NewFatalError(fmt.Sprintf("stage panicked: %v", r), nil))
		}
		m.finish(ctx, span, run, result, time.Since(start))
	}()

	if err := m.execute(ctx, run, result); err != nil {
		m.recordFault(ctx, run, result, err)
	}
	return result
}

func (m *Manager) execute(ctx context.Context, run *runState, result *domain.ValidationResult) error {
	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		return NewFatalError("invalid stage configuration", err)
	}
	run.progress = NewProgressTracker(len(steps) * len(run.files))

	learned := m.loadLearned(ctx, run.firmID)
	for _, state := range run.files {
		state.Learned = learned
		for i, step := range steps {
			if state.Skipped {
				m.logFileSkipped(ctx, run.id, state.File())
				run.progress.Advance(len(steps) - i)
				break
			}

			run.stage, run.file = step.ID(), state.File()
			if err := ctx.Err(); err != nil {
				return NewCancellationError(step.ID(), err)
			}
			if err := m.executeStage(ctx, run, step, state, result); err != nil {
				return err
			}
		}
	}
	run.stage, run.file = "", ""
	return nil
}

func (m *Manager) executeStage(ctx context.Context, run *runState, step Step, state *FileState, result *domain.ValidationResult) error {
	stageCtx, cancel := context.WithTimeout(ctx, m.config.GetStageTimeout(step.ID()))
	defer cancel()

	stageCtx, span := m.tracer.TraceStage(stageCtx, run.id, step.ID(), state.File())
	defer span.End()

	m.logStageStart(stageCtx, run.id, step.ID(), state.File())
	before := len(state.Issues())
	start := time.Now()

	sr, err := step.Execute(stageCtx, state)
	duration := time.Since(start)
	if err != nil {
		return WrapError(err, step.ID(), state.File())
	}

	run.progress.Advance(1)
	sr.ID = domain.StageID(step.ID())
	sr.File = state.File()
	sr.Duration = duration
	sr.Progress = run.progress.Percent()
	if sr.Status == "" {
		sr.Status = domain.StageSuccess
	}
	result.Stages = append(result.Stages, sr)

	raised := state.Issues()[before:]
	m.tracer.RecordStage(stageCtx, span, step.ID(), sr.Status, duration, raised)
	m.logStageComplete(stageCtx, run.id, step.ID(), state.File(), string(sr.Status), duration, len(raised))
	m.broadcast(EventTypeStageProgress, step.ID(), string(sr.Status), StageEvent{
		RunID:    run.id,
		File:     sr.File,
		Stage:    step.ID(),
		Status:   sr.Status,
		Progress: sr.Progress,
		ETA:      run.progress.ETA(),
		Message:  sr.Message,
	})
	return nil
}

// loadLearned reads the firm taxonomy once per run.
func (m *Manager) loadLearned(ctx context.Context, firmID string) map[string]mapping.Learned {
	if m.sink == nil {
		return map[string]mapping.Learned{}
	}
	return m.sink.Learned(ctx, firmID)
}

// recordFault turns a fault into the run's single synthetic error issue.
func (m *Manager) recordFault(ctx context.Context, run *runState, result *domain.ValidationResult, err error) {
	if run.fault != nil {
		return
	}

	var pErr *PipelineError
	if !errors.As(err, &pErr) {
		pErr = NewExecutionError(run.stage, err)
	}
	if pErr.Stage == "" {
		pErr.Stage = run.stage
	}
	if pErr.File == "" {
		pErr.File = run.file
	}
	run.fault = pErr

	if pErr.Stage != "" {
		result.Stages = append(result.Stages, domain.StageResult{
			ID:       domain.StageID(pErr.Stage),
			File:     pErr.File,
			Status:   domain.StageError,
			Progress: run.progress.Percent(),
			Message:  pErr.Error(),
		})
	}

	where := "the pipeline"
	if pErr.Stage != "" {
		where = fmt.Sprintf("the %s stage", pErr.Stage)
	}
	result.Issues = append(result.Issues, domain.Issue{
		ID:       uuid.NewString(),
		File:     pErr.File,
		Type:     domain.IssueError,
		Severity: domain.SeverityError,
		Title:    "Validation stopped unexpectedly",
		Description: fmt.Sprintf("Validation stopped in %s: %s. Results gathered before the failure are included.",
			where, pErr.Error()),
		Suggestions: []domain.Suggestion{
			{Label: "Retry the validation", Value: "retry"},
		},
	})

	m.tracer.RecordFault(ctx, pErr)
	m.logRunFault(ctx, run.id, pErr)
}

func (m *Manager) finish(ctx context.Context, span trace.Span, run *runState, result *domain.ValidationResult, duration time.Duration) {
	for _, state := range run.files {
		result.Files = append(result.Files, state.Summary())
	}
	result.Summary = summarize(run.files, result, run.fault != nil)
	result.CompletedAt = time.Now().UTC()

	status := RunStatusCompleted
	eventType := EventTypeValidationComplete
	if run.fault != nil {
		status = RunStatusAborted
		eventType = EventTypeValidationError
	}

	m.tracer.RecordRun(ctx, span, status, duration, result.Summary)
	m.logRunComplete(ctx, run.id, status, duration, result.Summary.Errors, result.Summary.Warnings)
	m.broadcast(eventType, "", status, RunEvent{
		RunID:    run.id,
		FirmID:   run.firmID,
		Files:    len(run.files),
		Status:   status,
		Errors:   result.Summary.Errors,
		Warnings: result.Summary.Warnings,
		Ready:    result.Summary.ReadyForAnalysis,
	})
}

func (m *Manager) broadcast(eventType, step, status string, metadata interface{}) {
	if m.reporter == nil {
		return
	}
	m.reporter.BroadcastUpdate(eventType, step, status, metadata)
}

// summarize aggregates the per-file states. A module is ready when some single file
// carries its required fields.
func summarize(files []*FileState, result *domain.ValidationResult, aborted bool) domain.Summary {
	s := domain.Summary{
		TotalFiles:     len(files),
		DetectedFields: []domain.FieldID{},
		States:         []string{},
		Errors:         domain.CountBySeverity(result.Issues, domain.SeverityError),
		Warnings:       domain.CountBySeverity(result.Issues, domain.SeverityWarning),
		Aborted:        aborted,
	}

	seenField := map[domain.FieldID]bool{}
	seenState := map[string]bool{}
	scored, scoreSum := 0, 0
	for i, state := range files {
		fs := result.Files[i]
		s.TotalRows += fs.Rows
		s.MappedColumns += fs.MappedColumns
		s.TotalRevenue += fs.TotalRevenue
		s.AddedToFirmTaxonomy += fs.LearnedMappings
		for _, f := range fs.DetectedFields {
			if !seenField[f] {
				seenField[f] = true
				s.DetectedFields = append(s.DetectedFields, f)
			}
		}
		if state.Completed {
			for _, code := range state.StateCodes() {
				if !seenState[code] {
					seenState[code] = true
					s.States = append(s.States, code)
				}
			}
		}
		if state.Quality != nil {
			scored++
			scoreSum += state.Quality.Score
		}
	}

	sort.Strings(s.States)
	s.StatesDetected = len(s.States)
	if scored > 0 {
		s.QualityScore = (scoreSum + scored/2) / scored
	}
	perFile := make([][]domain.ModuleReadiness, 0, len(result.Files))
	for _, fs := range result.Files {
		perFile = append(perFile, fs.Modules)
	}
	s.Modules = readiness.Combine(perFile, taxonomy.Catalog)
	s.ReadyForAnalysis = !aborted && readiness.Ready(s.Modules)
	return s
}
