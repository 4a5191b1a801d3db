package operations

import (
	"context"
	"log/slog"
	"time"
)

func (m *Manager) logRunStart(ctx context.Context, runID, firmID string, files int) {
	m.logger.InfoContext(ctx, "validation_start",
		slog.String("run_id", runID),
		slog.String("firm_id", firmID),
		slog.Int("files", files))
}

func (m *Manager) logRunComplete(ctx context.Context, runID, status string, duration time.Duration, errors, warnings int) {
	m.logger.InfoContext(ctx, "validation_complete",
		slog.String("run_id", runID),
		slog.String("status", status),
		slog.Duration("duration", duration),
		slog.Int("errors", errors),
		slog.Int("warnings", warnings))
}

func (m *Manager) logRunFault(ctx context.Context, runID string, err *PipelineError) {
	m.logger.ErrorContext(ctx, "validation_fault",
		slog.String("run_id", runID),
		slog.String("type", string(err.Type)),
		slog.String("stage", err.Stage),
		slog.String("file", err.File),
		slog.String("error", err.Error()))
}

func (m *Manager) logStageStart(ctx context.Context, runID, stageID, file string) {
	m.logger.DebugContext(ctx, "stage_start",
		slog.String("run_id", runID),
		slog.String("stage", stageID),
		slog.String("file", file))
}

func (m *Manager) logStageComplete(ctx context.Context, runID, stageID, file, status string, duration time.Duration, issues int) {
	m.logger.InfoContext(ctx, "stage_complete",
		slog.String("run_id", runID),
		slog.String("stage", stageID),
		slog.String("file", file),
		slog.String("status", status),
		slog.Duration("duration", duration),
		slog.Int("issues", issues))
}

func (m *Manager) logFileSkipped(ctx context.Context, runID, file string) {
	m.logger.WarnContext(ctx, "file_skipped",
		slog.String("run_id", runID),
		slog.String("file", file))
}
