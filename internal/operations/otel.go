package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"nexusprep/internal/infrastructure"
	"nexusprep/pkg/contracts/domain"
)

const (
	TracerName = "nexusprep.validation"
)

// PipelineTracer provides OpenTelemetry instrumentation for validation runs
type PipelineTracer struct {
	tracer          trace.Tracer
	businessMetrics *infrastructure.BusinessMetrics
}

// NewPipelineTracer creates a tracer. With nil providers the global tracer and a
// no-op meter are used.
func NewPipelineTracer(providers *infrastructure.OTelProviders) (*PipelineTracer, error) {
	var meter metric.Meter
	if providers != nil {
		meter = providers.Meter
	}
	businessMetrics, err := infrastructure.CreateBusinessMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return &PipelineTracer{
		tracer:          otel.Tracer(TracerName),
		businessMetrics: businessMetrics,
	}, nil
}

// TraceRun creates a span for a whole validation run
func (pt *PipelineTracer) TraceRun(ctx context.Context, runID, firmID string, files int) (context.Context, trace.Span) {
	ctx, span := pt.tracer.Start(ctx, "validation.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("validation.id", runID),
			attribute.String("validation.firm_id", firmID),
			attribute.Int("validation.files", files),
		),
	)

	pt.businessMetrics.ValidationActiveRuns.Add(ctx, 1)
	return ctx, span
}

// TraceStage creates a span for one stage execution on one file
func (pt *PipelineTracer) TraceStage(ctx context.Context, runID, stageID, file string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, fmt.Sprintf("validation.stage.%s", stageID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("validation.id", runID),
			attribute.String("stage.id", stageID),
			attribute.String("stage.file", file),
		),
	)
}

// RecordStage records stage duration and the issues it raised
func (pt *PipelineTracer) RecordStage(ctx context.Context, span trace.Span, stageID string, status domain.StageStatus, duration time.Duration, issues []domain.Issue) {
	span.SetAttributes(
		attribute.String("stage.status", string(status)),
		attribute.Float64("stage.duration_seconds", duration.Seconds()),
		attribute.Int("stage.issues", len(issues)),
	)

	pt.businessMetrics.ValidationStageDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("stage", stageID),
			attribute.String("status", string(status)),
		),
	)

	for _, is := range issues {
		pt.businessMetrics.ValidationIssuesTotal.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("type", string(is.Type)),
				attribute.String("severity", string(is.Severity)),
			),
		)
	}

	if status == domain.StageError {
		span.SetStatus(codes.Error, "stage reported errors")
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

// RecordFault records a pipeline fault on the active span
func (pt *PipelineTracer) RecordFault(ctx context.Context, err *PipelineError) {
	pt.businessMetrics.PipelineFaults.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("type", string(err.Type)),
			attribute.String("stage", err.Stage),
		),
	)
	pt.businessMetrics.ValidationIssuesTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("type", string(domain.IssueError)),
			attribute.String("severity", string(domain.SeverityError)),
		),
	)
	infrastructure.RecordError(ctx, err)
}

// RecordRun records run completion with metrics and span events
func (pt *PipelineTracer) RecordRun(ctx context.Context, span trace.Span, status string, duration time.Duration, summary domain.Summary) {
	span.SetAttributes(
		attribute.String("validation.status", status),
		attribute.Float64("validation.duration_seconds", duration.Seconds()),
		attribute.Int("validation.rows", summary.TotalRows),
		attribute.Bool("validation.ready", summary.ReadyForAnalysis),
	)

	attrs := metric.WithAttributes(attribute.String("status", status))
	pt.businessMetrics.ValidationRunsTotal.Add(ctx, 1, attrs)
	pt.businessMetrics.ValidationRunDuration.Record(ctx, duration.Seconds(), attrs)
	pt.businessMetrics.ValidationActiveRuns.Add(ctx, -1)
	if summary.TotalRows > 0 {
		pt.businessMetrics.ValidationRowsProcessed.Add(ctx, int64(summary.TotalRows))
	}
	if summary.AddedToFirmTaxonomy > 0 {
		pt.businessMetrics.LearnedMappingsTotal.Add(ctx, int64(summary.AddedToFirmTaxonomy))
	}

	infrastructure.AddSpanEvent(ctx, "validation.completed", map[string]interface{}{
		"status":   status,
		"duration": duration.Seconds(),
		"files":    summary.TotalFiles,
		"errors":   summary.Errors,
		"warnings": summary.Warnings,
	})

	if status == RunStatusCompleted {
		span.SetStatus(codes.Ok, "validation completed")
	} else {
		span.SetStatus(codes.Error, fmt.Sprintf("validation ended with status: %s", status))
	}
}
