package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"rfmcli/internal/infrastructure"
)

const (
	TracerName = "rfmcli.operations"
)

// StepTracer provides OpenTelemetry instrumentation for pipeline runs
type StepTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewStepTracer creates a tracer over providers. Nil providers or metrics
// disable the matching signal.
func NewStepTracer(providers *infrastructure.OTelProviders, metrics *infrastructure.PipelineMetrics) *StepTracer {
	var tracer trace.Tracer
	if providers != nil && providers.Tracer != nil {
		tracer = providers.Tracer
	} else {
		tracer = noop.NewTracerProvider().Tracer(TracerName)
	}
	return &StepTracer{tracer: tracer, metrics: metrics}
}

// Metrics returns the pipeline instruments, or nil when metrics are disabled
func (st *StepTracer) Metrics() *infrastructure.PipelineMetrics {
	if st == nil {
		return nil
	}
	return st.metrics
}

// TraceRun creates a span for the entire run
func (st *StepTracer) TraceRun(ctx context.Context, runID string, stepCount int) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.step_count", stepCount),
		),
	)
}

// EndRun finishes a run span
func (st *StepTracer) EndRun(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "run completed")
	}
	span.End()
}

// TraceStep creates a span for one step
func (st *StepTracer) TraceStep(ctx context.Context, step Step, index, total int) (context.Context, trace.Span) {
	spanName := fmt.Sprintf("pipeline.step.%s", step.ID())
	return st.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
			attribute.Int("step.number", index+1),
			attribute.Int("step.total", total),
		),
	)
}

// EndStep finishes a step span and records its duration and outcome
func (st *StepTracer) EndStep(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	errType := ErrorTypeOf(err)

	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err, trace.WithAttributes(attribute.String("error.type", errType)))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, fmt.Sprintf("step %s completed in %v", stepID, duration))
	}
	span.End()

	if st.metrics != nil {
		st.metrics.RecordStep(ctx, stepID, duration, errType)
	}
}
