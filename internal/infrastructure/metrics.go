package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the RFM pipeline's metric instruments
type PipelineMetrics struct {
	RowsLoaded       metric.Int64Counter
	RowsCleaned      metric.Int64Counter
	RowsDropped      metric.Int64Counter
	RowsPublished    metric.Int64Counter
	CustomersScored  metric.Int64Counter
	SegmentCustomers metric.Int64Counter
	StepDuration     metric.Float64Histogram
	StepErrors       metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline's instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	rowsLoaded, err := meter.Int64Counter(
		"rfm_rows_loaded",
		metric.WithDescription("Source rows decoded by the loader"),
	)
	if err != nil {
		return nil, err
	}

	rowsCleaned, err := meter.Int64Counter(
		"rfm_rows_cleaned",
		metric.WithDescription("Rows retained by the cleaner"),
	)
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter(
		"rfm_rows_dropped",
		metric.WithDescription("Rows excluded by the cleaner, by reason"),
	)
	if err != nil {
		return nil, err
	}

	rowsPublished, err := meter.Int64Counter(
		"rfm_rows_published",
		metric.WithDescription("Enriched rows written by the publisher"),
	)
	if err != nil {
		return nil, err
	}

	customersScored, err := meter.Int64Counter(
		"rfm_customers_scored",
		metric.WithDescription("Customer profiles scored by the RFM engine"),
	)
	if err != nil {
		return nil, err
	}

	segmentCustomers, err := meter.Int64Counter(
		"rfm_segment_customers",
		metric.WithDescription("Customers assigned to each segment"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"rfm_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepErrors, err := meter.Int64Counter(
		"rfm_step_errors",
		metric.WithDescription("Pipeline step failures, by error type"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RowsLoaded:       rowsLoaded,
		RowsCleaned:      rowsCleaned,
		RowsDropped:      rowsDropped,
		RowsPublished:    rowsPublished,
		CustomersScored:  customersScored,
		SegmentCustomers: segmentCustomers,
		StepDuration:     stepDuration,
		StepErrors:       stepErrors,
	}, nil
}

// RecordDrops adds the cleaner's per-reason drop counts
func (m *PipelineMetrics) RecordDrops(ctx context.Context, byReason map[string]int) {
	for reason, n := range byReason {
		m.RowsDropped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", reason)))
	}
}

// RecordSegments adds the per-segment customer counts
func (m *PipelineMetrics) RecordSegments(ctx context.Context, bySegment map[string]int) {
	for segment, n := range bySegment {
		m.SegmentCustomers.Add(ctx, int64(n), metric.WithAttributes(attribute.String("segment", segment)))
	}
}

// RecordStep records a step's duration and, when errType is non-empty, a failure
func (m *PipelineMetrics) RecordStep(ctx context.Context, stepID string, d time.Duration, errType string) {
	status := "success"
	if errType != "" {
		status = "failed"
		m.StepErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("step", stepID),
			attribute.String("error_type", errType),
		))
	}
	m.StepDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("step", stepID),
		attribute.String("status", status),
	))
}
