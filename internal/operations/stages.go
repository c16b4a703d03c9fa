package operations

import (
	"context"
	"io"
	"log/slog"

	"rfmcli/internal/config"
	"rfmcli/internal/dataprocessing"
	"rfmcli/internal/exporter"
	"rfmcli/internal/infrastructure"
	"rfmcli/internal/rfm"
)

const (
	StageIDLoad    = "load"
	StageIDClean   = "clean"
	StageIDScore   = "score"
	StageIDPublish = "publish"

	StageNameLoad    = "Load transactions"
	StageNameClean   = "Clean transactions"
	StageNameScore   = "Score customers"
	StageNamePublish = "Publish enriched dataset"
)

// StageOptions carries the run settings shared by the pipeline steps
type StageOptions struct {
	InputPath     string
	OutputPath    string
	CustomersPath string
	SheetName     string
	Policy        rfm.DegeneratePolicy
	BOMPrefix     bool

	ShowProgress   bool
	ProgressWriter io.Writer

	// Paths anchors relative output paths; nil leaves them as given
	Paths   *config.Paths
	Metrics *infrastructure.PipelineMetrics
}

// LoadStage reads the source table into the run state
type LoadStage struct {
	BaseStage
	loader  *dataprocessing.Loader
	input   string
	metrics *infrastructure.PipelineMetrics
}

// NewLoadStage creates the load step
func NewLoadStage(logger *slog.Logger, options *StageOptions) *LoadStage {
	return &LoadStage{
		BaseStage: NewBaseStage(StageIDLoad, StageNameLoad),
		loader: dataprocessing.NewLoader(stageLogger(logger, StageIDLoad), dataprocessing.LoaderConfig{
			SheetName:      options.SheetName,
			ShowProgress:   options.ShowProgress,
			ProgressWriter: options.ProgressWriter,
		}),
		input:   options.InputPath,
		metrics: options.Metrics,
	}
}

// Validate checks that an input path is configured
func (s *LoadStage) Validate(state *RunState) error {
	if s.input == "" {
		return NewValidationError(s.ID(), "input path is empty")
	}
	return nil
}

// Execute loads the source table
func (s *LoadStage) Execute(ctx context.Context, state *RunState) error {
	raw, err := s.loader.Load(ctx, s.input)
	if err != nil {
		return err
	}
	state.Raw = raw

	if s.metrics != nil {
		s.metrics.RowsLoaded.Add(ctx, int64(raw.Len()))
	}
	return nil
}

// CleanStage filters the raw table into transactions
type CleanStage struct {
	BaseStage
	cleaner *dataprocessing.Cleaner
	metrics *infrastructure.PipelineMetrics
}

// NewCleanStage creates the clean step
func NewCleanStage(logger *slog.Logger, options *StageOptions) *CleanStage {
	return &CleanStage{
		BaseStage: NewBaseStage(StageIDClean, StageNameClean),
		cleaner:   dataprocessing.NewCleaner(stageLogger(logger, StageIDClean)),
		metrics:   options.Metrics,
	}
}

// Validate checks that the load step produced a table
func (s *CleanStage) Validate(state *RunState) error {
	if state.Raw == nil {
		return NewValidationError(s.ID(), "no raw table loaded")
	}
	return nil
}

// Execute cleans the raw table
func (s *CleanStage) Execute(ctx context.Context, state *RunState) error {
	cleaned, report := s.cleaner.Clean(ctx, state.Raw)
	state.Cleaned = cleaned
	state.CleanReport = report

	if s.metrics != nil {
		s.metrics.RowsCleaned.Add(ctx, int64(report.Retained))
		s.metrics.RecordDrops(ctx, report.Dropped)
	}
	return nil
}

// ScoreStage computes RFM scores and segments
type ScoreStage struct {
	BaseStage
	engine  *rfm.Engine
	metrics *infrastructure.PipelineMetrics
}

// NewScoreStage creates the score step
func NewScoreStage(logger *slog.Logger, options *StageOptions) *ScoreStage {
	return &ScoreStage{
		BaseStage: NewBaseStage(StageIDScore, StageNameScore),
		engine:    rfm.NewEngine(stageLogger(logger, StageIDScore), rfm.EngineConfig{Policy: options.Policy}),
		metrics:   options.Metrics,
	}
}

// Validate checks that the clean step ran
func (s *ScoreStage) Validate(state *RunState) error {
	if state.Cleaned == nil {
		return NewValidationError(s.ID(), "no cleaned transactions")
	}
	return nil
}

// Execute scores every customer
func (s *ScoreStage) Execute(ctx context.Context, state *RunState) error {
	result, err := s.engine.Run(ctx, state.Cleaned)
	if err != nil {
		return err
	}
	state.Result = result

	if s.metrics != nil {
		s.metrics.CustomersScored.Add(ctx, int64(result.Len()))
		bySegment := make(map[string]int)
		for _, sc := range result.SegmentCounts() {
			bySegment[sc.Segment.String()] = sc.Customers
		}
		s.metrics.RecordSegments(ctx, bySegment)
	}
	return nil
}

// PublishStage writes the enriched dataset and, when configured, the
// per-customer table
type PublishStage struct {
	BaseStage
	publisher *exporter.Publisher
	output    string
	customers string
	metrics   *infrastructure.PipelineMetrics
}

// NewPublishStage creates the publish step
func NewPublishStage(logger *slog.Logger, options *StageOptions) *PublishStage {
	logger = stageLogger(logger, StageIDPublish)
	writer := exporter.NewCSVWriter(options.Paths, logger)
	return &PublishStage{
		BaseStage: NewBaseStage(StageIDPublish, StageNamePublish),
		publisher: exporter.NewPublisher(writer, logger, exporter.PublisherConfig{BOMPrefix: options.BOMPrefix}),
		output:    options.OutputPath,
		customers: options.CustomersPath,
		metrics:   options.Metrics,
	}
}

// Validate checks that scores exist and an output path is configured
func (s *PublishStage) Validate(state *RunState) error {
	if s.output == "" {
		return NewValidationError(s.ID(), "output path is empty")
	}
	if state.Cleaned == nil || state.Result == nil {
		return NewValidationError(s.ID(), "no scored transactions")
	}
	return nil
}

// Execute writes the outputs
func (s *PublishStage) Execute(ctx context.Context, state *RunState) error {
	summary, err := s.publisher.Publish(ctx, s.output, state.Cleaned, state.Result)
	if err != nil {
		return err
	}
	state.Published = summary

	if s.metrics != nil {
		s.metrics.RowsPublished.Add(ctx, int64(summary.Rows))
	}

	if s.customers == "" {
		return nil
	}
	customers, err := s.publisher.PublishCustomers(ctx, s.customers, state.Result)
	if err != nil {
		return err
	}
	state.Customers = &customers
	return nil
}

// StageFactory returns the pipeline steps in execution order
func StageFactory(logger *slog.Logger, options *StageOptions) []Step {
	if options == nil {
		options = &StageOptions{}
	}
	return []Step{
		NewLoadStage(logger, options),
		NewCleanStage(logger, options),
		NewScoreStage(logger, options),
		NewPublishStage(logger, options),
	}
}

// NewPipelineRegistry registers the pipeline steps in execution order
func NewPipelineRegistry(logger *slog.Logger, options *StageOptions) (*Registry, error) {
	registry := NewRegistry()
	for _, step := range StageFactory(logger, options) {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func stageLogger(logger *slog.Logger, stepID string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("step", stepID))
}
