package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager executes the registered steps of a run in order
type Manager struct {
	registry *Registry
	tracer   *StepTracer
	logger   *slog.Logger
}

// NewManager creates a new Manager. A nil tracer disables tracing and metrics;
// a nil logger falls back to slog.Default().
func NewManager(registry *Registry, tracer *StepTracer, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if tracer == nil {
		tracer = NewStepTracer(nil, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		tracer:   tracer,
		logger:   logger,
	}
}

// GetRegistry returns the step registry
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Run executes every registered step against state, one at a time. The first
// failure stops the run; the steps after it are marked skipped and the failure
// is returned wrapped in a StepError.
func (m *Manager) Run(ctx context.Context, state *RunState) error {
	steps := m.registry.List()
	for _, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceRun(ctx, state.ID, len(steps))
	state.Start()

	m.logger.InfoContext(ctx, "sequential_execution_start",
		slog.String("run_id", state.ID),
		slog.Int("step_count", len(steps)))

	for i, step := range steps {
		if err := m.executeStep(ctx, state, step, i, len(steps)); err != nil {
			for _, rest := range steps[i+1:] {
				state.GetStep(rest.ID()).Skip(fmt.Sprintf("step %s failed", step.ID()))
				m.logger.InfoContext(ctx, "step_skipped",
					slog.String("run_id", state.ID),
					slog.String("step", rest.ID()))
			}
			state.Fail(err)
			m.tracer.EndRun(span, err)

			m.logger.ErrorContext(ctx, "run_failed",
				slog.String("run_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("error_type", ErrorTypeOf(err)),
				slog.String("error", err.Error()),
				slog.Duration("duration", state.Duration()))
			return err
		}
	}

	state.Complete()
	m.tracer.EndRun(span, nil)

	m.logger.InfoContext(ctx, "all_steps_completed",
		slog.String("run_id", state.ID),
		slog.Duration("duration", state.Duration()))
	return nil
}

func (m *Manager) executeStep(ctx context.Context, state *RunState, step Step, index, total int) error {
	stepState := state.GetStep(step.ID())

	ctx, span := m.tracer.TraceStep(ctx, step, index, total)
	start := time.Now()
	stepState.Start()

	m.logger.InfoContext(ctx, "executing_step",
		slog.String("run_id", state.ID),
		slog.String("step", step.ID()),
		slog.Int("step_number", index+1),
		slog.Int("total_steps", total))

	err := m.runStep(ctx, state, step)
	duration := time.Since(start)
	m.tracer.EndStep(ctx, span, step.ID(), duration, err)

	if err != nil {
		stepState.Fail(err)
		m.logger.ErrorContext(ctx, "step_failed",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error_type", ErrorTypeOf(err)),
			slog.String("error", err.Error()))
		return err
	}

	stepState.Complete(fmt.Sprintf("%s completed", step.Name()))
	m.logger.InfoContext(ctx, "step_completed_successfully",
		slog.String("run_id", state.ID),
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

func (m *Manager) runStep(ctx context.Context, state *RunState, step Step) error {
	if err := ctx.Err(); err != nil {
		return NewCancellationError(step.ID(), err)
	}

	m.logger.DebugContext(ctx, "validating_step",
		slog.String("run_id", state.ID),
		slog.String("step", step.ID()))
	if err := step.Validate(state); err != nil {
		return WrapError(err, step.ID(), "validation failed")
	}

	if err := step.Execute(ctx, state); err != nil {
		return WrapError(err, step.ID(), "step execution failed")
	}
	return nil
}
