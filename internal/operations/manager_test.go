package operations_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rfmcli/internal/errors"
	"rfmcli/internal/infrastructure"
	"rfmcli/internal/operations"
	"rfmcli/internal/operations/testutil"
)

func TestManagerDefaults(t *testing.T) {
	manager := operations.NewManager(nil, nil, nil)

	require.NotNil(t, manager)
	require.NotNil(t, manager.GetRegistry())
	assert.Equal(t, 0, manager.GetRegistry().Count())

	state := operations.NewRunState("empty")
	require.NoError(t, manager.Run(context.Background(), state))
	assert.Equal(t, operations.RunStatusCompleted, state.Status)
}

func TestManagerRunInOrder(t *testing.T) {
	var order []string
	registry := testutil.CreateTestRegistry(
		testutil.CreateRecordingStage("load", &order),
		testutil.CreateRecordingStage("clean", &order),
		testutil.CreateRecordingStage("score", &order),
		testutil.CreateRecordingStage("publish", &order),
	)
	manager := operations.NewManager(registry, nil, infrastructure.NewLogger(io.Discard, "debug"))

	state := operations.NewRunState("run")
	require.NoError(t, manager.Run(context.Background(), state))

	assert.Equal(t, []string{"load", "clean", "score", "publish"}, order)
	assert.Equal(t, operations.RunStatusCompleted, state.Status)
	for _, s := range state.Steps() {
		assert.Equal(t, operations.StepStatusCompleted, s.GetStatus(), s.ID)
		assert.NotNil(t, s.EndTime, s.ID)
	}
}

func TestManagerFirstFailureSkipsRest(t *testing.T) {
	cause := apperrors.NewQuantileDegenerateError("monetary", 1)

	first := testutil.CreateSuccessfulStage("load", "Load")
	failing := testutil.CreateFailingStage("score", "Score", cause)
	last := testutil.CreateSuccessfulStage("publish", "Publish")

	var logs bytes.Buffer
	manager := operations.NewManager(
		testutil.CreateTestRegistry(first, failing, last),
		nil,
		infrastructure.NewLogger(&logs, "info"),
	)

	state := operations.NewRunState("run")
	err := manager.Run(context.Background(), state)
	require.Error(t, err)

	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeQuantileDegenerate))
	var stepErr *operations.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "score", stepErr.Step)

	assert.Equal(t, 1, first.GetExecuteCalls())
	assert.Equal(t, 1, failing.GetExecuteCalls())
	assert.Equal(t, 0, last.GetExecuteCalls())
	assert.Equal(t, 0, last.GetValidateCalls())

	assert.Equal(t, operations.RunStatusFailed, state.Status)
	assert.Equal(t, operations.StepStatusCompleted, state.GetStep("load").GetStatus())
	assert.Equal(t, operations.StepStatusFailed, state.GetStep("score").GetStatus())
	assert.Equal(t, operations.StepStatusSkipped, state.GetStep("publish").GetStatus())
	assert.Equal(t, "step score failed", state.GetStep("publish").Message)

	assert.Contains(t, logs.String(), `"error_type":"QUANTILE_DEGENERATE"`)
	assert.Contains(t, logs.String(), "step_skipped")
}

func TestManagerValidationFailure(t *testing.T) {
	validation := operations.NewValidationError("clean", "no raw table loaded")
	step := testutil.CreateValidationFailingStage("clean", "Clean", validation)

	manager := operations.NewManager(testutil.CreateTestRegistry(step), nil, infrastructure.NewLogger(io.Discard, "info"))
	err := manager.Run(context.Background(), operations.NewRunState("run"))

	require.Error(t, err)
	assert.Equal(t, "validation", operations.ErrorTypeOf(err))
	assert.Equal(t, 1, step.GetValidateCalls())
	assert.Equal(t, 0, step.GetExecuteCalls())
}

func TestManagerCancelledContext(t *testing.T) {
	step := testutil.CreateSuccessfulStage("load", "Load")
	manager := operations.NewManager(testutil.CreateTestRegistry(step), nil, infrastructure.NewLogger(io.Discard, "info"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := manager.Run(ctx, operations.NewRunState("run"))
	require.Error(t, err)
	assert.Equal(t, "cancellation", operations.ErrorTypeOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, step.GetExecuteCalls())
}

func TestManagerRecordsSpansAndMetrics(t *testing.T) {
	var spans bytes.Buffer
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    "rfm-test",
		ServiceVersion: "test",
		EnableTracing:  true,
		EnableMetrics:  true,
		TraceWriter:    &spans,
	}, infrastructure.NewLogger(io.Discard, "info"))
	require.NoError(t, err)

	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)

	registry := testutil.CreateTestRegistry(
		testutil.CreateSuccessfulStage("load", "Load"),
		testutil.CreateFailingStage("publish", "Publish", apperrors.NewWriteError("/x.csv", errors.New("denied"))),
	)
	manager := operations.NewManager(registry, operations.NewStepTracer(providers, metrics), infrastructure.NewLogger(io.Discard, "info"))

	require.Error(t, manager.Run(context.Background(), operations.NewRunState("run-traced")))

	path := filepath.Join(t.TempDir(), "rfm.prom")
	require.NoError(t, providers.WriteMetrics(path))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, providers.Shutdown(ctx))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "rfm_step_duration_seconds")
	assert.Contains(t, string(content), `error_type="WRITE"`)

	assert.Contains(t, spans.String(), "pipeline.run")
	assert.Contains(t, spans.String(), "pipeline.step.load")
	assert.Contains(t, spans.String(), "pipeline.step.publish")
}
