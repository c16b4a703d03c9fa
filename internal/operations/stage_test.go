package operations_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfmcli/internal/operations"
)

func TestStepStateLifecycle(t *testing.T) {
	state := operations.NewStepState("load", "Load transactions")

	assert.Equal(t, operations.StepStatusPending, state.GetStatus())
	assert.Zero(t, state.Duration())

	state.Start()
	assert.Equal(t, operations.StepStatusActive, state.GetStatus())
	require.NotNil(t, state.StartTime)

	time.Sleep(5 * time.Millisecond)
	state.Complete("done")

	assert.Equal(t, operations.StepStatusCompleted, state.GetStatus())
	assert.Equal(t, "done", state.Message)
	require.NotNil(t, state.EndTime)
	assert.GreaterOrEqual(t, state.Duration(), 5*time.Millisecond)
}

func TestStepStateFail(t *testing.T) {
	state := operations.NewStepState("score", "Score customers")
	state.Start()

	err := errors.New("boom")
	state.Fail(err)

	assert.Equal(t, operations.StepStatusFailed, state.GetStatus())
	assert.Equal(t, err, state.Error)
	assert.Equal(t, "boom", state.Message)
}

func TestStepStateSkip(t *testing.T) {
	state := operations.NewStepState("publish", "Publish")
	state.Skip("step score failed")

	assert.Equal(t, operations.StepStatusSkipped, state.GetStatus())
	assert.Equal(t, "step score failed", state.Message)
	assert.Zero(t, state.Duration())
}

func TestBaseStage(t *testing.T) {
	base := operations.NewBaseStage("id", "Name")

	assert.Equal(t, "id", base.ID())
	assert.Equal(t, "Name", base.Name())
	assert.NoError(t, base.Validate(operations.NewRunState("run")))

	var nilBase *operations.BaseStage
	assert.Equal(t, "", nilBase.ID())
	assert.Error(t, nilBase.Validate(nil))
}
