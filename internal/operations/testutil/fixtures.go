package testutil

import (
	"context"

	"rfmcli/internal/operations"
)

// CreateSuccessfulStage creates a step that always succeeds
func CreateSuccessfulStage(id, name string) *MockStage {
	return &MockStage{
		IDValue:   id,
		NameValue: name,
	}
}

// CreateFailingStage creates a step whose Execute returns err
func CreateFailingStage(id, name string, err error) *MockStage {
	return &MockStage{
		IDValue:   id,
		NameValue: name,
		ExecuteFunc: func(ctx context.Context, state *operations.RunState) error {
			return err
		},
	}
}

// CreateValidationFailingStage creates a step whose Validate returns err
func CreateValidationFailingStage(id, name string, err error) *MockStage {
	return &MockStage{
		IDValue:   id,
		NameValue: name,
		ValidateFunc: func(state *operations.RunState) error {
			return err
		},
	}
}

// CreateRecordingStage creates a step that appends its ID to order when executed
func CreateRecordingStage(id string, order *[]string) *MockStage {
	return &MockStage{
		IDValue:   id,
		NameValue: id,
		ExecuteFunc: func(ctx context.Context, state *operations.RunState) error {
			*order = append(*order, id)
			return nil
		},
	}
}

// CreateTestRegistry creates a registry with the given steps registered in order
func CreateTestRegistry(steps ...operations.Step) *operations.Registry {
	registry := operations.NewRegistry()
	for _, s := range steps {
		if err := registry.Register(s); err != nil {
			panic(err)
		}
	}
	return registry
}
