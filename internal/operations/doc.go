// Package operations runs the RFM pipeline as an ordered list of steps.
//
// Core Components:
//
// Step: a single unit of work (load, clean, score, publish). Steps read their
// inputs from the RunState and store their outputs there for the next step.
//
// Registry: holds the steps in registration order, which is execution order.
//
// Manager: executes the registered steps one at a time, recording a StepState
// for each. The first failing step stops the run; the steps after it are
// marked skipped.
//
// StepTracer: wraps the run and every step in an OpenTelemetry span and
// records step duration and failures on the pipeline metrics.
//
// Usage:
//
//	registry, err := operations.NewPipelineRegistry(logger, &operations.StageOptions{
//		InputPath:  cfg.Pipeline.InputPath,
//		OutputPath: cfg.Pipeline.OutputPath,
//		Policy:     rfm.PolicyStrict,
//	})
//	if err != nil {
//		return err
//	}
//	manager := operations.NewManager(registry, operations.NewStepTracer(providers, metrics), logger)
//	state := operations.NewRunState(runID)
//	if err := manager.Run(ctx, state); err != nil {
//		return err
//	}
package operations
