package operations

import (
	"sync"
	"time"

	"rfmcli/internal/dataprocessing"
	"rfmcli/internal/exporter"
	"rfmcli/internal/rfm"
	"rfmcli/pkg/contracts/domain"
)

// RunStatus represents the overall run status
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunState represents the complete state of one pipeline run, including the
// tables handed from one step to the next.
type RunState struct {
	mu sync.RWMutex

	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Error     error      `json:"-"`

	steps map[string]*StepState
	order []string

	// Raw is set by the load step
	Raw *domain.RawTable `json:"-"`
	// Cleaned and CleanReport are set by the clean step
	Cleaned     []domain.Transaction       `json:"-"`
	CleanReport dataprocessing.CleanReport `json:"clean_report"`
	// Result is set by the score step
	Result *rfm.Result `json:"-"`
	// Published and Customers are set by the publish step
	Published exporter.PublishSummary  `json:"published"`
	Customers *exporter.PublishSummary `json:"customers,omitempty"`
}

// NewRunState creates a new run state
func NewRunState(id string) *RunState {
	return &RunState{
		ID:        id,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		steps:     make(map[string]*StepState),
	}
}

// Start marks the run as running
func (r *RunState) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

// Complete marks the run as completed
func (r *RunState) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusCompleted
}

// Fail marks the run as failed
func (r *RunState) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusFailed
	r.Error = err
}

// GetStep returns the state of a specific Step
func (r *RunState) GetStep(stepID string) *StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.steps[stepID]
}

// SetStep records the state of a Step, keeping first-seen order
func (r *RunState) SetStep(stepID string, state *StepState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.steps[stepID]; !exists {
		r.order = append(r.order, stepID)
	}
	r.steps[stepID] = state
}

// Steps returns the step states in execution order
func (r *RunState) Steps() []*StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*StepState, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.steps[id])
	}
	return out
}

// Duration returns the duration of the run
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}

// HasFailures returns true if any Step has failed
func (r *RunState) HasFailures() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, step := range r.steps {
		if step.GetStatus() == StepStatusFailed {
			return true
		}
	}
	return false
}
