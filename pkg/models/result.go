package models

import "time"

// Outcome is the terminal state of a single task attempt chain.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
	OutcomeSkipped Outcome = "SKIPPED"
)

// RunState is the overall state of one scheduling run.
type RunState string

const (
	StateCompleted RunState = "COMPLETED"
	StateFailed    RunState = "FAILED"
	StateCancelled RunState = "CANCELLED"
)

// TaskResult records how a single task ended. Value is whatever the
// unit-of-work returned; Err is nil unless Outcome is OutcomeFailure.
type TaskResult struct {
	TaskID      string      `json:"task_id"`
	Outcome     Outcome     `json:"outcome"`
	Value       interface{} `json:"value,omitempty"`
	Err         error       `json:"-"`
	Attempts    int         `json:"attempts"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at"`
}

// WaveResult aggregates the results of every task in one wave,
// including tasks that were skipped and never attempted.
type WaveResult struct {
	WaveNumber   int                   `json:"wave_number"`
	Results      map[string]TaskResult `json:"results"`
	SuccessCount int                   `json:"success_count"`
	FailureCount int                   `json:"failure_count"`
	SkippedCount int                   `json:"skipped_count"`
	StartedAt    time.Time             `json:"started_at"`
	CompletedAt  time.Time             `json:"completed_at"`
}

// TotalTasks returns the number of tasks the wave accounted for.
func (w WaveResult) TotalTasks() int {
	return len(w.Results)
}

// WaveSummary is the per-wave slice of an ExecutionResult, kept small
// enough to persist and render without dragging along task values.
type WaveSummary struct {
	WaveNumber   int           `json:"wave_number" db:"wave_number"`
	TotalTasks   int           `json:"total_tasks" db:"total_tasks"`
	SuccessCount int           `json:"success_count" db:"success_count"`
	FailureCount int           `json:"failure_count" db:"failure_count"`
	SkippedCount int           `json:"skipped_count" db:"skipped_count"`
	Duration     time.Duration `json:"duration" db:"duration"`
}

// ExecutionResult is the complete outcome of one run. The caller always
// receives one, even when the run failed, so partial results stay
// inspectable.
type ExecutionResult struct {
	State          RunState              `json:"state"`
	WavesCompleted int                   `json:"waves_completed"`
	StepsCompleted int                   `json:"steps_completed"`
	StepsTotal     int                   `json:"steps_total"`
	WaveDetails    []WaveSummary         `json:"wave_details"`
	Results        map[string]TaskResult `json:"results"`
	Errors         map[string]error      `json:"-"`
	StartedAt      time.Time             `json:"started_at"`
	CompletedAt    time.Time             `json:"completed_at"`
}
