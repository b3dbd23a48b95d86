package models

import "time"

// Run is the persisted record of one plan execution.
type Run struct {
	ID             string     `json:"id" db:"id"` // UUID
	PlanName       string     `json:"plan_name" db:"plan_name"`
	State          RunState   `json:"state" db:"state"`
	WavesCompleted int        `json:"waves_completed" db:"waves_completed"`
	StepsCompleted int        `json:"steps_completed" db:"steps_completed"`
	StepsTotal     int        `json:"steps_total" db:"steps_total"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// RunTask is the persisted per-task outcome of a run.
type RunTask struct {
	RunID       string     `json:"run_id" db:"run_id"`
	TaskID      string     `json:"task_id" db:"task_id"`
	Name        string     `json:"name" db:"name"`
	Wave        int        `json:"wave" db:"wave"`
	Outcome     Outcome    `json:"outcome" db:"outcome"`
	Attempts    int        `json:"attempts" db:"attempts"`
	ErrorMsg    string     `json:"error,omitempty" db:"error_msg"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}
