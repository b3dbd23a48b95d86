package models

import (
	"fmt"
	"time"
)

// FailureStrategy governs how a run reacts to task failures.
type FailureStrategy string

const (
	// StopAll halts the run at the end of the first wave with a failure.
	StopAll FailureStrategy = "STOP_ALL"
	// ContinueOverall records failures and keeps going; dependents of a
	// failed task are skipped, transitively.
	ContinueOverall FailureStrategy = "CONTINUE_OVERALL"
	// Retry re-attempts failed tasks with backoff before counting them
	// as final failures, then behaves like ContinueOverall.
	Retry FailureStrategy = "RETRY"
)

// ParseFailureStrategy converts a config string into a FailureStrategy.
func ParseFailureStrategy(s string) (FailureStrategy, error) {
	switch FailureStrategy(s) {
	case StopAll, ContinueOverall, Retry:
		return FailureStrategy(s), nil
	case "":
		return StopAll, nil
	default:
		return "", fmt.Errorf("unknown failure strategy %q", s)
	}
}

const (
	DefaultMaxConcurrency = 4
	DefaultBaseBackoff    = 100 * time.Millisecond
)

// ExecutionOptions configure one scheduling run.
type ExecutionOptions struct {
	MaxConcurrency    int             `json:"max_concurrency" yaml:"max_concurrency"`
	FailureStrategy   FailureStrategy `json:"failure_strategy" yaml:"failure_strategy"`
	RequireAllSuccess bool            `json:"require_all_success" yaml:"require_all_success"`
	MaxRetries        int             `json:"max_retries" yaml:"max_retries"`
	BaseBackoff       time.Duration   `json:"base_backoff" yaml:"base_backoff"`
	// OverallDeadline stops new waves from starting once exceeded.
	// Zero means no deadline. In-flight work is never preempted by it.
	OverallDeadline time.Duration `json:"overall_deadline,omitempty" yaml:"overall_deadline"`
}

// Normalized returns a copy with zero values replaced by defaults.
func (o ExecutionOptions) Normalized() ExecutionOptions {
	if o.MaxConcurrency < 1 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	if o.FailureStrategy == "" {
		o.FailureStrategy = StopAll
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = DefaultBaseBackoff
	}
	return o
}
