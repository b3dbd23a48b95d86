package scheduler

import (
	"fmt"
	"strings"
)

// UnknownDependencyError reports a depends_on id that names no task in
// the input set. It is a structural error: nothing is scheduled.
type UnknownDependencyError struct {
	TaskID    string
	MissingID string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("task %q depends on unknown task %q", e.TaskID, e.MissingID)
}

// CircularDependencyError reports a dependency cycle. Cycle holds the
// task ids along the cycle in traversal order; a self-dependency yields
// a single-element cycle.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Cycle, " -> "))
}

// TaskExecutionError wraps the failure of one task's unit-of-work. It is
// captured per task and surfaced in the final result, never propagated
// out of the wave executor.
type TaskExecutionError struct {
	TaskID string
	Cause  error
}

func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.TaskID, e.Cause)
}

func (e *TaskExecutionError) Unwrap() error {
	return e.Cause
}
