package scheduler

import "time"

// Listener receives progress events during a run. Implementations must
// be safe for concurrent TaskCompleted calls; the wave-level callbacks
// are always invoked from the orchestrator goroutine.
type Listener interface {
	WaveStarted(wave int, taskCount int)
	TaskCompleted(taskID string, success bool)
	WaveCompleted(wave int, duration time.Duration)
}

// NopListener discards all events.
type NopListener struct{}

func (NopListener) WaveStarted(int, int)             {}
func (NopListener) TaskCompleted(string, bool)       {}
func (NopListener) WaveCompleted(int, time.Duration) {}
