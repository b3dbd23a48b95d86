package scheduler

import (
	"github.com/Lordsisodia/waveflow/pkg/models"
)

// Decision is what the failure policy tells the orchestrator to do
// after a completed wave.
type Decision int

const (
	// Proceed starts the next wave unconditionally.
	Proceed Decision = iota
	// SkipBranches starts the next wave but marks every task downstream
	// of a failed or skipped task as skipped, transitively.
	SkipBranches
	// Halt stops the run; no further wave starts.
	Halt
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case SkipBranches:
		return "skip-branches"
	case Halt:
		return "halt"
	}
	return "unknown"
}

// failurePolicy evaluates one completed wave against the configured
// strategy. Retrying happens inside the executor, so by the time a wave
// reaches the policy its failures are final.
type failurePolicy struct {
	strategy          models.FailureStrategy
	requireAllSuccess bool
}

// evaluate returns the decision for the wave that just finished.
func (p failurePolicy) evaluate(wr models.WaveResult) Decision {
	if wr.FailureCount == 0 && wr.SkippedCount == 0 {
		return Proceed
	}
	if wr.FailureCount > 0 {
		if p.strategy == models.StopAll {
			return Halt
		}
		if p.requireAllSuccess {
			// The wave does not count as complete, so nothing further
			// may build on it.
			return Halt
		}
	}
	return SkipBranches
}

// runFailed reports whether the aggregate counts make the whole run
// Failed rather than Completed once every reachable wave has run.
func (p failurePolicy) runFailed(failures int) bool {
	if failures == 0 {
		return false
	}
	if p.strategy == models.StopAll || p.requireAllSuccess {
		return true
	}
	return false
}

// propagateSkips extends the skipped set with every task downstream of
// a failed or already-skipped task. Propagation is transitive: a task
// skipped here poisons its own dependents in later waves.
func propagateSkips(g *graph, skipped map[string]bool, wr models.WaveResult) {
	for id, res := range wr.Results {
		if res.Outcome != models.OutcomeFailure && res.Outcome != models.OutcomeSkipped {
			continue
		}
		i, ok := g.index[id]
		if !ok {
			continue
		}
		for _, dep := range g.dependents[i] {
			skipped[g.id(dep)] = true
		}
	}
}
