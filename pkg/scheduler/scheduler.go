// Package scheduler turns a set of tasks with declared dependencies
// into a maximally-parallel execution plan: tasks are layered into
// waves, each wave runs under bounded concurrency, and a configurable
// failure policy decides how the run reacts to failures between waves.
package scheduler

import (
	"context"
	"time"

	"github.com/Lordsisodia/waveflow/pkg/models"
)

// Logger defines the logging interface the scheduler writes progress to.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Scheduler coordinates validation, wave computation and execution for
// one task set at a time. A Scheduler holds no per-run state and is
// safe for concurrent Execute calls.
type Scheduler struct {
	opts     models.ExecutionOptions
	logger   Logger
	listener Listener
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithListener registers a progress listener for all runs.
func WithListener(l Listener) Option {
	return func(s *Scheduler) {
		s.listener = l
	}
}

// New returns a Scheduler with the given options normalized.
func New(opts models.ExecutionOptions, logger Logger, options ...Option) *Scheduler {
	s := &Scheduler{
		opts:     opts.Normalized(),
		logger:   logger,
		listener: NopListener{},
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Plan validates the task set and returns its deterministic wave
// grouping without executing anything. It fails with an
// UnknownDependencyError or CircularDependencyError on structural
// problems.
func Plan(tasks []models.Task) ([]WaveGroup, error) {
	g, err := buildGraph(tasks)
	if err != nil {
		return nil, err
	}
	if err := detectCycles(g); err != nil {
		return nil, err
	}
	waves, err := computeWaves(g)
	if err != nil {
		return nil, err
	}
	return groupWaves(g, waves), nil
}

// Execute runs the whole task set through the caller-supplied unit of
// work. Structural errors abort before anything executes and are the
// only case where the returned result is nil. Task failures never
// surface here: they are captured in the result's Errors map, and the
// caller always gets a complete ExecutionResult back.
func (s *Scheduler) Execute(ctx context.Context, tasks []models.Task, work WorkFunc) (*models.ExecutionResult, error) {
	groups, err := Plan(tasks)
	if err != nil {
		return nil, err
	}

	res := &models.ExecutionResult{
		State:      models.StateCompleted,
		StepsTotal: len(tasks),
		Results:    make(map[string]models.TaskResult, len(tasks)),
		Errors:     make(map[string]error),
		StartedAt:  time.Now(),
	}
	var deadline time.Time
	if s.opts.OverallDeadline > 0 {
		deadline = res.StartedAt.Add(s.opts.OverallDeadline)
	}

	// Graph is rebuilt here rather than threaded out of Plan so the
	// exported planning API stays a pure function of the task list.
	g, err := buildGraph(tasks)
	if err != nil {
		return nil, err
	}

	policy := failurePolicy{
		strategy:          s.opts.FailureStrategy,
		requireAllSuccess: s.opts.RequireAllSuccess,
	}
	retry := RetryPolicy{BaseBackoff: s.opts.BaseBackoff}
	if s.opts.FailureStrategy == models.Retry {
		retry.MaxRetries = s.opts.MaxRetries
	}
	ex := &waveExecutor{limit: s.opts.MaxConcurrency, retry: retry, logger: s.logger}

	skipped := make(map[string]bool)
	for _, group := range groups {
		if ctx.Err() != nil {
			s.logger.Infof("run cancelled before wave %d: %v", group.Wave, ctx.Err())
			res.State = models.StateCancelled
			break
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			s.logger.Infof("overall deadline exceeded, not starting wave %d", group.Wave)
			res.State = models.StateCancelled
			break
		}

		s.listener.WaveStarted(group.Wave, len(group.Tasks))
		s.logger.Infof("starting wave %d with %d tasks", group.Wave, len(group.Tasks))

		wr := ex.run(ctx, group, work, skipped, func(tr models.TaskResult) {
			s.listener.TaskCompleted(tr.TaskID, tr.Outcome == models.OutcomeSuccess)
		})
		s.listener.WaveCompleted(group.Wave, wr.CompletedAt.Sub(wr.StartedAt))

		for id, tr := range wr.Results {
			res.Results[id] = tr
			if tr.Err != nil {
				res.Errors[id] = tr.Err
			}
		}
		res.StepsCompleted += wr.SuccessCount
		res.WaveDetails = append(res.WaveDetails, models.WaveSummary{
			WaveNumber:   wr.WaveNumber,
			TotalTasks:   wr.TotalTasks(),
			SuccessCount: wr.SuccessCount,
			FailureCount: wr.FailureCount,
			SkippedCount: wr.SkippedCount,
			Duration:     wr.CompletedAt.Sub(wr.StartedAt),
		})
		if wr.FailureCount == 0 || !s.opts.RequireAllSuccess {
			res.WavesCompleted++
		}

		decision := policy.evaluate(wr)
		s.logger.Infof("wave %d finished: %d ok, %d failed, %d skipped, decision %s",
			wr.WaveNumber, wr.SuccessCount, wr.FailureCount, wr.SkippedCount, decision)
		switch decision {
		case Halt:
			res.State = models.StateFailed
		case SkipBranches:
			propagateSkips(g, skipped, wr)
		}
		if decision == Halt {
			break
		}
	}

	if res.State == models.StateCompleted && policy.runFailed(len(res.Errors)) {
		res.State = models.StateFailed
	}
	res.CompletedAt = time.Now()
	return res, nil
}
