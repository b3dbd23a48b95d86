package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lordsisodia/waveflow/pkg/models"
)

// WorkFunc is the caller-supplied unit of work. It receives the task
// definition and may block on the context; the scheduler itself never
// looks inside the returned value.
type WorkFunc func(ctx context.Context, task models.Task) (interface{}, error)

// waveExecutor runs one wave's tasks under bounded parallelism. A
// single task's failure or panic never cancels or corrupts its
// siblings.
type waveExecutor struct {
	limit  int
	retry  RetryPolicy
	logger Logger
}

// run executes every non-skipped task in the group with at most
// ex.limit in flight, and returns a WaveResult covering all of them.
// Tasks whose ids appear in skipped are recorded as OutcomeSkipped
// without being attempted.
func (ex *waveExecutor) run(ctx context.Context, group WaveGroup, work WorkFunc, skipped map[string]bool, onDone func(models.TaskResult)) models.WaveResult {
	wr := models.WaveResult{
		WaveNumber: group.Wave,
		Results:    make(map[string]models.TaskResult, len(group.Tasks)),
		StartedAt:  time.Now(),
	}
	var mu sync.Mutex
	record := func(res models.TaskResult) {
		mu.Lock()
		wr.Results[res.TaskID] = res
		switch res.Outcome {
		case models.OutcomeSuccess:
			wr.SuccessCount++
		case models.OutcomeFailure:
			wr.FailureCount++
		case models.OutcomeSkipped:
			wr.SkippedCount++
		}
		mu.Unlock()
		if onDone != nil {
			onDone(res)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(ex.limit)
	for _, task := range group.Tasks {
		if skipped[task.ID] {
			now := time.Now()
			record(models.TaskResult{
				TaskID:      task.ID,
				Outcome:     models.OutcomeSkipped,
				StartedAt:   now,
				CompletedAt: now,
			})
			continue
		}
		task := task
		g.Go(func() error {
			record(ex.attempt(ctx, task, work))
			// Errors are captured in the result, never returned, so one
			// failure cannot cancel sibling tasks.
			return nil
		})
	}
	_ = g.Wait()
	wr.CompletedAt = time.Now()
	return wr
}

// attempt runs one task through its full retry chain and returns its
// terminal result. Each retry waits out the policy's backoff inside the
// task's own concurrency slot, so retries never starve siblings of
// their first attempts.
func (ex *waveExecutor) attempt(ctx context.Context, task models.Task, work WorkFunc) models.TaskResult {
	res := models.TaskResult{
		TaskID:    task.ID,
		StartedAt: time.Now(),
	}
	maxAttempts := ex.retry.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res.Attempts = attempt
		value, err := ex.invoke(ctx, task, work)
		if err == nil {
			res.Outcome = models.OutcomeSuccess
			res.Value = value
			res.CompletedAt = time.Now()
			return res
		}
		lastErr = err
		if attempt < maxAttempts {
			ex.logger.Infof("task %s attempt %d/%d failed, retrying: %v", task.ID, attempt, maxAttempts, err)
			if waitErr := ex.retry.Wait(ctx, attempt); waitErr != nil {
				lastErr = waitErr
				break
			}
		}
	}
	res.Outcome = models.OutcomeFailure
	res.Err = &TaskExecutionError{TaskID: task.ID, Cause: lastErr}
	res.CompletedAt = time.Now()
	return res
}

// invoke calls the unit of work, converting a panic into an error so a
// misbehaving task cannot take down the whole wave.
func (ex *waveExecutor) invoke(ctx context.Context, task models.Task, work WorkFunc) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return work(ctx, task)
}
