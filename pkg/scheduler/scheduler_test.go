package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lordsisodia/waveflow/pkg/models"
	"github.com/Lordsisodia/waveflow/pkg/scheduler"
)

type silentLogger struct{}

func (silentLogger) Infof(format string, args ...interface{})  {}
func (silentLogger) Errorf(format string, args ...interface{}) {}

func mkTask(id string, deps ...string) models.Task {
	return models.Task{ID: id, Name: id, DependsOn: deps}
}

func succeedAll(ctx context.Context, t models.Task) (interface{}, error) {
	return t.ID, nil
}

func failOnly(ids ...string) scheduler.WorkFunc {
	bad := make(map[string]bool, len(ids))
	for _, id := range ids {
		bad[id] = true
	}
	return func(ctx context.Context, t models.Task) (interface{}, error) {
		if bad[t.ID] {
			return nil, errors.New("induced failure")
		}
		return t.ID, nil
	}
}

func TestExecute_AllSucceed(t *testing.T) {
	tasks := []models.Task{
		mkTask("a"),
		mkTask("b", "a"),
		mkTask("c", "a"),
		mkTask("d", "b", "c"),
	}
	s := scheduler.New(models.ExecutionOptions{MaxConcurrency: 2}, silentLogger{})
	res, err := s.Execute(context.Background(), tasks, succeedAll)
	require.NoError(t, err)

	assert.Equal(t, models.StateCompleted, res.State)
	assert.Equal(t, 3, res.WavesCompleted)
	assert.Equal(t, 4, res.StepsCompleted)
	assert.Equal(t, 4, res.StepsTotal)
	assert.Empty(t, res.Errors)
	require.Len(t, res.WaveDetails, 3)
	assert.Equal(t, 2, res.WaveDetails[1].TotalTasks)
}

func TestExecute_StructuralErrorsAbortRun(t *testing.T) {
	var called bool
	work := func(ctx context.Context, tk models.Task) (interface{}, error) {
		called = true
		return nil, nil
	}
	s := scheduler.New(models.ExecutionOptions{}, silentLogger{})

	res, err := s.Execute(context.Background(), []models.Task{mkTask("p", "q")}, work)
	assert.Nil(t, res)
	var unknownErr *scheduler.UnknownDependencyError
	require.ErrorAs(t, err, &unknownErr)

	res, err = s.Execute(context.Background(), []models.Task{mkTask("x", "y"), mkTask("y", "x")}, work)
	assert.Nil(t, res)
	var cycleErr *scheduler.CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)

	assert.False(t, called, "nothing may execute after a structural error")
}

func TestExecute_StopAllHaltsAfterFailedWave(t *testing.T) {
	tasks := []models.Task{
		mkTask("a"),
		mkTask("b"),
		mkTask("later", "a", "b"),
	}
	var mu sync.Mutex
	attempted := map[string]bool{}
	work := func(ctx context.Context, tk models.Task) (interface{}, error) {
		mu.Lock()
		attempted[tk.ID] = true
		mu.Unlock()
		if tk.ID == "b" {
			return nil, errors.New("induced failure")
		}
		return nil, nil
	}

	s := scheduler.New(models.ExecutionOptions{
		MaxConcurrency:  2,
		FailureStrategy: models.StopAll,
	}, silentLogger{})
	res, err := s.Execute(context.Background(), tasks, work)
	require.NoError(t, err)

	assert.Equal(t, models.StateFailed, res.State)
	assert.False(t, attempted["later"], "no wave may start after a StopAll failure")
	assert.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors, "b")
	assert.Equal(t, 3, res.StepsTotal)
	assert.Equal(t, 1, res.StepsCompleted)
}

func TestExecute_ContinueOverallSkipsDependentsTransitively(t *testing.T) {
	tasks := []models.Task{
		mkTask("root"),
		mkTask("bad", "root"),
		mkTask("fine", "root"),
		mkTask("child", "bad"),
		mkTask("grandchild", "child"),
		mkTask("cousin", "fine"),
	}
	s := scheduler.New(models.ExecutionOptions{
		MaxConcurrency:  2,
		FailureStrategy: models.ContinueOverall,
	}, silentLogger{})
	res, err := s.Execute(context.Background(), tasks, failOnly("bad"))
	require.NoError(t, err)

	assert.Equal(t, models.StateCompleted, res.State)
	assert.Equal(t, models.OutcomeFailure, res.Results["bad"].Outcome)
	assert.Equal(t, models.OutcomeSkipped, res.Results["child"].Outcome)
	assert.Equal(t, models.OutcomeSkipped, res.Results["grandchild"].Outcome)
	assert.Equal(t, models.OutcomeSuccess, res.Results["cousin"].Outcome)
	assert.Zero(t, res.Results["child"].Attempts, "skipped tasks must never be attempted")
	assert.Zero(t, res.Results["grandchild"].Attempts, "skipped tasks must never be attempted")
}

func TestExecute_PartialFailureCounts(t *testing.T) {
	// Three independent tasks, one always fails, plus one dependent of
	// the failing task.
	tasks := []models.Task{
		mkTask("t1"),
		mkTask("t2"),
		mkTask("t3"),
		mkTask("downstream", "t2"),
	}
	s := scheduler.New(models.ExecutionOptions{
		MaxConcurrency:  3,
		FailureStrategy: models.ContinueOverall,
	}, silentLogger{})
	res, err := s.Execute(context.Background(), tasks, failOnly("t2"))
	require.NoError(t, err)

	require.Len(t, res.WaveDetails, 2)
	assert.Equal(t, 2, res.WaveDetails[0].SuccessCount)
	assert.Equal(t, 1, res.WaveDetails[0].FailureCount)
	assert.Equal(t, 1, res.WaveDetails[1].SkippedCount)
	assert.Equal(t, models.OutcomeSkipped, res.Results["downstream"].Outcome)
	// Failures were tolerated and every wave was traversed.
	assert.Equal(t, models.StateCompleted, res.State)
}

func TestExecute_RequireAllSuccessEscalates(t *testing.T) {
	tasks := []models.Task{mkTask("t1"), mkTask("t2")}
	s := scheduler.New(models.ExecutionOptions{
		MaxConcurrency:    2,
		FailureStrategy:   models.ContinueOverall,
		RequireAllSuccess: true,
	}, silentLogger{})
	res, err := s.Execute(context.Background(), tasks, failOnly("t2"))
	require.NoError(t, err)

	assert.Equal(t, models.StateFailed, res.State)
	assert.Equal(t, 0, res.WavesCompleted)
}

func TestExecute_RetryStrategyRecoversTransientFailure(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}
	work := func(ctx context.Context, tk models.Task) (interface{}, error) {
		mu.Lock()
		calls[tk.ID]++
		n := calls[tk.ID]
		mu.Unlock()
		if tk.ID == "flaky" && n < 3 {
			return nil, errors.New("transient")
		}
		return tk.ID, nil
	}

	tasks := []models.Task{mkTask("flaky"), mkTask("steady"), mkTask("after", "flaky")}
	s := scheduler.New(models.ExecutionOptions{
		MaxConcurrency:  2,
		FailureStrategy: models.Retry,
		MaxRetries:      3,
		BaseBackoff:     time.Millisecond,
	}, silentLogger{})
	res, err := s.Execute(context.Background(), tasks, work)
	require.NoError(t, err)

	assert.Equal(t, models.StateCompleted, res.State)
	assert.Equal(t, 3, res.Results["flaky"].Attempts)
	assert.Equal(t, 1, res.Results["steady"].Attempts)
	assert.Equal(t, models.OutcomeSuccess, res.Results["after"].Outcome)
	assert.Empty(t, res.Errors)
}

func TestExecute_DeadlineStopsFurtherWaves(t *testing.T) {
	tasks := []models.Task{mkTask("slow"), mkTask("never", "slow")}
	work := func(ctx context.Context, tk models.Task) (interface{}, error) {
		time.Sleep(30 * time.Millisecond)
		return nil, nil
	}
	s := scheduler.New(models.ExecutionOptions{
		MaxConcurrency:  1,
		OverallDeadline: 10 * time.Millisecond,
	}, silentLogger{})
	res, err := s.Execute(context.Background(), tasks, work)
	require.NoError(t, err)

	assert.Equal(t, models.StateCancelled, res.State)
	// The in-flight wave finished naturally, the next never started.
	assert.Equal(t, models.OutcomeSuccess, res.Results["slow"].Outcome)
	assert.NotContains(t, res.Results, "never")
}

func TestExecute_ContextCancellationBetweenWaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tasks := []models.Task{mkTask("first"), mkTask("second", "first")}
	work := func(c context.Context, tk models.Task) (interface{}, error) {
		cancel()
		return nil, nil
	}

	s := scheduler.New(models.ExecutionOptions{MaxConcurrency: 1}, silentLogger{})
	res, err := s.Execute(ctx, tasks, work)
	require.NoError(t, err)

	assert.Equal(t, models.StateCancelled, res.State)
	assert.NotContains(t, res.Results, "second")
}

func TestExecute_IdempotentScheduling(t *testing.T) {
	tasks := []models.Task{
		mkTask("a"),
		mkTask("b", "a"),
		mkTask("c", "a"),
		mkTask("d", "b", "c"),
	}
	s := scheduler.New(models.ExecutionOptions{
		MaxConcurrency:  2,
		FailureStrategy: models.ContinueOverall,
	}, silentLogger{})

	first, err := s.Execute(context.Background(), tasks, failOnly("b"))
	require.NoError(t, err)
	second, err := s.Execute(context.Background(), tasks, failOnly("b"))
	require.NoError(t, err)

	assert.Equal(t, first.State, second.State)
	assert.Equal(t, first.StepsCompleted, second.StepsCompleted)
	require.Equal(t, len(first.WaveDetails), len(second.WaveDetails))
	for i := range first.WaveDetails {
		assert.Equal(t, first.WaveDetails[i].SuccessCount, second.WaveDetails[i].SuccessCount)
		assert.Equal(t, first.WaveDetails[i].FailureCount, second.WaveDetails[i].FailureCount)
		assert.Equal(t, first.WaveDetails[i].SkippedCount, second.WaveDetails[i].SkippedCount)
	}
}

// recordingListener captures progress events for assertions.
type recordingListener struct {
	mu        sync.Mutex
	started   []int
	completed []int
	tasks     []string
}

func (l *recordingListener) WaveStarted(wave, taskCount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = append(l.started, wave)
}

func (l *recordingListener) TaskCompleted(taskID string, success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks = append(l.tasks, taskID)
}

func (l *recordingListener) WaveCompleted(wave int, d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed = append(l.completed, wave)
}

func TestExecute_ProgressEvents(t *testing.T) {
	tasks := []models.Task{mkTask("a"), mkTask("b", "a")}
	listener := &recordingListener{}
	s := scheduler.New(models.ExecutionOptions{MaxConcurrency: 1}, silentLogger{},
		scheduler.WithListener(listener))
	_, err := s.Execute(context.Background(), tasks, succeedAll)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, listener.started)
	assert.Equal(t, []int{0, 1}, listener.completed)
	assert.ElementsMatch(t, []string{"a", "b"}, listener.tasks)
}
