package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Lordsisodia/waveflow/internal/log"
	"github.com/Lordsisodia/waveflow/pkg/models"
	"github.com/Lordsisodia/waveflow/pkg/scheduler"
	"github.com/Lordsisodia/waveflow/pkg/storage"
)

// RunService executes plans through the scheduler and persists their
// outcomes as run history.
type RunService struct {
	store storage.Store
}

func NewRunService(store storage.Store) *RunService {
	return &RunService{store: store}
}

// ExecutePlan runs the task set and records the run plus its per-task
// outcomes. Structural errors (unknown dependency, cycle) are returned
// before any record is written.
func (s *RunService) ExecutePlan(ctx context.Context, planName string, tasks []models.Task, opts models.ExecutionOptions, work scheduler.WorkFunc) (*models.ExecutionResult, error) {
	if planName == "" {
		return nil, errors.New("plan name cannot be empty")
	}
	if len(planName) > 100 {
		return nil, errors.New("plan name too long (max 100 characters)")
	}

	// Wave assignment doubles as upfront validation: nothing is
	// persisted for a plan that cannot be scheduled at all.
	groups, err := scheduler.Plan(tasks)
	if err != nil {
		return nil, err
	}
	waveOf := make(map[string]int, len(tasks))
	nameOf := make(map[string]string, len(tasks))
	for _, g := range groups {
		for _, t := range g.Tasks {
			waveOf[t.ID] = g.Wave
			nameOf[t.ID] = t.Name
		}
	}

	runID := uuid.NewString()
	startedAt := time.Now()
	run := models.Run{
		ID:         runID,
		PlanName:   planName,
		State:      models.StateFailed, // overwritten once the run finishes
		StepsTotal: len(tasks),
		CreatedAt:  startedAt,
		StartedAt:  &startedAt,
	}
	if err := s.store.SaveRun(run); err != nil {
		return nil, errors.Wrap(err, "save run")
	}

	sched := scheduler.New(opts, log.GetLogger())
	res, err := sched.Execute(ctx, tasks, work)
	if err != nil {
		return nil, err
	}

	if err := s.persistResult(runID, waveOf, nameOf, res); err != nil {
		log.GetLogger().Errorf("Failed to persist run %s: %v", runID, err)
		return res, err
	}
	log.GetLogger().Infof("Executed plan '%s' as run %s: %s", planName, runID, res.State)
	return res, nil
}

func (s *RunService) persistResult(runID string, waveOf map[string]int, nameOf map[string]string, res *models.ExecutionResult) (err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				log.GetLogger().Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			log.GetLogger().Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	runTasks := make([]models.RunTask, 0, len(res.Results))
	for id, tr := range res.Results {
		rt := models.RunTask{
			RunID:    runID,
			TaskID:   id,
			Name:     nameOf[id],
			Wave:     waveOf[id],
			Outcome:  tr.Outcome,
			Attempts: tr.Attempts,
		}
		if tr.Err != nil {
			rt.ErrorMsg = tr.Err.Error()
		}
		if !tr.StartedAt.IsZero() {
			started := tr.StartedAt
			rt.StartedAt = &started
		}
		if !tr.CompletedAt.IsZero() {
			finished := tr.CompletedAt
			rt.FinishedAt = &finished
		}
		runTasks = append(runTasks, rt)
	}
	if err = txStore.SaveRunTasks(runTasks); err != nil {
		return err
	}
	if err = txStore.UpdateRunState(runID, res.State, res.WavesCompleted, res.StepsCompleted); err != nil {
		return err
	}
	return nil
}

// GetRun returns one run with its per-task outcomes.
func (s *RunService) GetRun(id string) (models.Run, []models.RunTask, error) {
	run, err := s.store.GetRun(id)
	if err != nil {
		return models.Run{}, nil, err
	}
	tasks, err := s.store.GetRunTasks(id)
	if err != nil {
		return models.Run{}, nil, err
	}
	return run, tasks, nil
}

func (s *RunService) ListRuns() ([]models.Run, error) {
	return s.store.ListRuns()
}
