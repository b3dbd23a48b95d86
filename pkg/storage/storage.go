package storage

import (
	"github.com/pkg/errors"

	"github.com/Lordsisodia/waveflow/pkg/models"
)

// ErrNotFound is returned when a run or task record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations for waveflow run history.
type Store interface {
	// Transaction control. Begin returns a Store scoped to one
	// transaction; Commit/Rollback are no-ops outside one.
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Run operations
	SaveRun(r models.Run) error
	GetRun(id string) (models.Run, error)
	ListRuns() ([]models.Run, error)
	UpdateRunState(id string, state models.RunState, wavesCompleted, stepsCompleted int) error

	// Per-task result operations
	SaveRunTasks(tasks []models.RunTask) error
	GetRunTasks(runID string) ([]models.RunTask, error)
}
