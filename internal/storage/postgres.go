package storage

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Lordsisodia/waveflow/pkg/models"
	"github.com/Lordsisodia/waveflow/pkg/storage"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// PostgresStore persists run history to Postgres via sqlx.
type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection, used by tests.
func NewPostgresStoreFromDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// SaveRun inserts a new run record.
func (s *PostgresStore) SaveRun(r models.Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, plan_name, state, waves_completed, steps_completed, steps_total, created_at, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.PlanName, r.State, r.WavesCompleted, r.StepsCompleted, r.StepsTotal, r.CreatedAt, r.StartedAt, r.FinishedAt)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// GetRun retrieves one run by ID.
func (s *PostgresStore) GetRun(id string) (models.Run, error) {
	var r models.Run
	err := s.db.Get(&r, "SELECT * FROM runs WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.Run{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns() ([]models.Run, error) {
	runs := []models.Run{}
	query := "SELECT * FROM runs ORDER BY created_at DESC"
	err := s.db.Select(&runs, query)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// UpdateRunState records the terminal state and progress counters of a run.
func (s *PostgresStore) UpdateRunState(id string, state models.RunState, wavesCompleted, stepsCompleted int) error {
	res, err := s.db.Exec(
		`UPDATE runs SET state = $1, waves_completed = $2, steps_completed = $3, finished_at = CURRENT_TIMESTAMP WHERE id = $4`,
		state, wavesCompleted, stepsCompleted, id)
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SaveRunTasks bulk-inserts the per-task outcomes of a run.
func (s *PostgresStore) SaveRunTasks(tasks []models.RunTask) error {
	for _, t := range tasks {
		_, err := s.db.Exec(
			`INSERT INTO run_tasks (run_id, task_id, name, wave, outcome, attempts, error_msg, started_at, finished_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			t.RunID, t.TaskID, t.Name, t.Wave, t.Outcome, t.Attempts, t.ErrorMsg, t.StartedAt, t.FinishedAt)
		if err != nil {
			return fmt.Errorf("save run task %s/%s: %w", t.RunID, t.TaskID, err)
		}
	}
	return nil
}

func (s *PostgresStore) GetRunTasks(runID string) ([]models.RunTask, error) {
	tasks := []models.RunTask{}
	err := s.db.Select(&tasks, "SELECT * FROM run_tasks WHERE run_id = $1 ORDER BY wave, task_id", runID)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}
