package storage

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Lordsisodia/waveflow/pkg/models"
)

// mockStore implements Store with in-memory storage
type mockStore struct {
	mu       sync.RWMutex
	runs     []models.Run
	runTasks []models.RunTask
}

// NewMockStore returns an in-memory Store for tests and local runs
// without a database.
func NewMockStore() Store {
	return &mockStore{}
}

func (m *mockStore) Begin() (Store, error) {
	return m, nil
}

func (m *mockStore) Commit() error {
	return nil
}

func (m *mockStore) Rollback() error {
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

func (m *mockStore) SaveRun(r models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.runs {
		if existing.ID == r.ID {
			return errors.New("run already exists")
		}
	}
	m.runs = append(m.runs, r)
	return nil
}

func (m *mockStore) GetRun(id string) (models.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Run{}, ErrNotFound
}

func (m *mockStore) ListRuns() ([]models.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Run, len(m.runs))
	copy(out, m.runs)
	return out, nil
}

func (m *mockStore) UpdateRunState(id string, state models.RunState, wavesCompleted, stepsCompleted int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.runs {
		if r.ID == id {
			now := time.Now()
			m.runs[i].State = state
			m.runs[i].WavesCompleted = wavesCompleted
			m.runs[i].StepsCompleted = stepsCompleted
			m.runs[i].FinishedAt = &now
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) SaveRunTasks(tasks []models.RunTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runTasks = append(m.runTasks, tasks...)
	return nil
}

func (m *mockStore) GetRunTasks(runID string) ([]models.RunTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.RunTask
	for _, t := range m.runTasks {
		if t.RunID == runID {
			out = append(out, t)
		}
	}
	return out, nil
}
