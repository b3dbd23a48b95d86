package scheduler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lordsisodia/waveflow/pkg/models"
)

func task(id string, deps ...string) models.Task {
	return models.Task{ID: id, Name: id, DependsOn: deps}
}

func TestComputeWaves_Diamond(t *testing.T) {
	tasks := []models.Task{
		task("a"),
		task("b", "a"),
		task("c", "a"),
		task("d", "b", "c"),
	}
	groups, err := Plan(tasks)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, 0, groups[0].Wave)
	assert.Equal(t, []string{"a"}, groupIDs(groups[0]))
	assert.Equal(t, 1, groups[1].Wave)
	assert.Equal(t, []string{"b", "c"}, groupIDs(groups[1]))
	assert.Equal(t, 2, groups[2].Wave)
	assert.Equal(t, []string{"d"}, groupIDs(groups[2]))
}

func TestComputeWaves_NoDepsIsWaveZero(t *testing.T) {
	tasks := []models.Task{task("x"), task("y"), task("z")}
	groups, err := Plan(tasks)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 0, groups[0].Wave)
	assert.Equal(t, []string{"x", "y", "z"}, groupIDs(groups[0]))
}

func TestComputeWaves_DependencyInvariant(t *testing.T) {
	tasks := []models.Task{
		task("a"),
		task("b", "a"),
		task("c", "a", "b"),
		task("d", "a"),
		task("e", "c", "d"),
		task("f"),
		task("g", "e", "f"),
	}
	g, err := buildGraph(tasks)
	require.NoError(t, err)
	waves, err := computeWaves(g)
	require.NoError(t, err)

	for i, tk := range tasks {
		for _, dep := range tk.DependsOn {
			j := g.index[dep]
			assert.GreaterOrEqual(t, waves[i], waves[j]+1,
				"wave(%s) must exceed wave(%s)", tk.ID, dep)
		}
	}
}

func TestComputeWaves_OrderInvariant(t *testing.T) {
	tasks := []models.Task{
		task("a"),
		task("b", "a"),
		task("c", "a"),
		task("d", "b", "c"),
		task("e", "d"),
		task("f"),
	}
	want, err := Plan(tasks)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]models.Task, len(tasks))
		copy(shuffled, tasks)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got, err := Plan(shuffled)
		require.NoError(t, err)
		assert.Equal(t, want, got, "grouping must not depend on input order")
	}
}

func TestComputeWaves_RefusesCyclicGraph(t *testing.T) {
	// computeWaves must not loop even when handed a graph that skipped
	// upstream cycle detection.
	tasks := []models.Task{task("x", "y"), task("y", "x")}
	g, err := buildGraph(tasks)
	require.NoError(t, err)

	_, err = computeWaves(g)
	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Len(t, cycleErr.Cycle, 2)
}

func groupIDs(g WaveGroup) []string {
	ids := make([]string, len(g.Tasks))
	for i, t := range g.Tasks {
		ids[i] = t.ID
	}
	return ids
}
