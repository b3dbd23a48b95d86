package scheduler

import (
	"github.com/Lordsisodia/waveflow/pkg/models"
)

// graph is an index-based view of the task set: task ids are mapped to
// positions in the input slice once, and all adjacency is stored as int
// slices so traversal never chases strings or pointers.
type graph struct {
	tasks      []models.Task
	index      map[string]int // task id -> position in tasks
	deps       [][]int        // deps[i] = indices task i depends on
	dependents [][]int        // dependents[i] = indices that depend on task i
}

// buildGraph constructs the adjacency structures in one pass and
// validates referential integrity. The input slice is not mutated. The
// first depends_on id that names no task aborts the build with an
// UnknownDependencyError.
func buildGraph(tasks []models.Task) (*graph, error) {
	g := &graph{
		tasks:      tasks,
		index:      make(map[string]int, len(tasks)),
		deps:       make([][]int, len(tasks)),
		dependents: make([][]int, len(tasks)),
	}
	for i, t := range tasks {
		g.index[t.ID] = i
	}
	for i, t := range tasks {
		for _, depID := range t.DependsOn {
			j, ok := g.index[depID]
			if !ok {
				return nil, &UnknownDependencyError{TaskID: t.ID, MissingID: depID}
			}
			g.deps[i] = append(g.deps[i], j)
			g.dependents[j] = append(g.dependents[j], i)
		}
	}
	return g, nil
}

func (g *graph) id(i int) string {
	return g.tasks[i].ID
}
