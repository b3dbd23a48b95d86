package scheduler

import (
	"sort"

	"github.com/Lordsisodia/waveflow/pkg/models"
)

// WaveGroup is one batch of tasks sharing a wave number. Tasks inside a
// group have no dependency relationships among each other and are
// ordered by id so repeated runs produce identical grouping.
type WaveGroup struct {
	Wave  int
	Tasks []models.Task
}

// computeWaves assigns every task its wave number: 0 for tasks with no
// dependencies, otherwise 1 + the maximum wave among dependencies. The
// walk is an iterative post-order DFS with an in-progress guard, so it
// refuses to loop and reports a CircularDependencyError if it is ever
// handed a cyclic graph, even though cycle detection runs upstream.
func computeWaves(g *graph) ([]int, error) {
	waves := make([]int, len(g.tasks))
	color := make([]int, len(g.tasks))
	for start := range g.tasks {
		if color[start] != unvisited {
			continue
		}
		stack := []dfsFrame{{node: start}}
		color[start] = inProgress
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(g.deps[top.node]) {
				dep := g.deps[top.node][top.next]
				top.next++
				switch color[dep] {
				case unvisited:
					color[dep] = inProgress
					stack = append(stack, dfsFrame{node: dep})
				case inProgress:
					return nil, &CircularDependencyError{Cycle: extractCycle(g, stack, dep)}
				}
			} else {
				wave := 0
				for _, dep := range g.deps[top.node] {
					if waves[dep]+1 > wave {
						wave = waves[dep] + 1
					}
				}
				waves[top.node] = wave
				color[top.node] = done
				stack = stack[:len(stack)-1]
			}
		}
	}
	return waves, nil
}

// groupWaves buckets tasks by wave number into an ascending sequence of
// WaveGroups, sorting each group by task id. Deterministic ordering here
// implies nothing about execution order within a wave.
func groupWaves(g *graph, waves []int) []WaveGroup {
	byWave := make(map[int][]models.Task)
	for i, t := range g.tasks {
		byWave[waves[i]] = append(byWave[waves[i]], t)
	}
	numbers := make([]int, 0, len(byWave))
	for w := range byWave {
		numbers = append(numbers, w)
	}
	sort.Ints(numbers)
	groups := make([]WaveGroup, 0, len(numbers))
	for _, w := range numbers {
		tasks := byWave[w]
		sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
		groups = append(groups, WaveGroup{Wave: w, Tasks: tasks})
	}
	return groups
}
