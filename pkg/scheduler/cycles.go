package scheduler

// DFS coloring states.
const (
	unvisited = iota
	inProgress
	done
)

// dfsFrame is one entry of the explicit DFS stack: the node and how far
// through its dependency list the traversal has advanced.
type dfsFrame struct {
	node int
	next int
}

// detectCycles runs an iterative depth-first search with three-coloring
// over the whole graph. It returns nil when the graph is acyclic and a
// CircularDependencyError naming the offending cycle otherwise. A task
// that depends on itself is reported as a one-node cycle.
func detectCycles(g *graph) error {
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
					return &CircularDependencyError{Cycle: extractCycle(g, stack, dep)}
				}
			} else {
				color[top.node] = done
				stack = stack[:len(stack)-1]
			}
		}
	}
	return nil
}

// extractCycle rebuilds the cycle from the DFS stack: everything from
// the first occurrence of the re-entered node to the top of the stack
// lies on the cycle.
func extractCycle(g *graph, stack []dfsFrame, reentered int) []string {
	from := 0
	for i, f := range stack {
		if f.node == reentered {
			from = i
			break
		}
	}
	cycle := make([]string, 0, len(stack)-from)
	for _, f := range stack[from:] {
		cycle = append(cycle, g.id(f.node))
	}
	return cycle
}
