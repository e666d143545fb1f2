package dag

import (
	"fmt"
)

// TopologicalOrder returns the node names in a dependency-respecting order.
// Ties between independent nodes are broken by registration order, so an
// identical graph always yields a byte-identical ordering, across process
// restarts included. The graph must be finalized.
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if !g.finalized {
		return nil, fmt.Errorf("topological order requested on unfinalized graph")
	}

	indegree := make(map[string]int, len(g.nodes))
	for name, n := range g.nodes {
		indegree[name] = len(n.deps)
	}

	ordered := make([]string, 0, len(g.nodes))
	emitted := make(map[string]bool, len(g.nodes))

	// Kahn's algorithm. The ready set is scanned in registration order on
	// every round, which is what makes the ordering deterministic.
	for len(ordered) < len(g.nodes) {
		progressed := false
		for _, name := range g.order {
			if emitted[name] || indegree[name] != 0 {
				continue
			}
			emitted[name] = true
			ordered = append(ordered, name)
			progressed = true
			for _, dependent := range g.nodes[name].dependents {
				indegree[dependent.Name]--
			}
		}
		if !progressed {
			// Unreachable on a finalized graph; Finalize rejects cycles.
			return nil, fmt.Errorf("graph is not acyclic")
		}
	}

	return ordered, nil
}
