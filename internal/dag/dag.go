package dag

import (
	"fmt"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		roots: make(map[string]struct{}),
	}
}

// Register adds a node to the graph. It fails with a DuplicateNodeError if a
// node with the same name is already present, and rejects registration on a
// finalized graph.
func (g *Graph) Register(n *Node) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.finalized {
		return fmt.Errorf("cannot register node %q: graph is finalized", n.Name)
	}
	if _, ok := g.nodes[n.Name]; ok {
		return &DuplicateNodeError{Name: n.Name}
	}

	n.index = len(g.order)
	n.deps = make(map[string]*Node)
	n.dependents = make(map[string]*Node)
	g.nodes[n.Name] = n
	g.order = append(g.order, n.Name)
	return nil
}

// DeclareRoot marks a name as an external root input. Inputs resolving to a
// declared root are satisfied from outside the graph rather than by a node.
func (g *Graph) DeclareRoot(name string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.roots[name] = struct{}{}
}

// Node returns the node registered under the given name.
func (g *Graph) Node(name string) (*Node, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	n, ok := g.nodes[name]
	return n, ok
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// IsRoot reports whether the given name is a declared external root input.
func (g *Graph) IsRoot(name string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.roots[name]
	return ok
}

// Finalize validates the graph and freezes it. A name may not be both a
// root and a node (RootCollisionError), every declared input must be
// produced by a registered node or declared as a root (UnknownInputError),
// and the resulting edge set must be acyclic (CyclicGraphError). After a
// successful Finalize the graph is immutable and topologically sortable.
func (g *Graph) Finalize() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.finalized {
		return nil
	}

	// A name must resolve to exactly one producer: either a root or a node.
	for _, name := range g.order {
		if _, ok := g.roots[name]; ok {
			return &RootCollisionError{Name: name}
		}
	}

	// Link edges: a node's input resolves to the node producing an artifact
	// of that name, or to a declared root.
	for _, name := range g.order {
		n := g.nodes[name]
		for _, input := range n.Inputs {
			if producer, ok := g.nodes[input]; ok {
				n.deps[input] = producer
				producer.dependents[name] = n
				continue
			}
			if _, ok := g.roots[input]; ok {
				continue
			}
			return &UnknownInputError{Node: name, Input: input}
		}
	}

	if err := g.detectCycles(); err != nil {
		return err
	}

	g.finalized = true
	return nil
}

// detectCycles checks the graph for any cycles using classic depth-first
// search with three sets of nodes: permanent (fully visited, known safe),
// temporary (in the current recursion stack), and unvisited. The caller must
// hold the write lock.
func (g *Graph) detectCycles() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	var stack []string

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n.Name] {
			return nil // Already visited and known to be safe.
		}
		if temporary[n.Name] {
			// We've hit a node that's already in our recursion stack.
			// The cycle is the stack suffix starting at this node.
			start := 0
			for i, name := range stack {
				if name == n.Name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, stack[start:]...), n.Name)
			return &CyclicGraphError{Cycle: cycle}
		}

		temporary[n.Name] = true
		stack = append(stack, n.Name)

		// Visit dependents in registration order so the reported cycle is
		// stable across runs.
		for _, name := range g.order {
			if dependent, ok := n.dependents[name]; ok {
				if err := visit(dependent); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		delete(temporary, n.Name)
		permanent[n.Name] = true

		return nil
	}

	for _, name := range g.order {
		if !permanent[name] {
			if err := visit(g.nodes[name]); err != nil {
				return err
			}
		}
	}

	return nil
}

// Dependencies returns the names of the nodes the given node depends on,
// in the node's declared input order (root inputs are omitted).
func (g *Graph) Dependencies(name string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[name]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", name)
	}

	deps := make([]string, 0, len(n.deps))
	for _, input := range n.Inputs {
		if _, ok := n.deps[input]; ok {
			deps = append(deps, input)
		}
	}
	return deps, nil
}

// Dependents returns the names of the nodes that depend on the given node,
// in registration order.
func (g *Graph) Dependents(name string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[name]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", name)
	}

	dependents := make([]string, 0, len(n.dependents))
	for _, candidate := range g.order {
		if _, ok := n.dependents[candidate]; ok {
			dependents = append(dependents, candidate)
		}
	}
	return dependents, nil
}
