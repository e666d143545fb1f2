package dag

import (
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Graph is a collection of nodes and their dependencies, representing a DAG.
// All operations on the graph are concurrency-safe. A graph is mutable until
// Finalize succeeds, after which it is frozen.
type Graph struct {
	// mutex protects all fields during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their unique name.
	nodes map[string]*Node
	// order records node names in registration order; it breaks ties between
	// independent nodes so identical graphs always order identically.
	order []string
	// roots is the set of declared external root input names.
	roots map[string]struct{}
	// finalized is set once validation and cycle detection have passed.
	finalized bool
}

// Node is a single vertex in the flow graph: one named processing step.
// Nodes are immutable once registered.
type Node struct {
	// Name is the unique, human-readable instance name.
	Name string
	// RunnerType names the registered runner function that executes this node.
	RunnerType string
	// Inputs lists, in declared order, the artifact names this node consumes.
	Inputs []string
	// Config is the node's opaque configuration record.
	Config map[string]cty.Value

	// index is the node's registration position, used for deterministic ordering.
	index int
	// deps holds the producing nodes this node depends on (predecessors).
	deps map[string]*Node
	// dependents holds the nodes that depend on this node (successors).
	dependents map[string]*Node
}
