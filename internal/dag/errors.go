package dag

import (
	"fmt"
	"strings"
)

// DuplicateNodeError is returned when a node is registered under a name that
// is already present in the graph.
type DuplicateNodeError struct {
	Name string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node name %q", e.Name)
}

// RootCollisionError is returned at finalize time when a name is declared
// both as an external root input and as a node instance, which would make
// the input resolution ambiguous.
type RootCollisionError struct {
	Name string
}

func (e *RootCollisionError) Error() string {
	return fmt.Sprintf("name %q is declared both as a root input and as a node", e.Name)
}

// UnknownInputError is returned at finalize time when a node declares an
// input that no node produces and no declared root provides.
type UnknownInputError struct {
	Node  string
	Input string
}

func (e *UnknownInputError) Error() string {
	return fmt.Sprintf("node %q declares input %q which is neither produced by a node nor declared as a root input", e.Node, e.Input)
}

// CyclicGraphError is returned at finalize time when the graph contains a
// dependency cycle. Cycle lists the node names involved, in traversal order.
type CyclicGraphError struct {
	Cycle []string
}

func (e *CyclicGraphError) Error() string {
	return fmt.Sprintf("cycle detected involving nodes: %s", strings.Join(e.Cycle, " -> "))
}
