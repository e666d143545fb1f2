package config

import (
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of the entire
// flow configuration.
type Model struct {
	Flow *Flow
}

// Flow represents the user's pipeline definition: external root inputs and
// the processing nodes that consume them.
type Flow struct {
	Inputs []*Input
	Nodes  []*Node
}

// Input is the format-agnostic representation of an `input` block. It seeds
// a root artifact that exists before any node runs.
type Input struct {
	Name  string
	Value cty.Value
}

// Node is the format-agnostic representation of a `node` block.
type Node struct {
	// RunnerType names the registered runner function that executes this node.
	RunnerType string
	// Name is the unique instance name; other nodes refer to it in `inputs`.
	Name string
	// Inputs lists, in declared order, the artifact names this node consumes.
	Inputs []string
	// Config holds the node's opaque configuration record, evaluated at load time.
	Config map[string]cty.Value
}
