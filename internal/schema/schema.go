// Package schema defines the HCL block structures of a flow definition file.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// ConfigBlock represents the content of the 'config' block within a node.
type ConfigBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Node represents a `node` block from a user's flow file. It is a runnable
// instance of a registered runner type.
type Node struct {
	RunnerType string       `hcl:"runner_type,label"`
	Name       string       `hcl:"instance_name,label"`
	Inputs     []string     `hcl:"inputs,optional"`
	Config     *ConfigBlock `hcl:"config,block"`
}

// Input represents an `input` block: an external root artifact seeded into
// the flow before any node runs.
type Input struct {
	Name  string         `hcl:"name,label"`
	Value hcl.Expression `hcl:"value"`
}

// FlowConfig represents the top-level structure of a user's flow file,
// containing all declared inputs and nodes.
type FlowConfig struct {
	Inputs []*Input `hcl:"input,block"`
	Nodes  []*Node  `hcl:"node,block"`
	Body   hcl.Body `hcl:",remain"`
}
