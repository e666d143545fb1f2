package hcl

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// translateNode converts the HCL-specific node schema into the agnostic model.
// Config attributes are evaluated statically at load time: node configuration
// is a record of literal values, not expressions over other nodes, so the
// evaluation context is nil.
func (l *Loader) translateNode(n *schema.Node) (*config.Node, error) {
	cfg, err := l.evalConfigBlock(n.Config)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", n.Name, err)
	}
	return &config.Node{
		RunnerType: n.RunnerType,
		Name:       n.Name,
		Inputs:     n.Inputs,
		Config:     cfg,
	}, nil
}

// translateInput converts an `input` block into a seeded root value.
func (l *Loader) translateInput(in *schema.Input) (*config.Input, error) {
	val, diags := in.Value.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("input %q: evaluating value: %w", in.Name, diags)
	}
	return &config.Input{Name: in.Name, Value: val}, nil
}

// evalConfigBlock evaluates every attribute of a node's config block into a
// cty.Value. A missing config block yields an empty record.
func (l *Loader) evalConfigBlock(block *schema.ConfigBlock) (map[string]cty.Value, error) {
	cfg := make(map[string]cty.Value)
	if block == nil || block.Body == nil {
		return cfg, nil
	}

	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("reading config attributes: %w", diags)
	}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating config attribute %q: %w", name, diags)
		}
		cfg[name] = val
	}
	return cfg, nil
}
