package dag

import (
	"context"
	"fmt"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/ctxlog"
)

// Build constructs a finalized graph from a loaded flow model. Flow inputs
// become declared roots; nodes are registered in file order so independent
// nodes keep a stable relative order. The returned graph is frozen and ready
// for topological ordering.
func Build(ctx context.Context, model *config.Model) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)

	if model == nil || model.Flow == nil {
		return nil, fmt.Errorf("cannot build graph: model contains no flow definition")
	}

	g := New()

	for _, input := range model.Flow.Inputs {
		g.DeclareRoot(input.Name)
	}

	for _, node := range model.Flow.Nodes {
		n := &Node{
			Name:       node.Name,
			RunnerType: node.RunnerType,
			Inputs:     node.Inputs,
			Config:     node.Config,
		}
		if err := g.Register(n); err != nil {
			return nil, fmt.Errorf("building graph: %w", err)
		}
	}

	if err := g.Finalize(); err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}

	logger.Debug("Graph built.", "nodes", g.Len(), "roots", len(model.Flow.Inputs))
	return g, nil
}
