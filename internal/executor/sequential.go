package executor

import (
	"context"
	"fmt"

	"github.com/vk/flowgridgo/internal/ctxlog"
)

// runSequential executes nodes one at a time in topological order. This is
// the default scheduler: fully deterministic, trivial to reason about, and
// fast enough when node work dominates scheduling cost.
func (e *Executor) runSequential(ctx context.Context, rs *runState, order []string) {
	logger := ctxlog.FromContext(ctx)

	// blocked marks nodes that failed or were skipped, so their dependents
	// can be skipped in turn.
	blocked := make(map[string]string, len(order))
	aborted := false

	for _, name := range order {
		node, ok := e.graph.Node(name)
		if !ok {
			continue
		}

		if err := ctx.Err(); err != nil {
			rs.recordSkip(name, err)
			continue
		}
		if aborted {
			rs.recordSkip(name, fmt.Errorf("skipped: a previous node failed"))
			continue
		}

		if upstream := firstBlocked(node.Inputs, blocked); upstream != "" {
			blocked[name] = upstream
			skipErr := fmt.Errorf("skipped due to upstream failure of '%s'", upstream)
			logger.Warn("Skipping node due to upstream failure.", "node", name, "dependency", upstream)
			rs.recordSkip(name, skipErr)
			continue
		}

		if err := e.runNode(ctx, rs, node); err != nil {
			blocked[name] = name
			if e.policy == FailFast {
				aborted = true
			}
		}
	}
}

// firstBlocked returns the first declared input that failed or was skipped.
func firstBlocked(inputs []string, blocked map[string]string) string {
	for _, input := range inputs {
		if _, ok := blocked[input]; ok {
			return input
		}
	}
	return ""
}
