package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/flowgridgo/internal/artifact"
	"github.com/vk/flowgridgo/internal/cache"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/dag"
	"github.com/vk/flowgridgo/internal/fingerprint"
	"github.com/vk/flowgridgo/internal/hooks"
	"github.com/vk/flowgridgo/internal/registry"
)

// runNode executes one node through the memoization layer and publishes its
// artifact. The before_node and after_node events fire only when the runner
// actually executes; a cache hit fires on_cache_hit instead. The outcome is
// recorded in the run state; a non-nil return means the node failed.
func (e *Executor) runNode(ctx context.Context, rs *runState, node *dag.Node) error {
	logger := ctxlog.FromContext(ctx).With("node", node.Name)

	arts, err := rs.artifacts.Resolve(node.Inputs)
	if err != nil {
		rs.recordFailure(node.Name, 0, err)
		return err
	}

	upstream := make([]string, len(arts))
	for i, a := range arts {
		upstream[i] = a.Fingerprint
	}
	key, err := fingerprint.ForNode(node.RunnerType, node.Config, upstream)
	if err != nil {
		err = fmt.Errorf("fingerprinting node %q: %w", node.Name, err)
		rs.recordFailure(node.Name, 0, err)
		return err
	}

	runner, ok := e.reg.Runner(node.RunnerType)
	if !ok {
		err = fmt.Errorf("no runner registered for type %q", node.RunnerType)
		rs.recordFailure(node.Name, 0, err)
		return err
	}

	h := e.reg.Hooks()
	lookupStart := time.Now()

	entry, hit, err := e.memo.Do(ctx, key, func() (*cache.Entry, error) {
		h.Dispatch(ctx, hooks.BeforeNode, hooks.NodeStartPayload{
			StepName: node.Name,
			Inputs:   len(arts),
		})
		logger.Debug("Executing node.", "runner", node.RunnerType, "key", key)

		start := time.Now()
		val, runErr := runner.Fn(ctx, &registry.Call{
			Node:   node.Name,
			Inputs: arts,
			Config: node.Config,
		})
		duration := time.Since(start)

		end := hooks.NodeEndPayload{StepName: node.Name, DurationSec: duration.Seconds()}
		if runErr != nil {
			end.Failed = true
			end.Error = runErr.Error()
		}
		h.Dispatch(ctx, hooks.AfterNode, end)

		if runErr != nil {
			return nil, runErr
		}

		now := time.Now()
		return &cache.Entry{
			Key:       key,
			NodeName:  node.Name,
			Duration:  duration,
			CreatedAt: now,
			Artifact: &artifact.Artifact{
				Name:        node.Name,
				Fingerprint: key,
				Value:       val,
				ProducedBy:  node.Name,
				CreatedAt:   now,
			},
		}, nil
	})
	if err != nil {
		logger.Error("Node execution failed.", "error", err)
		rs.recordFailure(node.Name, time.Since(lookupStart).Seconds(), err)
		return err
	}

	metrics := &NodeMetrics{DurationSec: entry.Duration.Seconds()}
	if hit {
		h.Dispatch(ctx, hooks.CacheHit, hooks.CacheHitPayload{StepName: node.Name})
		logger.Debug("Cache hit.", "key", key, "producedBy", entry.NodeName)
		metrics.Cached = true
		metrics.DurationSec = time.Since(lookupStart).Seconds()
	}

	// Publish under this node's name; on a deduplicated hit the artifact may
	// have been produced by a different node, which ProducedBy preserves.
	published := *entry.Artifact
	published.Name = node.Name
	if err := rs.artifacts.Publish(&published); err != nil {
		rs.recordFailure(node.Name, metrics.DurationSec, err)
		return err
	}

	rs.recordSuccess(node.Name, metrics)
	return nil
}
