// Package executor runs a finalized flow graph: it schedules nodes in
// dependency order, routes artifacts between them, consults the memoization
// cache, and emits lifecycle events for observer plugins.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vk/flowgridgo/internal/artifact"
	"github.com/vk/flowgridgo/internal/cache"
	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/dag"
	"github.com/vk/flowgridgo/internal/fingerprint"
	"github.com/vk/flowgridgo/internal/hooks"
	"github.com/vk/flowgridgo/internal/registry"
)

// Status is the terminal state of a flow run.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// FailurePolicy controls what happens to the rest of the graph when a node
// fails.
type FailurePolicy int

const (
	// ContinueIndependent skips the failed node's transitive dependents but
	// lets independent branches run to completion.
	ContinueIndependent FailurePolicy = iota
	// FailFast cancels all remaining work on the first failure.
	FailFast
)

// Options tunes a single executor.
type Options struct {
	// Workers is the scheduling width. Values below 2 select the sequential
	// scheduler, which runs nodes one at a time in topological order.
	Workers int
	// Policy is the failure handling policy.
	Policy FailurePolicy
}

// Executor runs flows against one graph. It is safe for concurrent Run
// calls; the memoization cache deduplicates identical work across them.
type Executor struct {
	graph   *dag.Graph
	reg     *registry.Registry
	memo    *cache.Memoizer
	workers int
	policy  FailurePolicy
}

// NodeMetrics records the per-node outcome of one run.
type NodeMetrics struct {
	DurationSec float64
	Cached      bool
	Failed      bool
	Skipped     bool
	Error       string
}

// Result is the outcome of one flow run.
type Result struct {
	RunID       string
	Status      Status
	StartedAt   time.Time
	DurationSec float64
	// ExecutedSteps lists, in completion order, the nodes that ran, hit the
	// cache, or failed. Skipped nodes are excluded.
	ExecutedSteps []string
	// Nodes holds the per-node outcome for every node in the graph.
	Nodes map[string]*NodeMetrics
	// Artifacts is the run's artifact store, for reading node outputs.
	Artifacts *artifact.Store
}

// New creates an executor over a finalized graph.
func New(graph *dag.Graph, reg *registry.Registry, memo *cache.Memoizer, opts Options) *Executor {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		graph:   graph,
		reg:     reg,
		memo:    memo,
		workers: workers,
		policy:  opts.Policy,
	}
}

// Run executes the flow once. The given inputs seed the root artifacts. A
// non-nil error is returned when the run ends FAILED or CANCELLED; the
// result carries the per-node detail either way.
func (e *Executor) Run(ctx context.Context, inputs []*config.Input) (*Result, error) {
	runID := ulid.Make().String()
	logger := ctxlog.FromContext(ctx).With("runID", runID)
	ctx = ctxlog.WithLogger(ctx, logger)

	startedAt := time.Now()
	rs := newRunState()

	for _, in := range inputs {
		fp, err := fingerprint.ForValue(in.Value)
		if err != nil {
			return nil, fmt.Errorf("fingerprinting input %q: %w", in.Name, err)
		}
		root := &artifact.Artifact{
			Name:        in.Name,
			Fingerprint: fp,
			Value:       in.Value,
			CreatedAt:   startedAt,
		}
		if err := rs.artifacts.SeedRoot(root); err != nil {
			return nil, fmt.Errorf("seeding input %q: %w", in.Name, err)
		}
	}

	order, err := e.graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	h := e.reg.Hooks()
	h.Dispatch(ctx, hooks.BeforeFlow, hooks.FlowStartPayload{StartedAt: startedAt})
	logger.Info("Flow started.", "nodes", len(order), "workers", e.workers)

	if e.workers > 1 {
		e.runPool(ctx, rs, order)
	} else {
		e.runSequential(ctx, rs, order)
	}

	status := StatusCompleted
	switch {
	case ctx.Err() != nil:
		status = StatusCancelled
	case rs.rootCause() != nil:
		status = StatusFailed
	}

	result := &Result{
		RunID:         runID,
		Status:        status,
		StartedAt:     startedAt,
		DurationSec:   time.Since(startedAt).Seconds(),
		ExecutedSteps: rs.executedSteps(),
		Nodes:         rs.allMetrics(),
		Artifacts:     rs.artifacts,
	}

	h.Dispatch(ctx, hooks.AfterFlow, hooks.FlowEndPayload{
		Status:        string(status),
		ExecutedSteps: result.ExecutedSteps,
	})

	switch status {
	case StatusCancelled:
		logger.Warn("Flow cancelled.", "durationSec", result.DurationSec)
		return result, fmt.Errorf("flow cancelled: %w", ctx.Err())
	case StatusFailed:
		cause := rs.rootCause()
		logger.Error("Flow failed.", "durationSec", result.DurationSec, "error", cause)
		return result, fmt.Errorf("flow failed: %w", cause)
	}

	logger.Info("Flow completed.", "durationSec", result.DurationSec, "steps", len(result.ExecutedSteps))
	return result, nil
}
