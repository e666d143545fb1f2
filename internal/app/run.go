package app

import (
	"context"
	"fmt"

	"github.com/vk/flowgridgo/internal/cache"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/dag"
	"github.com/vk/flowgridgo/internal/executor"
)

// Run executes the loaded flow once and returns an error if the run did not
// complete.
func (a *App) Run(ctx context.Context) error {
	_, err := a.RunFlow(ctx)
	return err
}

// RunFlow executes the loaded flow once and returns the detailed result.
func (a *App) RunFlow(ctx context.Context) (*executor.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App run started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx)
		defer a.closeHealthcheckServer(ctx)
	}

	a.logger.Debug("Building flow graph from config model...")
	graph, err := dag.Build(ctx, a.model)
	if err != nil {
		return nil, fmt.Errorf("failed to build flow graph: %w", err)
	}
	a.logger.Debug("Flow graph built.", "nodes", graph.Len())

	if graph.Len() == 0 {
		a.logger.Warn("No nodes found in flow, nothing to execute.")
		return &executor.Result{Status: executor.StatusCompleted}, nil
	}

	store, closeStore, err := a.openCacheStore()
	if err != nil {
		return nil, err
	}
	defer closeStore()

	policy := executor.ContinueIndependent
	if a.config.FailFast {
		policy = executor.FailFast
	}

	exec := executor.New(graph, a.registry, cache.NewMemoizer(store), executor.Options{
		Workers: a.config.Workers,
		Policy:  policy,
	})

	result, err := exec.Run(ctx, a.model.Flow.Inputs)
	if result != nil {
		a.logNodeSummary(result)
	}
	if err != nil {
		return result, fmt.Errorf("execution failed: %w", err)
	}

	a.logger.Debug("App run finished.")
	return result, nil
}

// logNodeSummary prints one line per node with its outcome.
func (a *App) logNodeSummary(result *executor.Result) {
	for name, m := range result.Nodes {
		switch {
		case m.Skipped:
			a.logger.Info("Node summary.", "node", name, "outcome", "skipped", "reason", m.Error)
		case m.Failed:
			a.logger.Info("Node summary.", "node", name, "outcome", "failed", "durationSec", m.DurationSec, "error", m.Error)
		case m.Cached:
			a.logger.Info("Node summary.", "node", name, "outcome", "cached", "durationSec", m.DurationSec)
		default:
			a.logger.Info("Node summary.", "node", name, "outcome", "executed", "durationSec", m.DurationSec)
		}
	}
}

// openCacheStore selects the cache backend from configuration: persistent
// sqlite when a cache path is set, in-memory otherwise.
func (a *App) openCacheStore() (cache.Store, func(), error) {
	if a.config.CachePath == "" {
		return cache.NewMemoryStore(), func() {}, nil
	}

	s, err := cache.OpenSQLiteStore(a.config.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	a.logger.Debug("Persistent cache opened.", "path", a.config.CachePath)
	return s, func() {
		if err := s.Close(); err != nil {
			a.logger.Warn("Closing cache failed.", "error", err)
		}
	}, nil
}
