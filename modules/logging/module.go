// Package logging is the built-in observer module: it subscribes to every
// flow lifecycle event and emits structured log lines.
package logging

import (
	"context"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/hooks"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register subscribes the logging callbacks with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook(hooks.BeforeFlow, onBeforeFlow)
	r.RegisterHook(hooks.AfterFlow, onAfterFlow)
	r.RegisterHook(hooks.BeforeNode, onBeforeNode)
	r.RegisterHook(hooks.AfterNode, onAfterNode)
	r.RegisterHook(hooks.CacheHit, onCacheHit)
}

func onBeforeFlow(ctx context.Context, e hooks.Event) {
	p, ok := e.Payload.(hooks.FlowStartPayload)
	if !ok {
		return
	}
	ctxlog.FromContext(ctx).Info("Flow starting.", "startedAt", p.StartedAt)
}

func onAfterFlow(ctx context.Context, e hooks.Event) {
	p, ok := e.Payload.(hooks.FlowEndPayload)
	if !ok {
		return
	}
	ctxlog.FromContext(ctx).Info("Flow finished.", "status", p.Status, "executedSteps", len(p.ExecutedSteps))
}

func onBeforeNode(ctx context.Context, e hooks.Event) {
	p, ok := e.Payload.(hooks.NodeStartPayload)
	if !ok {
		return
	}
	ctxlog.FromContext(ctx).Info("Node starting.", "node", p.StepName, "inputs", p.Inputs)
}

func onAfterNode(ctx context.Context, e hooks.Event) {
	p, ok := e.Payload.(hooks.NodeEndPayload)
	if !ok {
		return
	}
	logger := ctxlog.FromContext(ctx)
	if p.Failed {
		logger.Error("Node failed.", "node", p.StepName, "durationSec", p.DurationSec, "error", p.Error)
		return
	}
	logger.Info("Node finished.", "node", p.StepName, "durationSec", p.DurationSec)
}

func onCacheHit(ctx context.Context, e hooks.Event) {
	p, ok := e.Payload.(hooks.CacheHitPayload)
	if !ok {
		return
	}
	ctxlog.FromContext(ctx).Info("Node satisfied from cache.", "node", p.StepName)
}
