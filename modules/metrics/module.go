// Package metrics is the built-in Prometheus observer module. It turns flow
// lifecycle events into counters and histograms served on the /metrics
// endpoint.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/flowgridgo/internal/hooks"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	FlowRuns     *prometheus.CounterVec
	NodeDuration *prometheus.HistogramVec
	NodeFailures *prometheus.CounterVec
	CacheHits    prometheus.Counter

	registerer prometheus.Registerer
}

// New creates the module's collectors and binds them to a registerer. Pass
// prometheus.DefaultRegisterer for the process-wide registry, or a fresh
// registry in tests.
func New(reg prometheus.Registerer) *Module {
	return &Module{
		FlowRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowgrid",
				Subsystem: "flow",
				Name:      "runs_total",
				Help:      "Total number of flow runs by terminal status",
			},
			[]string{"status"},
		),
		NodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "flowgrid",
				Subsystem: "node",
				Name:      "duration_seconds",
				Help:      "Node execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"node"},
		),
		NodeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowgrid",
				Subsystem: "node",
				Name:      "failures_total",
				Help:      "Total number of node execution failures",
			},
			[]string{"node"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "flowgrid",
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of node invocations satisfied from the cache",
			},
		),
		registerer: reg,
	}
}

// Register registers the collectors and subscribes the update callbacks.
func (m *Module) Register(r *registry.Registry) {
	m.registerer.MustRegister(m.FlowRuns, m.NodeDuration, m.NodeFailures, m.CacheHits)

	r.RegisterHook(hooks.AfterFlow, m.onAfterFlow)
	r.RegisterHook(hooks.AfterNode, m.onAfterNode)
	r.RegisterHook(hooks.CacheHit, m.onCacheHit)
}

func (m *Module) onAfterFlow(_ context.Context, e hooks.Event) {
	p, ok := e.Payload.(hooks.FlowEndPayload)
	if !ok {
		return
	}
	m.FlowRuns.WithLabelValues(p.Status).Inc()
}

func (m *Module) onAfterNode(_ context.Context, e hooks.Event) {
	p, ok := e.Payload.(hooks.NodeEndPayload)
	if !ok {
		return
	}
	m.NodeDuration.WithLabelValues(p.StepName).Observe(p.DurationSec)
	if p.Failed {
		m.NodeFailures.WithLabelValues(p.StepName).Inc()
	}
}

func (m *Module) onCacheHit(_ context.Context, e hooks.Event) {
	if _, ok := e.Payload.(hooks.CacheHitPayload); !ok {
		return
	}
	m.CacheHits.Inc()
}
