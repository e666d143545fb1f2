package executor

import (
	"sync"

	"github.com/vk/flowgridgo/internal/artifact"
)

// runState is the mutable state of one flow run. The graph itself stays
// immutable; everything a run touches lives here.
type runState struct {
	artifacts *artifact.Store

	mu       sync.Mutex
	executed []string
	metrics  map[string]*NodeMetrics
	// cause is the first real node failure, excluding skips and cancellation.
	cause error
}

func newRunState() *runState {
	return &runState{
		artifacts: artifact.NewStore(),
		metrics:   make(map[string]*NodeMetrics),
	}
}

func (rs *runState) recordSuccess(name string, m *NodeMetrics) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.metrics[name] = m
	rs.executed = append(rs.executed, name)
}

func (rs *runState) recordFailure(name string, durationSec float64, err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.metrics[name] = &NodeMetrics{DurationSec: durationSec, Failed: true, Error: err.Error()}
	rs.executed = append(rs.executed, name)
	if rs.cause == nil {
		rs.cause = err
	}
}

// recordSkip marks a node that never ran. Skips count as failures by
// propagation: the node did not produce its artifact.
func (rs *runState) recordSkip(name string, err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.metrics[name] = &NodeMetrics{Skipped: true, Failed: true, Error: err.Error()}
}

func (rs *runState) rootCause() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.cause
}

func (rs *runState) executedSteps() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]string, len(rs.executed))
	copy(out, rs.executed)
	return out
}

func (rs *runState) allMetrics() map[string]*NodeMetrics {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make(map[string]*NodeMetrics, len(rs.metrics))
	for k, v := range rs.metrics {
		out[k] = v
	}
	return out
}
