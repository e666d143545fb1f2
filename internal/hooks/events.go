package hooks

import (
	"time"
)

// EventName identifies a flow lifecycle event.
type EventName string

const (
	// BeforeFlow fires at flow start, before any node runs.
	BeforeFlow EventName = "before_flow"
	// AfterFlow fires at flow end, success or failure.
	AfterFlow EventName = "after_flow"
	// BeforeNode fires immediately before a node's function is invoked.
	// It is skipped on a cache hit.
	BeforeNode EventName = "before_node"
	// AfterNode fires immediately after a node's function returns or fails.
	AfterNode EventName = "after_node"
	// CacheHit fires instead of BeforeNode/AfterNode when the cache
	// satisfies the request.
	CacheHit EventName = "on_cache_hit"
)

// Event is one dispatched lifecycle event. Payloads are plain structured
// records copied out of the engine, never live mutable engine internals.
type Event struct {
	Name      EventName
	Payload   any
	Timestamp time.Time
}

// FlowStartPayload accompanies BeforeFlow.
type FlowStartPayload struct {
	StartedAt time.Time
}

// FlowEndPayload accompanies AfterFlow.
type FlowEndPayload struct {
	Status string
	// ExecutedSteps lists node names in execution order. Skipped nodes are
	// not included.
	ExecutedSteps []string
}

// NodeStartPayload accompanies BeforeNode.
type NodeStartPayload struct {
	StepName string
	// Inputs is the resolved input count.
	Inputs int
}

// NodeEndPayload accompanies AfterNode.
type NodeEndPayload struct {
	StepName    string
	DurationSec float64
	Cached      bool
	Failed      bool
	Error       string
}

// CacheHitPayload accompanies CacheHit.
type CacheHitPayload struct {
	StepName string
}
