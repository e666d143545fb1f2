// Package hooks implements the engine's extension-point system: a typed
// pub/sub registry that observer plugins (loggers, metrics exporters)
// attach to without modifying the engine.
package hooks

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vk/flowgridgo/internal/ctxlog"
)

// Callback is a hook function subscribed to a lifecycle event. Callbacks are
// observers, not participants: a panicking callback is logged and the flow
// proceeds unaffected.
type Callback func(ctx context.Context, e Event)

// Manager is the typed pub/sub registry for lifecycle events. Callbacks are
// registered during plugin setup, before any flow runs, and dispatched
// synchronously in registration order.
type Manager struct {
	// regMu guards the subscription table.
	regMu sync.RWMutex
	subs  map[EventName][]Callback
	// dispatchMu serializes dispatch so concurrent node completions emit
	// whole events one at a time.
	dispatchMu sync.Mutex
}

// NewManager creates an empty hook manager.
func NewManager() *Manager {
	return &Manager{subs: make(map[EventName][]Callback)}
}

// Register subscribes a callback to the named event. Multiple callbacks may
// subscribe to the same event; they are invoked in registration order and do
// not see each other's state.
func (m *Manager) Register(name EventName, cb Callback) {
	m.regMu.Lock()
	defer m.regMu.Unlock()
	m.subs[name] = append(m.subs[name], cb)
}

// Subscribers returns the number of callbacks registered for an event.
func (m *Manager) Subscribers(name EventName) int {
	m.regMu.RLock()
	defer m.regMu.RUnlock()
	return len(m.subs[name])
}

// Dispatch delivers one event to every subscriber, synchronously and in
// registration order. Dispatch is serialized, so concurrent node completions
// emit whole events one at a time. Callback panics are recovered and logged;
// they never abort the flow.
func (m *Manager) Dispatch(ctx context.Context, name EventName, payload any) {
	m.regMu.RLock()
	cbs := m.subs[name]
	m.regMu.RUnlock()

	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	evt := Event{Name: name, Payload: payload, Timestamp: time.Now()}
	for _, cb := range cbs {
		m.invoke(ctx, cb, evt)
	}
}

// invoke runs a single callback with panic recovery.
func (m *Manager) invoke(ctx context.Context, cb Callback, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			logger := ctxlog.FromContext(ctx)
			logger.Error("Hook callback panicked.",
				"event", string(evt.Name),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(ctx, evt)
}
