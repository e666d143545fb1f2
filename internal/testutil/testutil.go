// Package testutil holds shared helpers for the engine's tests.
package testutil

import (
	"bytes"
	"context"
	"sync"

	"github.com/vk/flowgridgo/internal/hooks"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// RecordedEvent is one event observed by a Recorder.
type RecordedEvent struct {
	Name    hooks.EventName
	Payload any
}

// Recorder captures dispatched lifecycle events in order.
type Recorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

// Subscribe attaches the recorder to every lifecycle event.
func (r *Recorder) Subscribe(h *hooks.Manager) {
	for _, name := range []hooks.EventName{
		hooks.BeforeFlow, hooks.AfterFlow,
		hooks.BeforeNode, hooks.AfterNode,
		hooks.CacheHit,
	} {
		h.Register(name, r.callback)
	}
}

func (r *Recorder) callback(_ context.Context, e hooks.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{Name: e.Name, Payload: e.Payload})
}

// Events returns a copy of the recorded events in dispatch order.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns just the event names in dispatch order.
func (r *Recorder) Names() []hooks.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]hooks.EventName, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}
