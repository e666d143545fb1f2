package cache

import (
	"context"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"golang.org/x/sync/singleflight"
)

// ComputeFunc produces a cache entry for a key on a miss.
type ComputeFunc func() (*Entry, error)

// Memoizer layers the at-most-one-execution guarantee over a Store. For a
// given key, logically concurrent requests collapse into a single
// computation; the others block and then observe a hit. Backend errors
// degrade to misses rather than aborting the run.
type Memoizer struct {
	store Store
	group singleflight.Group
}

// NewMemoizer wraps a cache store.
func NewMemoizer(store Store) *Memoizer {
	return &Memoizer{store: store}
}

// flight is the singleflight result envelope.
type flight struct {
	entry     *Entry
	fromStore bool
}

// Do returns the entry for key, computing it at most once across concurrent
// callers. The returned hit flag is true when this caller did not pay for
// the computation: the entry came from the store, or another in-flight
// caller computed it. A compute failure is returned to every waiting caller
// and is never inserted into the store.
func (m *Memoizer) Do(ctx context.Context, key string, compute ComputeFunc) (*Entry, bool, error) {
	if e, ok := m.lookup(ctx, key); ok {
		return e, true, nil
	}

	executed := false
	v, err, _ := m.group.Do(key, func() (any, error) {
		executed = true

		// Double-check: another flight may have completed between our
		// lookup and joining the group.
		if e, ok := m.lookup(ctx, key); ok {
			return &flight{entry: e, fromStore: true}, nil
		}

		e, err := compute()
		if err != nil {
			return nil, err
		}
		m.insert(ctx, e)
		return &flight{entry: e}, nil
	})
	if err != nil {
		return nil, false, err
	}

	f := v.(*flight)
	hit := f.fromStore || !executed
	return f.entry, hit, nil
}

// lookup probes the store, degrading backend errors to misses.
func (m *Memoizer) lookup(ctx context.Context, key string) (*Entry, bool) {
	e, ok, err := m.store.Get(key)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Cache lookup failed, treating as miss.", "key", key, "error", err)
		return nil, false
	}
	return e, ok
}

// insert writes an entry to the store; a backend failure only costs future
// hits, never the run.
func (m *Memoizer) insert(ctx context.Context, e *Entry) {
	if err := m.store.Put(e); err != nil {
		ctxlog.FromContext(ctx).Warn("Cache insert failed.", "key", e.Key, "error", err)
	}
}
