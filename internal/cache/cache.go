// Package cache provides process-wide memoization of node results, keyed by
// invocation fingerprint. The cache is shared across concurrent flow runs;
// the Memoizer layered on top guarantees at-most-one execution per key.
package cache

import (
	"sync"
	"time"

	"github.com/vk/flowgridgo/internal/artifact"
)

// Entry is one memoized node result. Entries are immutable once inserted;
// they are never overwritten by recomputation.
type Entry struct {
	Key       string
	Artifact  *artifact.Artifact
	NodeName  string
	Duration  time.Duration
	CreatedAt time.Time
}

// Store is a cache backend. Backends may be unbounded (the default memory
// store) or persistent; eviction policy is a backend concern, not part of
// the contract.
type Store interface {
	// Get returns the entry for the key, whether it was found, and any
	// backend error. A backend error is degradable: callers treat it as a
	// miss.
	Get(key string) (*Entry, bool, error)
	// Put inserts an entry. Inserting an existing key is a no-op.
	Put(e *Entry) error
}

// MemoryStore is the default unbounded in-memory backend.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get implements Store.
func (s *MemoryStore) Get(key string) (*Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

// Put implements Store.
func (s *MemoryStore) Put(e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.Key]; ok {
		return nil
	}
	s.entries[e.Key] = e
	return nil
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
