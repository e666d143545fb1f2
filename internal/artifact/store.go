package artifact

import (
	"fmt"
	"sync"
	"time"
)

// Store holds the artifacts of a single flow run, keyed by name. Writes are
// publish-once per name (single writer per name within a run); reads are safe
// once the producing node has completed.
type Store struct {
	mu        sync.RWMutex
	artifacts map[string]*Artifact
}

// NewStore creates an empty artifact store for one flow run.
func NewStore() *Store {
	return &Store{artifacts: make(map[string]*Artifact)}
}

// SeedRoot publishes an external root artifact before any node runs.
func (s *Store) SeedRoot(a *Artifact) error {
	return s.Publish(a)
}

// Publish stores an artifact under its name. Publishing a name twice within
// a run is a programming error in the engine and is rejected.
func (s *Store) Publish(a *Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artifacts[a.Name]; ok {
		return fmt.Errorf("artifact %q already published", a.Name)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.artifacts[a.Name] = a
	return nil
}

// Get returns the artifact published under the given name.
func (s *Store) Get(name string) (*Artifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[name]
	return a, ok
}

// Resolve returns the artifacts for the given names, in the given order.
// Every name must already be published; the executor guarantees this by
// running nodes in dependency order.
func (s *Store) Resolve(names []string) ([]*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resolved := make([]*Artifact, 0, len(names))
	for _, name := range names {
		a, ok := s.artifacts[name]
		if !ok {
			return nil, fmt.Errorf("artifact %q not found", name)
		}
		resolved = append(resolved, a)
	}
	return resolved, nil
}

// Len returns the number of published artifacts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}
