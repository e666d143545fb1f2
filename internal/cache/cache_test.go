package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgridgo/internal/artifact"
	"github.com/zclconf/go-cty/cty"
)

func entry(key, node string, v cty.Value) *Entry {
	return &Entry{
		Key:       key,
		NodeName:  node,
		Duration:  25 * time.Millisecond,
		CreatedAt: time.Now(),
		Artifact: &artifact.Artifact{
			Name:        node,
			Fingerprint: key,
			Value:       v,
			ProducedBy:  node,
			CreatedAt:   time.Now(),
		},
	}
}

func TestMemoryStore(t *testing.T) {
	t.Run("miss then hit", func(t *testing.T) {
		s := NewMemoryStore()
		_, ok, err := s.Get("k")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Put(entry("k", "load", cty.StringVal("v"))))
		e, ok, err := s.Get("k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "load", e.NodeName)
	})

	t.Run("entries are immutable", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Put(entry("k", "first", cty.True)))
		require.NoError(t, s.Put(entry("k", "second", cty.False)))

		e, ok, err := s.Get("k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "first", e.NodeName)
		assert.Equal(t, 1, s.Len())
	})
}

func TestMemoizerDo(t *testing.T) {
	t.Run("miss computes and caches", func(t *testing.T) {
		m := NewMemoizer(NewMemoryStore())
		var calls int
		e, hit, err := m.Do(context.Background(), "k", func() (*Entry, error) {
			calls++
			return entry("k", "load", cty.True), nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, 1, calls)
		assert.Equal(t, "load", e.NodeName)

		_, hit, err = m.Do(context.Background(), "k", func() (*Entry, error) {
			calls++
			return nil, errors.New("must not run")
		})
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, 1, calls)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		m := NewMemoizer(NewMemoryStore())
		boom := errors.New("boom")

		_, _, err := m.Do(context.Background(), "k", func() (*Entry, error) {
			return nil, boom
		})
		require.ErrorIs(t, err, boom)

		e, hit, err := m.Do(context.Background(), "k", func() (*Entry, error) {
			return entry("k", "retry", cty.True), nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, "retry", e.NodeName)
	})

	t.Run("concurrent callers execute at most once", func(t *testing.T) {
		m := NewMemoizer(NewMemoryStore())
		var computations atomic.Int32
		release := make(chan struct{})

		const callers = 50
		var wg sync.WaitGroup
		hits := make([]bool, callers)
		errs := make([]error, callers)

		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, hit, err := m.Do(context.Background(), "shared", func() (*Entry, error) {
					computations.Add(1)
					<-release
					return entry("shared", "load", cty.True), nil
				})
				hits[i] = hit
				errs[i] = err
			}(i)
		}

		// Let the goroutines pile up behind the single computation.
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), computations.Load())
		misses := 0
		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			if !hits[i] {
				misses++
			}
		}
		assert.Equal(t, 1, misses, "exactly one caller pays for the computation")
	})
}

// flakyStore fails every operation, standing in for a broken backend.
type flakyStore struct{}

func (flakyStore) Get(string) (*Entry, bool, error) { return nil, false, fmt.Errorf("backend down") }
func (flakyStore) Put(*Entry) error                 { return fmt.Errorf("backend down") }

func TestMemoizerDegradesToMiss(t *testing.T) {
	m := NewMemoizer(flakyStore{})

	var calls int
	e, hit, err := m.Do(context.Background(), "k", func() (*Entry, error) {
		calls++
		return entry("k", "load", cty.True), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "load", e.NodeName)

	// The broken backend cannot serve hits, so the next call recomputes.
	_, hit, err = m.Do(context.Background(), "k", func() (*Entry, error) {
		calls++
		return entry("k", "load", cty.True), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
}
