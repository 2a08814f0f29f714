package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shelfimport/internal/module"
)

func TestSetDefault_KeepsFirstModule(t *testing.T) {
	t.Parallel()

	r := New()
	first := module.New("pkg")
	second := module.New("pkg")

	got, stored := r.SetDefault(first)
	require.True(t, stored)
	require.Same(t, first, got)

	got, stored = r.SetDefault(second)
	require.False(t, stored)
	require.Same(t, first, got, "an existing registration must win")

	m, ok := r.Get("pkg")
	require.True(t, ok)
	require.Same(t, first, m)
}

func TestDeleteAndNames(t *testing.T) {
	t.Parallel()

	r := New()
	for _, name := range []string{"b", "a.x", "a"} {
		r.SetDefault(module.New(name))
	}
	assert.Equal(t, []string{"a", "a.x", "b"}, r.Names())
	assert.Equal(t, 3, r.Len())

	r.Delete("a.x")
	_, ok := r.Get("a.x")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, r.Names())
}

// TestRegistry_ConcurrentAccess verifies that racing registrations of the same
// name always converge on a single module.
func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := New()
	numGoroutines := 100
	results := make([]*module.Module, numGoroutines)
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.SetDefault(module.New("shared"))
			r.SetDefault(module.New(fmt.Sprintf("unique.%d", i)))
		}(i)
	}
	wg.Wait()

	for i := 1; i < numGoroutines; i++ {
		require.Same(t, results[0], results[i], "goroutine %d saw a different module", i)
	}
	assert.Equal(t, numGoroutines+1, r.Len())
}
