package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryJoinReturnsOccupancy(t *testing.T) {
	registry := NewRegistry()

	require.Equal(t, 1, registry.Join(1, "conn-a"))
	require.Equal(t, 2, registry.Join(1, "conn-b"))
	require.Equal(t, 2, registry.Occupancy(1))
}

func TestRegistryJoinIsIdempotent(t *testing.T) {
	registry := NewRegistry()

	require.Equal(t, 1, registry.Join(1, "conn-a"))
	require.Equal(t, 1, registry.Join(1, "conn-a"))
	require.Equal(t, 1, registry.Occupancy(1))

	// Membership is a set, not a multiset: one leave fully removes the
	// connection even after repeated joins.
	require.Equal(t, 0, registry.Leave(1, "conn-a"))
	require.Equal(t, 0, registry.Occupancy(1))
}

func TestRegistryLeaveUnknownMemberIsNoop(t *testing.T) {
	registry := NewRegistry()

	require.Equal(t, 0, registry.Leave(1, "conn-a"))

	registry.Join(1, "conn-a")
	require.Equal(t, 1, registry.Leave(1, "conn-b"))
	require.Equal(t, 1, registry.Occupancy(1))
}

func TestRegistryTracksThreadsIndependently(t *testing.T) {
	registry := NewRegistry()

	registry.Join(1, "conn-a")
	registry.Join(2, "conn-a")
	registry.Join(2, "conn-b")

	require.Equal(t, 1, registry.Occupancy(1))
	require.Equal(t, 2, registry.Occupancy(2))

	registry.Leave(2, "conn-a")
	require.Equal(t, 1, registry.Occupancy(1))
	require.Equal(t, 1, registry.Occupancy(2))
}

func TestRegistryConcurrentJoinLeave(t *testing.T) {
	registry := NewRegistry()

	const workers = 50
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := string(rune('a' + n%26))
			registry.Join(uint(n%3+1), connID)
			registry.Leave(uint(n%3+1), connID)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 0, registry.Occupancy(1))
	require.Equal(t, 0, registry.Occupancy(2))
	require.Equal(t, 0, registry.Occupancy(3))
}
