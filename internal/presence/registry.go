package presence

import "sync"

// Registry tracks which connections are currently viewing which thread.
// Membership is a set: joining twice has the effect of once, leaving an
// unknown member is a no-op. Empty member sets are pruned.
type Registry struct {
	mu    sync.RWMutex
	rooms map[uint]map[string]struct{}
}

// NewRegistry constructs an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[uint]map[string]struct{})}
}

// Join adds the connection to the thread's member set and returns the new
// occupancy count.
func (r *Registry) Join(threadID uint, connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[threadID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[threadID] = members
	}
	members[connID] = struct{}{}

	return len(members)
}

// Leave removes the connection from the thread's member set if present and
// returns the new occupancy count.
func (r *Registry) Leave(threadID uint, connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[threadID]
	if !ok {
		return 0
	}

	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, threadID)
		return 0
	}

	return len(members)
}

// Occupancy reports how many connections are viewing the thread.
func (r *Registry) Occupancy(threadID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[threadID])
}
