// Package rooms tracks which room each live connection is joined to.
package rooms

import "sync"

// Registry maps room names to the set of connection ids currently joined.
// Rooms are plain string labels: the first join to an unknown room creates
// it, and a room with no members simply disappears from the map.
//
// Invariant: a connection id appears in at most one room's set at any time.
type Registry struct {
	rooms   map[string]map[string]bool // room -> set of connection ids
	current map[string]string          // connection id -> room
	mu      sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]map[string]bool),
		current: make(map[string]string),
	}
}

// Join moves connID into room, implicitly leaving any room it previously
// belonged to. Repeated joins to the same room are a no-op.
func (r *Registry) Join(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.current[connID]; ok {
		if prev == room {
			return
		}
		r.remove(connID, prev)
	}

	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(map[string]bool)
	}
	r.rooms[room][connID] = true
	r.current[connID] = room
}

// Leave removes connID from whatever room it is in. No-op if it is in none.
func (r *Registry) Leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.current[connID]; ok {
		r.remove(connID, room)
	}
}

// remove deletes connID from room's set. Caller must hold the write lock.
func (r *Registry) remove(connID, room string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	delete(r.current, connID)
}

// MembersOf returns the connection ids currently joined to room.
func (r *Registry) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.rooms[room]))
	for id := range r.rooms[room] {
		members = append(members, id)
	}
	return members
}

// RoomOf returns the room connID is joined to, or "" if it is in none.
func (r *Registry) RoomOf(connID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current[connID]
}
