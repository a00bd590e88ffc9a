package realtime

import (
	"sync"
)

// Registry tracks which sessions are subscribed to which board room.
//
// Locking is two-level: the registry lock guards only the board-to-room map,
// and each room carries its own mutex guarding membership. Mutations on
// different boards therefore never contend, and no lock is ever held across
// network I/O — broadcast delivery iterates over a Snapshot copy.
type Registry struct {
	mu    sync.RWMutex
	rooms map[int64]*room
}

type room struct {
	mu       sync.Mutex
	sessions map[string]*Session
	// dead marks a room that has been emptied and unlinked from the
	// registry; a racing Add must not resurrect it.
	dead bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[int64]*room)}
}

// Add inserts a session into the room for boardID, creating the room if
// absent.
func (r *Registry) Add(boardID int64, s *Session) {
	for {
		r.mu.RLock()
		rm := r.rooms[boardID]
		r.mu.RUnlock()

		if rm == nil {
			r.mu.Lock()
			rm = r.rooms[boardID]
			if rm == nil {
				rm = &room{sessions: make(map[string]*Session)}
				r.rooms[boardID] = rm
			}
			r.mu.Unlock()
		}

		rm.mu.Lock()
		if rm.dead {
			// Lost the race against the last Remove; retry against a
			// fresh room.
			rm.mu.Unlock()
			continue
		}
		rm.sessions[s.Handle] = s
		rm.mu.Unlock()
		return
	}
}

// Remove deletes a session from its room. Removing a session that is not
// present is a no-op, tolerating double-teardown from racing failure paths.
// The room entry itself is deleted once its last session departs.
func (r *Registry) Remove(boardID int64, s *Session) {
	r.mu.RLock()
	rm := r.rooms[boardID]
	r.mu.RUnlock()
	if rm == nil {
		return
	}

	rm.mu.Lock()
	delete(rm.sessions, s.Handle)
	emptied := len(rm.sessions) == 0 && !rm.dead
	if emptied {
		rm.dead = true
	}
	rm.mu.Unlock()

	if emptied {
		r.mu.Lock()
		if r.rooms[boardID] == rm {
			delete(r.rooms, boardID)
		}
		r.mu.Unlock()
	}
}

// Snapshot returns a point-in-time copy of the room's membership. Delivery
// iteration works on this copy so it never races with concurrent Add/Remove.
// An unknown board yields an empty slice.
func (r *Registry) Snapshot(boardID int64) []*Session {
	r.mu.RLock()
	rm := r.rooms[boardID]
	r.mu.RUnlock()
	if rm == nil {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	sessions := make([]*Session, 0, len(rm.sessions))
	for _, s := range rm.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Count returns how many sessions are in a board's room.
func (r *Registry) Count(boardID int64) int {
	r.mu.RLock()
	rm := r.rooms[boardID]
	r.mu.RUnlock()
	if rm == nil {
		return 0
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.sessions)
}

// Rooms returns the number of active rooms.
func (r *Registry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
