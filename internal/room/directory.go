package room

import (
	"sync"
	"time"
)

// Directory owns every live room of the process.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	newID func() string
	now   func() time.Time
}

func NewDirectory(newID func() string, now func() time.Time) *Directory {
	return &Directory{
		rooms: make(map[string]*Room),
		newID: newID,
		now:   now,
	}
}

// Create registers a room under a freshly generated id.
func (that *Directory) Create() *Room {
	that.mu.Lock()
	defer that.mu.Unlock()

	var id string
	for {
		id = that.newID()
		if _, exists := that.rooms[id]; !exists {
			break
		}
	}

	rm := NewRoom(id, that.now())
	that.rooms[id] = rm

	return rm
}

// Get returns false for unknown ids.
func (that *Directory) Get(id string) (*Room, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	rm, ok := that.rooms[id]
	return rm, ok
}

func (that *Directory) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

// Sweep removes rooms that have had no connections for longer than idle and
// returns their ids. Removed rooms are closed so stale references refuse
// joins. inUse reports connections still bound to a room outside of it; it
// is called with the room locked.
func (that *Directory) Sweep(idle time.Duration, inUse func(roomID string) bool) []string {
	that.mu.RLock()
	candidates := make([]*Room, 0, len(that.rooms))
	for _, rm := range that.rooms {
		candidates = append(candidates, rm)
	}
	that.mu.RUnlock()

	cutoff := that.now().Add(-idle)

	var removed []string
	for _, rm := range candidates {
		rm.Lock()
		expired := !rm.closed && rm.IsEmpty() && rm.lastActivity.Before(cutoff) && !inUse(rm.ID)
		if expired {
			rm.close()
		}
		rm.Unlock()

		if !expired {
			continue
		}

		that.mu.Lock()
		if that.rooms[rm.ID] == rm {
			delete(that.rooms, rm.ID)
		}
		that.mu.Unlock()

		removed = append(removed, rm.ID)
	}

	return removed
}
