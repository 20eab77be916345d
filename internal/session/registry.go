package session

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

// Registry maps connection ids to the room they joined, and rooms back to
// their connections.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]string
	byRoom map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]string),
		byRoom: make(map[string]map[string]struct{}),
	}
}

// Bind records that connID joined roomID. A connection belongs to at most one room.
func (that *Registry) Bind(connID, roomID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.rooms[connID]; ok {
		return fmt.Errorf("%w: %s", apperror.ErrAlreadyInRoom, current)
	}

	that.rooms[connID] = roomID

	conns, ok := that.byRoom[roomID]
	if !ok {
		conns = make(map[string]struct{})
		that.byRoom[roomID] = conns
	}
	conns[connID] = struct{}{}

	return nil
}

func (that *Registry) Lookup(connID string) (string, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	roomID, ok := that.rooms[connID]
	return roomID, ok
}

// Unbind forgets connID. Unknown connections are a no-op.
func (that *Registry) Unbind(connID string) (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	roomID, ok := that.rooms[connID]
	if !ok {
		return "", false
	}

	delete(that.rooms, connID)

	if conns, exists := that.byRoom[roomID]; exists {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(that.byRoom, roomID)
		}
	}

	return roomID, true
}

// CountIn returns how many connections are bound to roomID.
func (that *Registry) CountIn(roomID string) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.byRoom[roomID])
}
