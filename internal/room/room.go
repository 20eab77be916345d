package room

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
)

// Slots binds the two active roles to connection ids; "" means free.
type Slots struct {
	X string
	O string
}

func (that Slots) Get(role entity.Role) string {
	if role == entity.RoleX {
		return that.X
	}
	return that.O
}

func (that *Slots) set(role entity.Role, connID string) {
	if role == entity.RoleX {
		that.X = connID
		return
	}
	that.O = connID
}

func (that Slots) Filled() int {
	filled := 0
	if that.X != "" {
		filled++
	}
	if that.O != "" {
		filled++
	}
	return filled
}

// Assignment describes the outcome of admitting a connection.
type Assignment struct {
	Role entity.Role
	// Waiting is set when the join left exactly one slot filled.
	Waiting bool
	// Started is set when the join filled the second slot.
	Started bool
}

// Room is one match. The embedded mutex guards everything below it and every
// method other than NewRoom expects the caller to hold it.
type Room struct {
	sync.Mutex

	ID string

	game         *tictactoe.Game
	status       Status
	slots        Slots
	firstPlayer  entity.Role
	players      map[string]entity.Role
	lastActivity time.Time
	closed       bool
}

func NewRoom(id string, now time.Time) *Room {
	return &Room{
		ID:           id,
		game:         tictactoe.NewGame(),
		status:       StatusWaiting,
		players:      make(map[string]entity.Role),
		lastActivity: now,
	}
}

// ChooseRole picks a role for a newcomer. It is a pure function of its inputs.
func ChooseRole(status Status, slots Slots, requested entity.Role) entity.Role {
	if status != StatusWaiting {
		return entity.RoleSpectator
	}

	switch requested {
	case entity.RoleX, entity.RoleO:
		if slots.Get(requested) == "" {
			return requested
		}
		if other := requested.Opponent(); slots.Get(other) == "" {
			return other
		}
	default:
		if slots.X == "" {
			return entity.RoleX
		}
		if slots.O == "" {
			return entity.RoleO
		}
	}

	return entity.RoleSpectator
}

// Join admits connID with the given role preference.
func (that *Room) Join(connID string, requested entity.Role, now time.Time) (Assignment, error) {
	if that.closed {
		return Assignment{}, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, that.ID)
	}

	if _, ok := that.players[connID]; ok {
		return Assignment{}, apperror.ErrAlreadyInRoom
	}

	that.lastActivity = now

	role := ChooseRole(that.status, that.slots, requested)
	that.players[connID] = role

	if !role.IsPlayer() {
		return Assignment{Role: role}, nil
	}

	that.slots.set(role, connID)

	assignment := Assignment{Role: role}

	switch that.slots.Filled() {
	case 1:
		that.firstPlayer = role
		that.game.CurrentPlayer = role
		assignment.Waiting = true
	case 2:
		that.status = StatusInProgress
		assignment.Started = true
	}

	return assignment, nil
}

// Move plays for connID after checking that it holds the current turn.
func (that *Room) Move(connID string, row, col int, now time.Time) error {
	role := that.players[connID]
	if !role.IsPlayer() || role != that.game.CurrentPlayer {
		return apperror.ErrNotYourTurn
	}

	if err := that.game.MakeMove(row, col); err != nil {
		return fmt.Errorf("failed make move: %w", err)
	}

	that.lastActivity = now

	return nil
}

// Reset starts a new round in place. Slots and status are kept and the turn
// returns to the recorded first player.
func (that *Room) Reset(now time.Time) {
	that.game.Reset(that.firstPlayer)
	that.lastActivity = now
}

// Leave forgets connID and frees its slot. The status never goes back to
// waiting and the first player record is kept.
func (that *Room) Leave(connID string, now time.Time) (entity.Role, bool) {
	role, ok := that.players[connID]
	if !ok {
		return "", false
	}

	delete(that.players, connID)

	if role.IsPlayer() && that.slots.Get(role) == connID {
		that.slots.set(role, "")
	}

	that.lastActivity = now

	return role, true
}

func (that *Room) Snapshot() entity.Snapshot {
	return that.game.Snapshot()
}

// Members returns the connection ids of the room in a stable order.
func (that *Room) Members() []string {
	members := make([]string, 0, len(that.players))
	for connID := range that.players {
		members = append(members, connID)
	}

	slices.Sort(members)

	return members
}

func (that *Room) RoleOf(connID string) (entity.Role, bool) {
	role, ok := that.players[connID]
	return role, ok
}

func (that *Room) Status() Status {
	return that.status
}

func (that *Room) Slots() Slots {
	return that.slots
}

func (that *Room) FirstPlayer() entity.Role {
	return that.firstPlayer
}

func (that *Room) IsEmpty() bool {
	return len(that.players) == 0
}

func (that *Room) IsClosed() bool {
	return that.closed
}

func (that *Room) close() {
	that.closed = true
}
