package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/room"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/session"
)

const (
	MessageCellOccupied = "Cell occupied! Choose another."
	MessageNotYourTurn  = "Not your turn or invalid player."
	MessageInvalidRoom  = "Invalid room or not in a game."
	MessageInvalidMove  = "Invalid move."
	MessageAlreadyIn    = "Already joined a room."
	MessageBadPayload   = "Invalid payload."
	MessageInternal     = "Something went wrong."
)

// notifier delivers an event to one connection. Send must not block.
type notifier interface {
	Send(connID string, event entity.Event)
}

// snapshotPublisher mirrors room state to the read model. Both methods must not block.
type snapshotPublisher interface {
	Publish(roomID string, snapshot entity.Snapshot)
	Delete(roomID string)
}

// GameManager turns inbound connection events into room mutations and the
// resulting outbound events. Every mutation and the events it produces happen
// under the room's lock, so members observe the same order of states.
type GameManager struct {
	logger *slog.Logger

	rooms     *room.Directory
	sessions  *session.Registry
	notifier  notifier
	snapshots snapshotPublisher

	now func() time.Time
}

func NewGameManager(
	logger *slog.Logger,
	rooms *room.Directory,
	sessions *session.Registry,
	notifier notifier,
	snapshots snapshotPublisher,
	now func() time.Time,
) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		rooms:     rooms,
		sessions:  sessions,
		notifier:  notifier,
		snapshots: snapshots,

		now: now,
	}
}

// CreateRoom registers an empty room and echoes back the role the creator asked for.
func (that *GameManager) CreateRoom(requested entity.Role) (string, entity.Role) {
	rm := that.rooms.Create()

	rm.Lock()
	that.snapshots.Publish(rm.ID, rm.Snapshot())
	rm.Unlock()

	that.logger.Info("room created", "roomID", rm.ID, "role", requested)

	return rm.ID, requested
}

// RoomStatus reports whether the room exists and in which phase it is.
func (that *GameManager) RoomStatus(roomID string) (room.Status, error) {
	rm, err := that.getRoom(roomID)
	if err != nil {
		return "", err
	}

	rm.Lock()
	defer rm.Unlock()

	if rm.IsClosed() {
		return "", fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	return rm.Status(), nil
}

// Connect admits connID into roomID with the requested role preference.
func (that *GameManager) Connect(connID, roomID string, requested entity.Role) error {
	log := that.logger.With("method", "Connect", "connID", connID, "roomID", roomID)

	rm, err := that.getRoom(roomID)
	if err != nil {
		return that.reject(connID, err)
	}

	rm.Lock()
	defer rm.Unlock()

	if err = that.sessions.Bind(connID, roomID); err != nil {
		return that.reject(connID, err)
	}

	assignment, err := rm.Join(connID, requested, that.now())
	if err != nil {
		that.sessions.Unbind(connID)
		return that.reject(connID, err)
	}

	log.Info("connection joined", "role", assignment.Role)

	that.notifier.Send(connID, entity.NewAssignmentEvent(assignment.Role))

	switch {
	case assignment.Waiting:
		that.broadcast(rm, entity.NewMessageEvent(entity.EventWaitingForOpponent, entity.MessageWaitingForOpponent))
	case assignment.Started:
		that.broadcast(rm, entity.NewMessageEvent(entity.EventStartGame, entity.MessageGameStarts))
	}

	that.publishState(rm)

	return nil
}

// Move plays (row, col) on behalf of connID.
func (that *GameManager) Move(connID string, row, col int) error {
	rm, err := that.roomOf(connID)
	if err != nil {
		return that.reject(connID, err)
	}

	rm.Lock()
	defer rm.Unlock()

	if rm.IsClosed() {
		return that.reject(connID, apperror.ErrRoomNotFound)
	}

	if err = rm.Move(connID, row, col, that.now()); err != nil {
		return that.reject(connID, err)
	}

	that.publishState(rm)

	return nil
}

// Reset starts a new round. Any member of the room may request it.
func (that *GameManager) Reset(connID string) error {
	rm, err := that.roomOf(connID)
	if err != nil {
		return that.reject(connID, err)
	}

	rm.Lock()
	defer rm.Unlock()

	if _, ok := rm.RoleOf(connID); !ok || rm.IsClosed() {
		return that.reject(connID, apperror.ErrNotInRoom)
	}

	rm.Reset(that.now())

	that.logger.Info("room reset", "roomID", rm.ID, "connID", connID)

	that.publishState(rm)

	return nil
}

// Disconnect forgets connID. Connections that never joined are ignored.
func (that *GameManager) Disconnect(connID string) {
	roomID, ok := that.sessions.Lookup(connID)
	if !ok {
		return
	}

	rm, ok := that.rooms.Get(roomID)
	if !ok {
		that.sessions.Unbind(connID)
		return
	}

	rm.Lock()
	defer rm.Unlock()

	that.sessions.Unbind(connID)

	role, left := rm.Leave(connID, that.now())
	if !left {
		return
	}

	that.logger.Info("connection left", "roomID", roomID, "connID", connID, "role", role)

	if role.IsPlayer() {
		that.broadcast(rm, entity.NewPlayerLeftEvent(role))
	}
}

// RunJanitor removes rooms that stayed empty for longer than idle. It blocks
// until ctx is done.
func (that *GameManager) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	log := that.logger.With("method", "RunJanitor")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			that.sweep(log, idle)
		}
	}
}

func (that *GameManager) sweep(log *slog.Logger, idle time.Duration) {
	inUse := func(roomID string) bool {
		return that.sessions.CountIn(roomID) > 0
	}

	for _, roomID := range that.rooms.Sweep(idle, inUse) {
		that.snapshots.Delete(roomID)
		log.Info("idle room removed", "roomID", roomID)
	}
}

// ErrorMessage maps a rejection to the text shown to the client.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperror.ErrCellOccupied):
		return MessageCellOccupied
	case errors.Is(err, apperror.ErrNotYourTurn):
		return MessageNotYourTurn
	case errors.Is(err, apperror.ErrRoomNotFound), errors.Is(err, apperror.ErrNotInRoom):
		return MessageInvalidRoom
	case errors.Is(err, apperror.ErrGameFinished), errors.Is(err, apperror.ErrInvalidCell):
		return MessageInvalidMove
	case errors.Is(err, apperror.ErrAlreadyInRoom):
		return MessageAlreadyIn
	case errors.Is(err, apperror.ErrInvalidPayload):
		return MessageBadPayload
	default:
		return MessageInternal
	}
}

// Reject sends the client-facing form of err to connID and returns err.
func (that *GameManager) Reject(connID string, err error) error {
	return that.reject(connID, err)
}

func (that *GameManager) reject(connID string, err error) error {
	that.logger.Debug("action rejected", "connID", connID, "error", err)

	that.notifier.Send(connID, entity.NewErrorEvent(ErrorMessage(err)))

	return err
}

func (that *GameManager) getRoom(roomID string) (*room.Room, error) {
	rm, ok := that.rooms.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	return rm, nil
}

func (that *GameManager) roomOf(connID string) (*room.Room, error) {
	roomID, ok := that.sessions.Lookup(connID)
	if !ok {
		return nil, apperror.ErrNotInRoom
	}

	return that.getRoom(roomID)
}

// publishState broadcasts the current snapshot and mirrors it. Callers hold the room lock.
func (that *GameManager) publishState(rm *room.Room) {
	snapshot := rm.Snapshot()

	that.broadcast(rm, entity.NewGameStateEvent(snapshot))
	that.snapshots.Publish(rm.ID, snapshot)
}

func (that *GameManager) broadcast(rm *room.Room, event entity.Event) {
	for _, connID := range rm.Members() {
		that.notifier.Send(connID, event)
	}
}
