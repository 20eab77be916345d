package websocket

import (
	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

func (that *Server) handleJoin(connID string, msg *Message) error {
	var payload JoinPayload
	if err := decodePayload(msg, &payload); err != nil {
		return that.gameManager.Reject(connID, err)
	}

	if payload.RoomID == "" {
		return that.gameManager.Reject(connID, apperror.ErrRoomNotFound)
	}

	return that.gameManager.Connect(connID, payload.RoomID, entity.ParseRequestedRole(payload.Role))
}

func (that *Server) handleMove(connID string, msg *Message) error {
	var payload MovePayload
	if err := decodePayload(msg, &payload); err != nil {
		return that.gameManager.Reject(connID, err)
	}

	if payload.Row == nil || payload.Col == nil {
		return that.gameManager.Reject(connID, apperror.ErrInvalidPayload)
	}

	return that.gameManager.Move(connID, *payload.Row, *payload.Col)
}

// handleReset ignores the payload.
func (that *Server) handleReset(connID string, _ *Message) error {
	return that.gameManager.Reset(connID)
}
