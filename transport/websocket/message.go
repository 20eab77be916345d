package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	actionJoin  = "join"
	actionMove  = "move"
	actionReset = "reset_game"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload is the admission message a client sends right after connecting.
type JoinPayload struct {
	RoomID string `json:"room_id"`
	Role   string `json:"role"`
}

type MovePayload struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

func encodeEvent(event entity.Event) ([]byte, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: event.Name, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

func decodePayload(msg *Message, target any) error {
	if len(msg.Payload) == 0 {
		return apperror.ErrInvalidPayload
	}

	if err := json.Unmarshal(msg.Payload, target); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)
	}

	return nil
}
