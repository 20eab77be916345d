package apperror

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotInRoom      = errors.New("connection is not in a room")
	ErrAlreadyInRoom  = errors.New("connection already joined a room")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrInvalidCell    = errors.New("invalid cell index")
	ErrGameFinished   = errors.New("game is already finished")
	ErrInvalidPayload = errors.New("invalid payload")
)
