package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/room"
)

const (
	messageInvalidGameID  = "Invalid game ID. Please try again."
	messageInvalidPayload = "Invalid payload."
	messageInternal       = "Internal Server Error"
)

type createRoomRequest struct {
	Role string `json:"role"`
}

type createRoomResponse struct {
	RoomID string      `json:"room_id"`
	Role   entity.Role `json:"role"`
}

type roomResponse struct {
	RoomID string      `json:"room_id"`
	Status room.Status `json:"status"`
	Role   entity.Role `json:"role"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, messageInternal, http.StatusInternalServerError)
		return
	}
}

// handleCreateRoom accepts an empty body as a request for auto.
func (that *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: messageInvalidPayload})
		return
	}

	roomID, role := that.rooms.CreateRoom(entity.ParseRequestedRole(req.Role))

	that.writeJSON(w, http.StatusCreated, createRoomResponse{RoomID: roomID, Role: role})
}

// handleGetRoom validates a room id before a client opens a socket for it.
func (that *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	status, err := that.rooms.RoomStatus(roomID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, roomResponse{RoomID: roomID, Status: status, Role: entity.RoleAuto})
}

func (that *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snapshot, err := that.snapshots.GetSnapshot(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, snapshot)
}

func (that *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, apperror.ErrRoomNotFound) {
		that.writeJSON(w, http.StatusNotFound, errorResponse{Error: messageInvalidGameID})
		return
	}

	that.logger.Error("request failed", "error", err)
	that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: messageInternal})
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
