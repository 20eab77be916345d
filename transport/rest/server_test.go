package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRoomManager struct {
	mock.Mock
}

func (m *mockRoomManager) CreateRoom(requested entity.Role) (string, entity.Role) {
	args := m.Called(requested)
	return args.String(0), args.Get(1).(entity.Role)
}

func (m *mockRoomManager) RoomStatus(roomID string) (room.Status, error) {
	args := m.Called(roomID)
	return args.Get(0).(room.Status), args.Error(1)
}

type mockSnapshotReader struct {
	mock.Mock
}

func (m *mockSnapshotReader) GetSnapshot(ctx context.Context, roomID string) (entity.Snapshot, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(entity.Snapshot), args.Error(1)
}

func newTestServer(rooms *mockRoomManager, snapshots *mockSnapshotReader) *Server {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return New(logger, rooms, snapshots, []string{"*"})
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	return rec
}

func TestServer_Ping(t *testing.T) {
	srv := newTestServer(new(mockRoomManager), new(mockSnapshotReader))

	rec := do(t, srv, http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_CreateRoom(t *testing.T) {
	tests := []struct {
		name string
		body string
		want entity.Role
	}{
		{name: "explicit role", body: `{"role":"O"}`, want: entity.RoleO},
		{name: "unknown role falls back to auto", body: `{"role":"Z"}`, want: entity.RoleAuto},
		{name: "empty body", body: ``, want: entity.RoleAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms := new(mockRoomManager)
			rooms.On("CreateRoom", tt.want).Return("r1", tt.want).Once()
			srv := newTestServer(rooms, new(mockSnapshotReader))

			rec := do(t, srv, http.MethodPost, "/rooms", tt.body)

			require.Equal(t, http.StatusCreated, rec.Code)

			var resp createRoomResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, createRoomResponse{RoomID: "r1", Role: tt.want}, resp)
			rooms.AssertExpectations(t)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		rooms := new(mockRoomManager)
		srv := newTestServer(rooms, new(mockSnapshotReader))

		rec := do(t, srv, http.MethodPost, "/rooms", `{"role":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid payload."}`, rec.Body.String())
		rooms.AssertNotCalled(t, "CreateRoom", mock.Anything)
	})
}

func TestServer_GetRoom(t *testing.T) {
	t.Run("Known room", func(t *testing.T) {
		rooms := new(mockRoomManager)
		rooms.On("RoomStatus", "r1").Return(room.StatusWaiting, nil)
		srv := newTestServer(rooms, new(mockSnapshotReader))

		rec := do(t, srv, http.MethodGet, "/rooms/r1", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"room_id":"r1","status":"waiting","role":"auto"}`, rec.Body.String())
	})

	t.Run("Unknown room", func(t *testing.T) {
		rooms := new(mockRoomManager)
		rooms.On("RoomStatus", "nope").Return(room.Status(""), apperror.ErrRoomNotFound)
		srv := newTestServer(rooms, new(mockSnapshotReader))

		rec := do(t, srv, http.MethodGet, "/rooms/nope", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid game ID. Please try again."}`, rec.Body.String())
	})
}

func TestServer_GetState(t *testing.T) {
	t.Run("Returns the mirrored snapshot", func(t *testing.T) {
		var board entity.Board
		board[2][2] = entity.RoleO

		snapshots := new(mockSnapshotReader)
		snapshots.On("GetSnapshot", mock.Anything, "r1").
			Return(entity.NewSnapshot(board, entity.RoleX, entity.EmptyCell), nil)
		srv := newTestServer(new(mockRoomManager), snapshots)

		rec := do(t, srv, http.MethodGet, "/rooms/r1/state", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"board":[["","",""],["","",""],["","","O"]],"current_player":"X","winner":null,"draw":false}`,
			rec.Body.String())
	})

	t.Run("Missing snapshot", func(t *testing.T) {
		snapshots := new(mockSnapshotReader)
		snapshots.On("GetSnapshot", mock.Anything, "r1").Return(entity.Snapshot{}, apperror.ErrRoomNotFound)
		srv := newTestServer(new(mockRoomManager), snapshots)

		rec := do(t, srv, http.MethodGet, "/rooms/r1/state", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Storage failure", func(t *testing.T) {
		snapshots := new(mockSnapshotReader)
		snapshots.On("GetSnapshot", mock.Anything, "r1").Return(entity.Snapshot{}, errors.New("redis down"))
		srv := newTestServer(new(mockRoomManager), snapshots)

		rec := do(t, srv, http.MethodGet, "/rooms/r1/state", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
