package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/room"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/session"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readTimeout = 2 * time.Second

type noopSnapshots struct{}

func (noopSnapshots) Publish(string, entity.Snapshot) {}
func (noopSnapshots) Delete(string)                   {}

type testEnv struct {
	manager *usecase.GameManager
	hub     *Hub
	url     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	hub := NewHub(logger)
	manager := usecase.NewGameManager(
		logger,
		room.NewDirectory(pkg.GenerateRoomID, time.Now),
		session.NewRegistry(),
		hub,
		noopSnapshots{},
		time.Now,
	)

	conf := config.WebSocket{
		WriteWait:      time.Second,
		PongWait:       time.Minute,
		MaxMessageSize: 512,
		SendBuffer:     16,
	}

	srv := httptest.NewServer(New(logger, manager, hub, conf).Handler())
	t.Cleanup(srv.Close)

	return &testEnv{
		manager: manager,
		hub:     hub,
		url:     "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

func (that *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(that.url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: raw}))
}

func receive(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func receiveActions(t *testing.T, conn *websocket.Conn, n int) []Message {
	t.Helper()

	messages := make([]Message, 0, n)
	for range n {
		messages = append(messages, receive(t, conn))
	}

	return messages
}

func actions(messages []Message) []string {
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		out = append(out, msg.Action)
	}
	return out
}

type wireState struct {
	Board         [3][3]string `json:"board"`
	CurrentPlayer *string      `json:"current_player"`
	Winner        *string      `json:"winner"`
	Draw          bool         `json:"draw"`
}

func decodeState(t *testing.T, msg Message) wireState {
	t.Helper()

	require.Equal(t, entity.EventGameState, msg.Action)

	var state wireState
	require.NoError(t, json.Unmarshal(msg.Payload, &state))

	return state
}

func TestServer_Game(t *testing.T) {
	env := newTestEnv(t)
	roomID, _ := env.manager.CreateRoom(entity.RoleX)

	a := env.dial(t)
	b := env.dial(t)

	// Given: A joins as X
	send(t, a, actionJoin, JoinPayload{RoomID: roomID, Role: "X"})

	aJoin := receiveActions(t, a, 3)
	assert.Equal(t, []string{entity.EventPlayerAssignment, entity.EventWaitingForOpponent, entity.EventGameState}, actions(aJoin))
	assert.JSONEq(t, `{"role":"X"}`, string(aJoin[0].Payload))
	assert.JSONEq(t, `{"message":"Waiting for your opponent..."}`, string(aJoin[1].Payload))

	// And: B joins with auto
	send(t, b, actionJoin, JoinPayload{RoomID: roomID, Role: "auto"})

	bJoin := receiveActions(t, b, 3)
	assert.Equal(t, []string{entity.EventPlayerAssignment, entity.EventStartGame, entity.EventGameState}, actions(bJoin))
	assert.JSONEq(t, `{"role":"O"}`, string(bJoin[0].Payload))
	assert.Equal(t, []string{entity.EventStartGame, entity.EventGameState}, actions(receiveActions(t, a, 2)))

	// When: A plays (0,0)
	send(t, a, actionMove, map[string]int{"row": 0, "col": 0})

	// Then: both see X in the corner and O to move
	for _, conn := range []*websocket.Conn{a, b} {
		state := decodeState(t, receive(t, conn))
		assert.Equal(t, "X", state.Board[0][0])
		require.NotNil(t, state.CurrentPlayer)
		assert.Equal(t, "O", *state.CurrentPlayer)
		assert.Nil(t, state.Winner)
	}

	// When: B tries the same cell
	send(t, b, actionMove, map[string]int{"row": 0, "col": 0})

	// Then: only B hears about it
	rejected := receive(t, b)
	assert.Equal(t, entity.EventError, rejected.Action)
	assert.JSONEq(t, `{"message":"Cell occupied! Choose another."}`, string(rejected.Payload))

	// When: B resets
	send(t, b, actionReset, struct{}{})

	// Then: A's next message is the fresh board, proving it never saw B's error
	state := decodeState(t, receive(t, a))
	assert.Equal(t, [3][3]string{}, state.Board)
	require.NotNil(t, state.CurrentPlayer)
	assert.Equal(t, "X", *state.CurrentPlayer)
	decodeState(t, receive(t, b))

	// When: A disconnects
	require.NoError(t, a.Close())

	// Then: B is told that X left
	left := receive(t, b)
	assert.Equal(t, entity.EventPlayerLeft, left.Action)
	assert.JSONEq(t, `{"role":"X"}`, string(left.Payload))
}

func TestServer_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		message string
	}{
		{name: "not json", raw: `{{`, message: usecase.MessageBadPayload},
		{name: "unknown action", raw: `{"action":"dance","payload":{}}`, message: usecase.MessageBadPayload},
		{name: "move without coordinates", raw: `{"action":"move","payload":{"row":1}}`, message: usecase.MessageBadPayload},
		{name: "move before join", raw: `{"action":"move","payload":{"row":1,"col":1}}`, message: usecase.MessageInvalidRoom},
		{name: "join unknown room", raw: `{"action":"join","payload":{"room_id":"nope","role":"X"}}`, message: usecase.MessageInvalidRoom},
		{name: "reset before join", raw: `{"action":"reset_game"}`, message: usecase.MessageInvalidRoom},
	}

	env := newTestEnv(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := env.dial(t)

			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.raw)))

			msg := receive(t, conn)
			assert.Equal(t, entity.EventError, msg.Action)

			var payload entity.MessagePayload
			require.NoError(t, json.Unmarshal(msg.Payload, &payload))
			assert.Equal(t, tt.message, payload.Message)
		})
	}
}

func TestHub_Send(t *testing.T) {
	t.Run("Unknown connection is ignored", func(t *testing.T) {
		hub := NewHub(slog.New(slog.NewJSONHandler(io.Discard, nil)))

		assert.NotPanics(t, func() {
			hub.Send("ghost", entity.NewErrorEvent("x"))
		})
	})

	t.Run("Closed connections are unregistered", func(t *testing.T) {
		env := newTestEnv(t)

		conn := env.dial(t)
		require.Eventually(t, func() bool { return env.hub.Len() == 1 }, readTimeout, 10*time.Millisecond)

		require.NoError(t, conn.Close())

		require.Eventually(t, func() bool { return env.hub.Len() == 0 }, readTimeout, 10*time.Millisecond)
	})
}
