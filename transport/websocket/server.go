package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

const shutdownTimeout = 5 * time.Second

type gameManager interface {
	Connect(connID, roomID string, requested entity.Role) error
	Move(connID string, row, col int) error
	Reset(connID string) error
	Disconnect(connID string)
	Reject(connID string, err error) error
}

type Server struct {
	logger      *slog.Logger
	gameManager gameManager
	hub         *Hub
	conf        config.WebSocket
	upgrader    websocket.Upgrader

	handlers map[string]func(connID string, message *Message) error
}

func New(logger *slog.Logger, gameManager gameManager, hub *Hub, conf config.WebSocket) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameManager: gameManager,
		hub:         hub,
		conf:        conf,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]func(string, *Message) error),
	}

	server.handlers[actionJoin] = server.handleJoin
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionReset] = server.handleReset

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	return mux
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWS - upgrades the connection and serves it until the peer goes away.
func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(pkg.GenerateConnectionID(), ws, that.conf.SendBuffer)
	that.hub.register(c)

	log.Info("WebSocket connection established", "connID", c.id)

	go that.hub.writePump(c, that.conf.WriteWait, that.pingPeriod())

	that.readPump(c)

	that.gameManager.Disconnect(c.id)
	that.hub.unregister(c.id)
	c.close()

	log.Info("WebSocket connection closed", "connID", c.id)
}

// readPump - processes messages from the client in arrival order.
func (that *Server) readPump(c *client) {
	log := that.logger.With("method", "readPump", "connID", c.id)

	c.ws.SetReadLimit(that.conf.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(that.conf.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(that.conf.PongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			_ = that.gameManager.Reject(c.id, fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err))
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			_ = that.gameManager.Reject(c.id, fmt.Errorf("%w: unknown action %q", apperror.ErrInvalidPayload, message.Action))
			continue
		}

		if err = handler(c.id, &message); err != nil {
			log.Debug("action rejected", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) pingPeriod() time.Duration {
	return that.conf.PongWait * 9 / 10
}
