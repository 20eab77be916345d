package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// client is one accepted socket. Everything written to it goes through send
// so that a single goroutine owns the write side.
type client struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, ws *websocket.Conn, buffer int) *client {
	return &client{
		id:   id,
		ws:   ws,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// close stops the writer and unblocks the reader. Safe to call more than once.
func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
		_ = that.ws.Close()
	})
}

// Hub delivers events to live connections by id.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "hub"),
		clients: make(map[string]*client),
	}
}

func (that *Hub) register(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[c.id] = c
}

func (that *Hub) unregister(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.clients, id)
}

// Len returns the number of live connections.
func (that *Hub) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients)
}

// Send enqueues event for connID without blocking. A connection whose queue
// is full is closed.
func (that *Hub) Send(connID string, event entity.Event) {
	log := that.logger.With("method", "Send", "connID", connID, "event", event.Name)

	that.mu.RLock()
	c, ok := that.clients[connID]
	that.mu.RUnlock()

	if !ok {
		log.Debug("connection is gone, dropping event")
		return
	}

	data, err := encodeEvent(event)
	if err != nil {
		log.Error("failed to encode event", "error", err)
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
		log.Warn("send queue is full, closing connection")
		c.close()
	}
}

// writePump drains the send queue and keeps the peer alive with pings.
func (that *Hub) writePump(c *client, writeWait, pingPeriod time.Duration) {
	log := that.logger.With("method", "writePump", "connID", c.id)

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("failed to write ping", "error", err)
				return
			}
		}
	}
}
