// Package mirror pushes read-only siege snapshots to remote observers
// over websockets. Observers receive an eventually-consistent, one-way
// feed; they never write back.
package mirror

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/siegewar/perfctl/internal/logger"
	"github.com/siegewar/perfctl/internal/siege"
)

const (
	sendBuffer      = 16
	broadcastBuffer = 64
	writeWait       = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Client represents an active observer connection.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of connected observers and fans snapshots out
// to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run handles client connections and broadcasts until the context is
// cancelled. Once it returns, registrations are refused.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			logger.Info().Msg("Mirror hub shutting down")

			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Info().Msg("Mirror observer connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				logger.Info().Msg("Mirror observer disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast serializes a snapshot and queues it for all observers.
// Never blocks the caller; the oldest pending snapshot is dropped if
// the hub falls behind.
func (h *Hub) Broadcast(snapshot siege.Snapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to serialize snapshot for mirror broadcast")

		return
	}

	select {
	case h.broadcast <- payload:
	default:
		select {
		case <-h.broadcast:
		default:
		}
		select {
		case h.broadcast <- payload:
		default:
		}
	}
}

// ServeWS upgrades an HTTP request to an observer connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to upgrade mirror connection")

		return
	}

	client := &Client{conn: conn, send: make(chan []byte, sendBuffer)}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()

		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}

	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames; observers are read-only. It exists
// to detect closed connections.
func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
