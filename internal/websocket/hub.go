// Package websocket pushes movie list state events to signed-in clients.
// Each connection belongs to one user and only receives that user's events,
// except for Broadcast which reaches everyone.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/popcorn/popcorn/internal/auth"
	"github.com/popcorn/popcorn/internal/movielist"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer = 256
)

// Message types handled or produced by the hub itself.
const (
	TypePing = "ping"
	TypePong = "pong"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope of every frame sent to clients.
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
}

type outgoing struct {
	userID string // empty means every client
	data   []byte
}

type incomingMessage struct {
	client  *Client
	message []byte
}

// Client is one websocket connection.
type Client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub manages connections and fans messages out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outgoing
	register   chan *Client
	unregister chan *Client
	incoming   chan incomingMessage
	done       chan struct{}
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// NewHub creates a hub. Call Run before serving connections.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outgoing, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan incomingMessage, sendBuffer),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

// Run is the hub's main loop. It returns when ctx is canceled, closing every
// client's send channel on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug().Str("userId", client.userID).Msg("Client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug().Str("userId", client.userID).Msg("Client disconnected")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if msg.userID != "" && client.userID != msg.userID {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer; drop it rather than stall everyone else.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case in := <-h.incoming:
			h.handleIncoming(in)
		}
	}
}

func (h *Hub) handleIncoming(in incomingMessage) {
	var msg Message
	if err := json.Unmarshal(in.message, &msg); err != nil {
		return
	}

	switch msg.Type {
	case TypePing:
		data, err := encode(TypePong, msg.Payload)
		if err != nil {
			return
		}
		h.mu.RLock()
		_, ok := h.clients[in.client]
		h.mu.RUnlock()
		if !ok {
			return
		}
		select {
		case in.client.send <- data:
		default:
		}
	}
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Hub) enqueue(userID, msgType string, payload interface{}) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- outgoing{userID: userID, data: data}:
	default:
		h.logger.Warn().Str("type", msgType).Str("userId", userID).Msg("Broadcast queue full, dropping message")
	}
	return nil
}

// Broadcast sends a message to every connected client.
func (h *Hub) Broadcast(msgType string, payload interface{}) error {
	return h.enqueue("", msgType, payload)
}

// BroadcastTo sends a message to every connection of one user.
func (h *Hub) BroadcastTo(userID, msgType string, payload interface{}) error {
	return h.enqueue(userID, msgType, payload)
}

// ForUser returns a list event sink that delivers to userID's connections.
func (h *Hub) ForUser(userID string) movielist.Broadcaster {
	return userBroadcaster{hub: h, userID: userID}
}

type userBroadcaster struct {
	hub    *Hub
	userID string
}

func (b userBroadcaster) Broadcast(msgType string, payload interface{}) {
	if err := b.hub.BroadcastTo(b.userID, msgType, payload); err != nil {
		b.hub.logger.Error().Err(err).Str("type", msgType).Msg("Failed to encode message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserClientCount returns the number of connections held by userID.
func (h *Hub) UserClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for client := range h.clients {
		if client.userID == userID {
			n++
		}
	}
	return n
}

// HandleWebSocket upgrades an authenticated request. The route must be
// behind auth.Middleware.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	userID := auth.UserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Str("userId", c.userID).Msg("Unexpected close")
			}
			return
		}

		select {
		case c.hub.incoming <- incomingMessage{client: c, message: message}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain whatever queued up meanwhile, one frame each.
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
