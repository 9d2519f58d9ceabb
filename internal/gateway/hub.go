// Package gateway owns the WebSocket surface: connection lifecycle, the
// room-scoped broadcast hub and the inbound event router.
package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tradepit/arena/internal/metrics"
	"github.com/tradepit/arena/internal/room"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	maxMessageSize = 4096
	sendBuffer     = 64
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is one WebSocket connection. Its id doubles as the player id for
// any room the connection creates or joins.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected clients and their room membership, and fans events
// out to rooms and individual players. It implements room.Broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // by connection id
	rooms   map[string]map[string]*Client // room id -> connection id -> client

	dir   *room.Directory
	sched *room.Scheduler
}

// NewHub creates an empty hub. Attach wires in the directory and scheduler
// once they exist (they need the hub as their broadcaster first).
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Attach binds the hub to the room directory and scheduler.
func (h *Hub) Attach(dir *room.Directory, sched *room.Scheduler) {
	h.dir = dir
	h.sched = sched
}

// ToRoom sends an event to every client in the room.
func (h *Hub) ToRoom(roomID, event string, payload any) {
	data, err := marshalEvent(event, payload)
	if err != nil {
		slog.Error("marshal broadcast failed", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[roomID] {
		c.enqueue(data)
	}
}

// ToPlayer sends an event to a single player's connection, if it is still
// online.
func (h *Hub) ToPlayer(playerID, event string, payload any) {
	data, err := marshalEvent(event, payload)
	if err != nil {
		slog.Error("marshal event failed", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[playerID]; ok {
		c.enqueue(data)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // Allow all origins during development.
	},
}

// HandleWS handles WebSocket upgrade requests at GET /api/v1/ws.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	c := &Client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketClients.Inc()
	slog.Info("ws client connected", "conn", c.id, "total", total)

	go h.writePump(c)
	go h.readPump(c)
}

// readPump consumes inbound frames and routes them until the connection
// drops, then tears the client down.
func (h *Hub) readPump(c *Client) {
	defer h.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("ws read error", "conn", c.id, "err", err)
			}
			return
		}
		h.dispatch(c, raw, time.Now())
	}
}

// writePump owns all writes to the connection, interleaving queued events
// with keepalive pings.
func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drop removes the client from the hub and its room, and tells the
// directory the player went offline.
func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	for roomID, members := range h.rooms {
		if _, in := members[c.id]; in {
			delete(members, c.id)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	total := len(h.clients)
	h.mu.Unlock()

	close(c.send)
	c.conn.Close()
	metrics.WebSocketClients.Dec()
	slog.Info("ws client disconnected", "conn", c.id, "total", total)

	if h.dir != nil {
		h.dir.Disconnect(c.id)
	}
}

// seat records the client as a member of the room for broadcasts.
func (h *Hub) seat(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}
	members[c.id] = c
}

// enqueue queues data for the client, dropping the frame if its buffer is
// full so a slow reader never blocks the tick loop.
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		slog.Warn("ws send buffer full, dropping frame", "conn", c.id)
	}
}

func marshalEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
