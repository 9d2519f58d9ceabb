package gateway

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tradepit/arena/internal/model"
	"github.com/tradepit/arena/internal/room"
)

// Inbound event names.
const (
	eventCreateRoom   = "createRoom"
	eventJoinRoom     = "joinRoom"
	eventStartGame    = "startGame"
	eventPlaceTrade   = "placeTrade"
	eventAdminControl = "adminControl"
	eventToggleLock   = "toggleLock"
	eventEndGame      = "endGame"
)

type createRoomRequest struct {
	AdminName   string `json:"adminName"`
	StockSymbol string `json:"stockSymbol"`
	ScenarioID  string `json:"scenarioId"`
}

type joinRoomRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type placeTradeRequest struct {
	Kind     model.TradeKind `json:"type"`
	Quantity int64           `json:"quantity"`
}

type adminControlRequest struct {
	Action string  `json:"action"`
	Value  float64 `json:"value"`
}

// dispatch routes one inbound frame from a client. Malformed frames and
// rejected operations answer only the sender; they never disturb the room.
func (h *Hub) dispatch(c *Client, raw []byte, now time.Time) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(c, room.EventError, "malformed message")
		return
	}

	switch env.Event {
	case eventCreateRoom:
		h.handleCreateRoom(c, env.Data, now)
	case eventJoinRoom:
		h.handleJoinRoom(c, env.Data, now)
	case eventStartGame:
		h.handleStartGame(c, now)
	case eventPlaceTrade:
		h.handlePlaceTrade(c, env.Data, now)
	case eventAdminControl:
		h.handleAdminControl(c, env.Data)
	case eventToggleLock:
		h.handleToggleLock(c)
	case eventEndGame:
		h.handleEndGame(c, now)
	default:
		h.sendError(c, room.EventError, "unknown event: "+env.Event)
	}
}

func (h *Hub) handleCreateRoom(c *Client, data json.RawMessage, now time.Time) {
	var req createRoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.AdminName == "" {
		h.sendError(c, room.EventError, "adminName is required")
		return
	}

	sess, err := h.dir.CreateRoom(c.id, req.AdminName, req.StockSymbol, req.ScenarioID, now)
	if err != nil {
		h.sendError(c, room.EventError, err.Error())
		return
	}
	h.seat(sess.ID(), c)

	h.ToPlayer(c.id, room.EventRoomCreated, map[string]any{
		"room":     sess.Snapshot(),
		"playerId": c.id,
	})
	slog.Info("room created", "room", sess.Code(), "admin", c.id)
}

func (h *Hub) handleJoinRoom(c *Client, data json.RawMessage, now time.Time) {
	var req joinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.PlayerName == "" || req.RoomCode == "" {
		h.sendError(c, room.EventJoinError, "roomCode and playerName are required")
		return
	}

	sess, player, err := h.dir.JoinRoom(c.id, req.RoomCode, req.PlayerName, now)
	if err != nil {
		h.sendError(c, room.EventJoinError, err.Error())
		return
	}
	h.seat(sess.ID(), c)

	// The session already announced playerJoined to the room; the joiner
	// additionally gets the full room state.
	h.ToPlayer(c.id, room.EventJoinedRoom, map[string]any{
		"room":     sess.Snapshot(),
		"playerId": player.ID,
	})
	slog.Info("player joined", "room", sess.Code(), "player", c.id)
}

func (h *Hub) handleStartGame(c *Client, now time.Time) {
	sess, ok := h.sessionFor(c)
	if !ok {
		return
	}
	if err := sess.Start(c.id, now); err != nil {
		h.sendError(c, room.EventError, err.Error())
		return
	}
	h.sched.Register(sess)
}

func (h *Hub) handlePlaceTrade(c *Client, data json.RawMessage, now time.Time) {
	var req placeTradeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(c, room.EventTradeError, "malformed trade")
		return
	}
	sess, ok := h.sessionFor(c)
	if !ok {
		return
	}
	if _, err := sess.PlaceTrade(c.id, req.Kind, req.Quantity, now); err != nil {
		h.sendError(c, room.EventTradeError, err.Error())
	}
}

func (h *Hub) handleAdminControl(c *Client, data json.RawMessage) {
	var req adminControlRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(c, room.EventError, "malformed control")
		return
	}
	sess, ok := h.sessionFor(c)
	if !ok {
		return
	}
	if err := sess.AdminControl(c.id, req.Action, req.Value); err != nil {
		h.sendError(c, room.EventError, err.Error())
	}
}

func (h *Hub) handleToggleLock(c *Client) {
	sess, ok := h.sessionFor(c)
	if !ok {
		return
	}
	if _, err := sess.ToggleLock(c.id); err != nil {
		h.sendError(c, room.EventError, err.Error())
	}
}

func (h *Hub) handleEndGame(c *Client, now time.Time) {
	sess, ok := h.sessionFor(c)
	if !ok {
		return
	}
	// The scheduler notices the ended session on its next tick and
	// archives the result.
	if err := sess.End(c.id, now); err != nil {
		h.sendError(c, room.EventError, err.Error())
	}
}

// sessionFor resolves the client's bound session, answering with an error
// event when the connection is not in a room.
func (h *Hub) sessionFor(c *Client) (*room.Session, bool) {
	b, ok := h.dir.Binding(c.id)
	if !ok {
		h.sendError(c, room.EventError, room.ErrRoomNotFound.Error())
		return nil, false
	}
	sess, ok := h.dir.Lookup(b.RoomID)
	if !ok {
		h.sendError(c, room.EventError, room.ErrRoomNotFound.Error())
		return nil, false
	}
	return sess, true
}

func (h *Hub) sendError(c *Client, event, message string) {
	data, err := marshalEvent(event, map[string]string{"message": message})
	if err != nil {
		return
	}
	c.enqueue(data)
}
