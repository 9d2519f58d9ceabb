package room

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradepit/arena/internal/market"
	"github.com/tradepit/arena/internal/metrics"
	"github.com/tradepit/arena/internal/model"
)

// Binding ties one connection to its room and player record.
type Binding struct {
	RoomID   string
	PlayerID string
	IsAdmin  bool
}

// Directory maps room codes/ids to sessions and connection ids to
// (room, player) bindings. It is the only cross-room shared state; it is
// touched only on create/join/disconnect/sweep.
type Directory struct {
	mu       sync.Mutex
	rooms    map[string]*Session // by room id
	byCode   map[string]*Session
	bindings map[string]Binding // by connection id
	rng      *rand.Rand
	bcast    Broadcaster
}

// NewDirectory creates an empty directory. The random source seeds room
// codes and each room's price path; inject a fixed seed for reproducible
// tests.
func NewDirectory(bcast Broadcaster, rng *rand.Rand) *Directory {
	if bcast == nil {
		bcast = NopBroadcaster{}
	}
	return &Directory{
		rooms:    make(map[string]*Session),
		byCode:   make(map[string]*Session),
		bindings: make(map[string]Binding),
		rng:      rng,
		bcast:    bcast,
	}
}

// CreateRoom builds a new waiting room with the caller as admin and binds
// the connection to it.
func (d *Directory) CreateRoom(connID, adminName, stockSymbol, scenarioID string, now time.Time) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, bound := d.bindings[connID]; bound {
		return nil, ErrAlreadyInRoom
	}

	stock := model.StockBySymbol(stockSymbol)
	scenario := model.ScenarioByID(scenarioID)

	code := d.uniqueCodeLocked()
	id := "room-" + code

	admin := &model.Player{
		ID:          connID,
		Name:        adminName,
		Balance:     decimal.NewFromInt(model.InitialBalance),
		IsConnected: true,
		JoinedAt:    now,
	}

	engine := market.NewEngine(stock, scenario, rand.New(rand.NewSource(d.rng.Int63())))
	sess := NewSession(id, code, admin, stock, scenario, engine, d.bcast)

	d.rooms[id] = sess
	d.byCode[code] = sess
	d.bindings[connID] = Binding{RoomID: id, PlayerID: connID, IsAdmin: true}
	metrics.RoomsActive.Set(float64(len(d.rooms)))

	return sess, nil
}

// JoinRoom admits the connection's player into the room with the given
// code and binds the connection.
func (d *Directory) JoinRoom(connID, code, playerName string, now time.Time) (*Session, *model.Player, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, bound := d.bindings[connID]; bound {
		return nil, nil, ErrAlreadyInRoom
	}
	sess, ok := d.byCode[code]
	if !ok {
		return nil, nil, ErrRoomNotFound
	}

	player := &model.Player{
		ID:          connID,
		Name:        playerName,
		Balance:     decimal.NewFromInt(model.InitialBalance),
		IsConnected: true,
		JoinedAt:    now,
	}
	if err := sess.Join(player); err != nil {
		return nil, nil, err
	}

	d.bindings[connID] = Binding{RoomID: sess.ID(), PlayerID: connID}
	return sess, player, nil
}

// Lookup resolves a room id to its live session.
func (d *Directory) Lookup(roomID string) (*Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sess, ok := d.rooms[roomID]
	return sess, ok
}

// Binding returns the connection's room/player binding, if any.
func (d *Directory) Binding(connID string) (Binding, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.bindings[connID]
	return b, ok
}

// Disconnect drops the connection's binding and flags its player as
// offline. The player record itself survives for the room's lifetime.
func (d *Directory) Disconnect(connID string) {
	d.mu.Lock()
	b, ok := d.bindings[connID]
	if ok {
		delete(d.bindings, connID)
	}
	sess := d.rooms[b.RoomID]
	d.mu.Unlock()

	if ok && sess != nil {
		sess.MarkDisconnected(b.PlayerID)
	}
}

// Sweep garbage-collects rooms that ended longer than retention ago,
// together with any bindings still pointing at them. Returns the number of
// rooms removed.
func (d *Directory) Sweep(now time.Time, retention time.Duration) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for id, sess := range d.rooms {
		endedAt := sess.EndedAt()
		if endedAt.IsZero() || now.Sub(endedAt) < retention {
			continue
		}
		delete(d.rooms, id)
		delete(d.byCode, sess.Code())
		for connID, b := range d.bindings {
			if b.RoomID == id {
				delete(d.bindings, connID)
			}
		}
		removed++
	}
	if removed > 0 {
		metrics.RoomsActive.Set(float64(len(d.rooms)))
	}
	return removed
}

// uniqueCodeLocked draws codes until one does not collide with a live
// room. Collisions are vanishingly rare (32^6 space); the retry cap only
// guards against a pathological directory.
func (d *Directory) uniqueCodeLocked() string {
	for i := 0; i < 100; i++ {
		code := generateCode(d.rng)
		if _, taken := d.byCode[code]; !taken {
			return code
		}
	}
	// Fall back to a code extended past the collision space.
	return generateCode(d.rng) + fmt.Sprintf("%d", d.rng.Intn(10))
}
