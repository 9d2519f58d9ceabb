// Package room owns the live game state: the per-room session state
// machine, the directory of live rooms, and the scheduler that drives
// ticks and countdowns.
//
// A Session serializes every mutation (player orders, admin controls, the
// scheduler's own tick) behind one mutex, so a trade can never race a
// price tick on the same position. Broadcast payloads are snapshotted
// inside the same critical section, which guarantees every emitted event
// reflects a consistent state.
package room

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tradepit/arena/internal/ledger"
	"github.com/tradepit/arena/internal/market"
	"github.com/tradepit/arena/internal/metrics"
	"github.com/tradepit/arena/internal/model"
	"github.com/tradepit/arena/internal/rank"
)

// Admin control actions.
const (
	ActionPriceUp    = "priceUp"
	ActionPriceDown  = "priceDown"
	ActionVolatility = "volatility"
	ActionPause      = "pause"
	ActionResume     = "resume"
	ActionResetBias  = "resetBias"
)

const biasStep = 0.3

// Session is one room's state machine. All exported methods are safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	id       string
	code     string
	adminID  string
	status   model.RoomStatus
	stock    model.Stock
	scenario model.ScenarioConfig
	controls model.AdminControls
	players  []*model.Player
	isLocked bool

	startTime time.Time
	endTime   time.Time
	endedAt   time.Time
	countdown int // pre-game seconds remaining; live ticking starts after it hits zero

	engine *market.Engine
	bcast  Broadcaster
}

// Snapshot is the room view shared with clients.
type Snapshot struct {
	ID        string           `json:"id"`
	Code      string           `json:"code"`
	AdminID   string           `json:"adminId"`
	Status    model.RoomStatus `json:"status"`
	Stock     model.Stock      `json:"stock"`
	Scenario  string           `json:"scenario"`
	Players   []model.Player   `json:"players"`
	IsLocked  bool             `json:"isLocked"`
	StartTime int64            `json:"startTime,omitempty"` // unix millis
	EndTime   int64            `json:"endTime,omitempty"`
}

// NewSession creates a room in the waiting state with the admin as its
// only player.
func NewSession(id, code string, admin *model.Player, stock model.Stock, scenario model.ScenarioConfig, engine *market.Engine, bcast Broadcaster) *Session {
	if bcast == nil {
		bcast = NopBroadcaster{}
	}
	return &Session{
		id:       id,
		code:     code,
		adminID:  admin.ID,
		status:   model.StatusWaiting,
		stock:    stock,
		scenario: scenario,
		controls: model.DefaultControls(),
		players:  []*model.Player{admin},
		engine:   engine,
		bcast:    bcast,
	}
}

// ID returns the room id.
func (s *Session) ID() string { return s.id }

// Code returns the 6-character join code.
func (s *Session) Code() string { return s.code }

// AdminID returns the admin player's id.
func (s *Session) AdminID() string { return s.adminID }

// Status returns the current lifecycle state.
func (s *Session) Status() model.RoomStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// EndedAt reports when the game ended (zero while not ended).
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// Join admits a player while the room is waiting, unlocked and below
// capacity, then announces the new roster to the room.
func (s *Session) Join(p *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.isLocked:
		return ErrRoomLocked
	case s.status != model.StatusWaiting:
		return ErrGameStarted
	case len(s.players) >= model.MaxPlayers:
		return ErrRoomFull
	}

	s.players = append(s.players, p)
	s.bcast.ToRoom(s.id, EventPlayerJoined, map[string]any{
		"player": copyPlayer(p),
		"room":   s.snapshotLocked(),
	})
	return nil
}

// Start begins the game: admin-only, needs the minimum roster. It stamps
// the game window, seeds the chart with historical candles and arms the
// pre-game countdown. The caller registers the session with a scheduler.
func (s *Session) Start(actorID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actorID != s.adminID {
		return ErrUnauthorized
	}
	if s.status != model.StatusWaiting {
		return ErrGameStarted
	}
	if len(s.players) < model.MinPlayers {
		return ErrNotEnoughPlayers
	}

	s.status = model.StatusPlaying
	s.startTime = now
	s.endTime = now.Add(model.GameDuration)
	s.countdown = model.CountdownSeconds

	seed := s.engine.GenerateHistory(model.SeedCandles, now.Unix())

	s.bcast.ToRoom(s.id, EventGameStarted, map[string]any{
		"roomId":    s.id,
		"startTime": s.startTime.UnixMilli(),
		"endTime":   s.endTime.UnixMilli(),
	})
	s.bcast.ToRoom(s.id, EventInitialCandles, map[string]any{"candles": seed})
	s.bcast.ToRoom(s.id, EventGameCountdown, map[string]any{"countdown": s.countdown})

	metrics.GamesTotal.Inc()
	slog.Info("game started", "room", s.code, "players", len(s.players))
	return nil
}

// Advance is the scheduler's once-per-second entry point. It walks the
// countdown, then generates live ticks, and ends the game at the deadline.
// Returns true once the session has ended and needs no further ticks.
func (s *Session) Advance(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.StatusPlaying {
		return s.status == model.StatusEnded
	}

	if s.countdown > 0 {
		s.countdown--
		s.bcast.ToRoom(s.id, EventGameCountdown, map[string]any{"countdown": s.countdown})
		return false
	}

	// A paused tick skips the engine but the clock keeps running, so pause
	// never drifts the end-of-game deadline.
	if !s.controls.Paused {
		candle := s.engine.GenerateTick(now.Unix(), s.controls)
		metrics.TicksTotal.Inc()

		price := s.engine.CurrentPrice()
		for _, p := range s.players {
			ledger.MarkToMarket(p, price)
		}

		s.bcast.ToRoom(s.id, EventPriceTick, map[string]any{
			"roomId":    s.id,
			"candle":    candle,
			"timestamp": now.UnixMilli(),
		})
		s.broadcastLeaderboardLocked()
	}

	if !now.Before(s.endTime) {
		s.endLocked(now)
		return true
	}
	return false
}

// PlaceTrade executes one order for the acting player at the engine's
// current price and broadcasts the result.
func (s *Session) PlaceTrade(actorID string, kind model.TradeKind, quantity int64, now time.Time) (*model.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.StatusPlaying {
		metrics.TradeRejections.WithLabelValues(rejectionReason(ErrGameNotActive)).Inc()
		return nil, ErrGameNotActive
	}
	player := s.playerLocked(actorID)
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	trade, err := ledger.Execute(player, s.stock.Symbol, kind, quantity, s.engine.CurrentPrice(), now)
	if err != nil {
		metrics.TradeRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	metrics.TradesTotal.WithLabelValues(string(trade.Kind)).Inc()
	s.bcast.ToPlayer(actorID, EventTradeExecuted, map[string]any{
		"player": copyPlayer(player),
		"trade":  trade,
	})
	s.broadcastLeaderboardLocked()
	return trade, nil
}

// AdminControl mutates the admin levers. priceUp/priceDown step the bias by
// ±0.3 clamped to [-1, 1]; volatility clamps its value to [0.5, 3.0].
func (s *Session) AdminControl(actorID, action string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actorID != s.adminID {
		return ErrUnauthorized
	}

	switch action {
	case ActionPriceUp:
		s.controls.Bias = minFloat(s.controls.Bias+biasStep, 1.0)
	case ActionPriceDown:
		s.controls.Bias = maxFloat(s.controls.Bias-biasStep, -1.0)
	case ActionVolatility:
		if value == 0 {
			value = 1.0
		}
		s.controls.Volatility = maxFloat(0.5, minFloat(3.0, value))
	case ActionPause:
		s.controls.Paused = true
	case ActionResume:
		s.controls.Paused = false
	case ActionResetBias:
		s.controls.Bias = 0
	default:
		return ErrUnknownAction
	}

	s.bcast.ToRoom(s.id, EventAdminControlUpdate, map[string]any{"controls": s.controls})
	return nil
}

// Controls returns the current admin control state.
func (s *Session) Controls() model.AdminControls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls
}

// ToggleLock flips the join gate. Admin-only.
func (s *Session) ToggleLock(actorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actorID != s.adminID {
		return false, ErrUnauthorized
	}
	s.isLocked = !s.isLocked
	s.bcast.ToRoom(s.id, EventRoomLocked, map[string]any{"isLocked": s.isLocked})
	return s.isLocked, nil
}

// MarkDisconnected flags a player as offline. The player record and its
// positions stay; identities are never re-bound to later connections.
func (s *Session) MarkDisconnected(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.playerLocked(playerID)
	if p == nil {
		return
	}
	p.IsConnected = false
	s.bcast.ToRoom(s.id, EventPlayerDisconnected, map[string]any{"playerId": playerID})
}

// End terminates the game early. Admin-only; only valid while playing.
func (s *Session) End(actorID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actorID != s.adminID {
		return ErrUnauthorized
	}
	if s.status != model.StatusPlaying {
		return ErrGameNotActive
	}
	s.endLocked(now)
	return nil
}

// Snapshot returns a consistent copy of the room for transmission.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Leaderboard returns the current ranked standings.
func (s *Session) Leaderboard() []model.LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rank.Leaderboard(s.players)
}

// Result packages the finished game for archival. Returns nil before the
// game has ended.
func (s *Session) Result() *model.GameResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.StatusEnded {
		return nil
	}
	return &model.GameResult{
		RoomID:      s.id,
		RoomCode:    s.code,
		StockSymbol: s.stock.Symbol,
		ScenarioID:  s.scenario.ID,
		StartedAt:   s.startTime,
		EndedAt:     s.endedAt,
		Leaderboard: rank.Leaderboard(s.players),
	}
}

// endLocked squares off every open position at the current price, settles
// balances and broadcasts the final standings. Caller holds s.mu.
func (s *Session) endLocked(now time.Time) {
	s.status = model.StatusEnded
	s.endedAt = now

	price := s.engine.CurrentPrice()
	for _, p := range s.players {
		ledger.Squareoff(p, price, now)
	}

	board := rank.Leaderboard(s.players)
	s.bcast.ToRoom(s.id, EventUpdateLeaderboard, map[string]any{
		"roomId":      s.id,
		"leaderboard": board,
	})
	s.bcast.ToRoom(s.id, EventEndGame, map[string]any{
		"roomId":      s.id,
		"leaderboard": board,
	})

	slog.Info("game ended", "room", s.code, "price", price.String())
}

func (s *Session) broadcastLeaderboardLocked() {
	s.bcast.ToRoom(s.id, EventUpdateLeaderboard, map[string]any{
		"roomId":      s.id,
		"leaderboard": rank.Leaderboard(s.players),
	})
}

func (s *Session) playerLocked(id string) *model.Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) snapshotLocked() Snapshot {
	players := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, copyPlayer(p))
	}
	snap := Snapshot{
		ID:       s.id,
		Code:     s.code,
		AdminID:  s.adminID,
		Status:   s.status,
		Stock:    s.stock,
		Scenario: s.scenario.ID,
		Players:  players,
		IsLocked: s.isLocked,
	}
	if !s.startTime.IsZero() {
		snap.StartTime = s.startTime.UnixMilli()
		snap.EndTime = s.endTime.UnixMilli()
	}
	return snap
}

// copyPlayer takes a value copy deep enough for async marshaling: position
// values are duplicated, trade records are immutable and shared.
func copyPlayer(p *model.Player) model.Player {
	cp := *p
	cp.Positions = make([]*model.Position, 0, len(p.Positions))
	for _, pos := range p.Positions {
		dup := *pos
		cp.Positions = append(cp.Positions, &dup)
	}
	cp.Trades = append([]*model.Trade(nil), p.Trades...)
	return cp
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ledger.ErrNoPosition):
		return "no_position"
	case errors.Is(err, ledger.ErrLongPositionOpen):
		return "long_position_open"
	case errors.Is(err, ledger.ErrMarketNotReady):
		return "market_not_ready"
	case errors.Is(err, ErrGameNotActive):
		return "game_not_active"
	default:
		return "invalid"
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
