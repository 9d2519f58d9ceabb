// Package model defines the core domain types shared across the arena.
// All monetary values use shopspring/decimal, never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game constants. These are part of the game contract and are not
// runtime-configurable.
const (
	InitialBalance   = 500_000
	GameDuration     = 5 * time.Minute
	TickInterval     = time.Second
	MinPlayers       = 2
	MaxPlayers       = 6
	CountdownSeconds = 3
	SeedCandles      = 60
	MaxCandleHistory = 300
)

// RoomStatus is the lifecycle state of a room.
type RoomStatus string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusPlaying RoomStatus = "playing"
	StatusEnded   RoomStatus = "ended"
)

// TradeKind is the order type submitted by a player.
type TradeKind string

const (
	TradeBuy   TradeKind = "buy"
	TradeSell  TradeKind = "sell"
	TradeShort TradeKind = "short"
	TradeCover TradeKind = "cover"
)

// Stock is a static catalog entry for one tradable instrument.
type Stock struct {
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	Sector     string          `json:"sector"`
	BasePrice  decimal.Decimal `json:"basePrice"`
	Volatility float64         `json:"volatility"` // coefficient in (0, 1]
	LotSize    int64           `json:"lotSize"`
}

// ScenarioConfig is a static catalog entry for one market regime.
type ScenarioConfig struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	TrendBias            float64 `json:"trendBias"` // -1..1
	VolatilityMultiplier float64 `json:"volatilityMultiplier"`
	FakeBreakoutChance   float64 `json:"fakeBreakoutChance"` // per-tick
	NewsEventChance      float64 `json:"newsEventChance"`    // per-tick
}

// Candle is one OHLCV price sample for a one-second bucket. Immutable once
// produced by the market engine.
type Candle struct {
	Time   int64           `json:"time"` // unix seconds, strictly increasing per room
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Position is a player's net signed holding in the room's instrument.
// Positive quantity = long, negative = short. A position that reaches zero
// quantity is removed, never stored.
type Position struct {
	StockSymbol   string          `json:"stockSymbol"`
	Quantity      int64           `json:"quantity"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	UnrealizedPnL decimal.Decimal `json:"unrealizedPnl"`
}

// Trade is an immutable record of one executed order. PnL is set only for
// closing trades (sell/cover/squareoff).
type Trade struct {
	ID          string           `json:"id"`
	StockSymbol string           `json:"stockSymbol"`
	Kind        TradeKind        `json:"type"`
	Quantity    int64            `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	Timestamp   time.Time        `json:"timestamp"`
	PnL         *decimal.Decimal `json:"pnl,omitempty"`
}

// Player is one participant in a room. The admin is a player too
// (players[0] by construction). Balance is uncommitted cash; Equity is
// the headline wealth figure used for ranking.
type Player struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Balance     decimal.Decimal `json:"balance"`
	Positions   []*Position     `json:"positions"`
	Trades      []*Trade        `json:"trades"`
	PnL         decimal.Decimal `json:"pnl"` // realized + unrealized, cached
	ROI         decimal.Decimal `json:"roi"`
	IsConnected bool            `json:"isConnected"`
	JoinedAt    time.Time       `json:"joinedAt"`
}

// Position returns the player's position in symbol, or nil.
func (p *Player) Position(symbol string) *Position {
	for _, pos := range p.Positions {
		if pos.StockSymbol == symbol {
			return pos
		}
	}
	return nil
}

// RemovePosition drops the position in symbol, if any.
func (p *Player) RemovePosition(symbol string) {
	for i, pos := range p.Positions {
		if pos.StockSymbol == symbol {
			p.Positions = append(p.Positions[:i], p.Positions[i+1:]...)
			return
		}
	}
}

// Equity is the player's cash plus the cost basis of open longs plus
// unrealized P&L. It is unchanged by any trade executed at an unchanged
// price, and once every position is closed it equals
// InitialBalance + total realized P&L.
func (p *Player) Equity() decimal.Decimal {
	eq := p.Balance
	for _, pos := range p.Positions {
		if pos.Quantity > 0 {
			eq = eq.Add(pos.AvgPrice.Mul(decimal.NewFromInt(pos.Quantity)))
		}
		eq = eq.Add(pos.UnrealizedPnL)
	}
	return eq
}

// AdminControls are the admin's live levers over the price process.
type AdminControls struct {
	Bias       float64 `json:"bias"`       // -1..1
	Volatility float64 `json:"volatility"` // 0.5..3.0
	Paused     bool    `json:"paused"`
}

// DefaultControls returns the neutral control state.
func DefaultControls() AdminControls {
	return AdminControls{Bias: 0, Volatility: 1, Paused: false}
}

// LeaderboardEntry is one row of the ranked standings.
type LeaderboardEntry struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	PnL     decimal.Decimal `json:"pnl"`
	ROI     decimal.Decimal `json:"roi"`
	Balance decimal.Decimal `json:"balance"` // equity
}

// GameResult is the archived outcome of one finished game.
type GameResult struct {
	RoomID      string             `json:"roomId"`
	RoomCode    string             `json:"roomCode"`
	StockSymbol string             `json:"stockSymbol"`
	ScenarioID  string             `json:"scenarioId"`
	StartedAt   time.Time          `json:"startedAt"`
	EndedAt     time.Time          `json:"endedAt"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}
