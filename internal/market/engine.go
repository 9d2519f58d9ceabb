// Package market implements the synthetic price process that drives a room.
//
// The process is a mean-reverting-momentum random walk with regime
// injections: a scenario supplies the baseline trend and volatility, admin
// controls nudge both live, and two low-probability branches (fake breakout,
// news event) replace the base delta outright on the ticks they fire.
//
// Price-path math runs in float64; values are converted to two-decimal
// shopspring/decimal at the candle boundary, which is the only form the
// rest of the system sees.
package market

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/tradepit/arena/internal/model"
)

const (
	momentumDecay   = 0.95
	momentumWeight  = 0.05
	biasTrendWeight = 0.5
	biasNudgeFactor = 0.002
	baseMoveFactor  = 0.005
	breakoutFactor  = 0.02
	newsFactor      = 0.03
	priceFloor      = 1.0
	minVolume       = 50_000
	volumeSpread    = 100_000
)

// Engine generates one candle per tick for a single instrument. It is not
// safe for concurrent use; the owning session serializes access.
type Engine struct {
	stock    model.Stock
	scenario model.ScenarioConfig
	rng      *rand.Rand

	currentPrice float64
	trend        float64
	momentum     float64
	tickCount    int
	lastTime     int64
	candles      []model.Candle
}

// NewEngine creates an engine at the stock's base price. The random source
// is injected so price paths are reproducible under a fixed seed.
func NewEngine(stock model.Stock, scenario model.ScenarioConfig, rng *rand.Rand) *Engine {
	return &Engine{
		stock:        stock,
		scenario:     scenario,
		rng:          rng,
		currentPrice: stock.BasePrice.InexactFloat64(),
		trend:        scenario.TrendBias,
	}
}

// GenerateTick advances the price process by one step and returns the new
// candle. A paused tick mutates nothing and returns the last candle (or a
// flat zero-volume candle when no history exists yet).
func (e *Engine) GenerateTick(timestamp int64, controls model.AdminControls) model.Candle {
	if controls.Paused {
		if last := e.LastCandle(); last != nil {
			return *last
		}
		return e.flatCandle(timestamp)
	}

	e.tickCount++

	effectiveTrend := e.trend + controls.Bias*biasTrendWeight
	baseVolatility := e.stock.Volatility * e.scenario.VolatilityMultiplier * controls.Volatility

	randomFactor := e.rng.Float64()*2 - 1
	e.momentum = e.momentum*momentumDecay + randomFactor*momentumWeight

	priceChange := e.currentPrice * baseVolatility * baseMoveFactor *
		(randomFactor + effectiveTrend*0.001 + e.momentum)
	priceChange += e.currentPrice * controls.Bias * biasNudgeFactor

	// Fake breakout: one-directional spike with momentum forced against it,
	// so the following tick tends to reverse.
	if e.rng.Float64() < e.scenario.FakeBreakoutChance*0.01 {
		direction := 1.0
		if e.rng.Float64() <= 0.5 {
			direction = -1.0
		}
		priceChange = e.currentPrice * baseVolatility * breakoutFactor * direction
		e.momentum = -direction * 0.5
	}

	// News event: impulse plus a permanent trend shift.
	if e.rng.Float64() < e.scenario.NewsEventChance*0.01 {
		impact := e.rng.Float64()*2 - 1
		priceChange = e.currentPrice * baseVolatility * newsFactor * impact
		e.trend += impact * 0.1
	}

	// Stop-hunt wicks: one tick in ten stretches both wicks.
	wickMultiplier := 1.0
	if e.rng.Float64() > 0.9 {
		wickMultiplier = 2.0
	}

	open := e.currentPrice
	close := open + priceChange
	if close < priceFloor {
		close = priceFloor
	}
	high := maxf(open, close) + absf(priceChange)*wickMultiplier*e.rng.Float64()
	low := minf(open, close) - absf(priceChange)*wickMultiplier*e.rng.Float64()
	if low < priceFloor {
		low = priceFloor
	}

	e.currentPrice = close

	candle := model.Candle{
		Time:   e.nextTime(timestamp),
		Open:   round2(open),
		High:   round2(high),
		Low:    round2(low),
		Close:  round2(close),
		Volume: int64(e.rng.Intn(volumeSpread)) + minVolume,
	}
	e.candles = append(e.candles, candle)
	return candle
}

// GenerateHistory produces n seed candles ending just before now, used to
// pre-fill the chart when a game starts.
func (e *Engine) GenerateHistory(n int, now int64) []model.Candle {
	candles := make([]model.Candle, 0, n)
	for i := n; i > 0; i-- {
		candles = append(candles, e.GenerateTick(now-int64(i), model.DefaultControls()))
	}
	return candles
}

// CurrentPrice returns the live price rounded to two decimals.
func (e *Engine) CurrentPrice() decimal.Decimal {
	return round2(e.currentPrice)
}

// Candles returns the full candle history, capped to the most recent
// MaxCandleHistory entries.
func (e *Engine) Candles() []model.Candle {
	if len(e.candles) > model.MaxCandleHistory {
		return e.candles[len(e.candles)-model.MaxCandleHistory:]
	}
	return e.candles
}

// LastCandle returns the most recent candle, or nil before the first tick.
func (e *Engine) LastCandle() *model.Candle {
	if len(e.candles) == 0 {
		return nil
	}
	return &e.candles[len(e.candles)-1]
}

// TickCount reports how many live ticks the engine has generated.
func (e *Engine) TickCount() int {
	return e.tickCount
}

// Reset returns the engine to its initial state.
func (e *Engine) Reset() {
	e.currentPrice = e.stock.BasePrice.InexactFloat64()
	e.trend = e.scenario.TrendBias
	e.momentum = 0
	e.tickCount = 0
	e.lastTime = 0
	e.candles = nil
}

// nextTime enforces strictly increasing candle times even when the wall
// clock hands the engine a repeated second.
func (e *Engine) nextTime(timestamp int64) int64 {
	if timestamp <= e.lastTime {
		timestamp = e.lastTime + 1
	}
	e.lastTime = timestamp
	return timestamp
}

func (e *Engine) flatCandle(timestamp int64) model.Candle {
	price := round2(e.currentPrice)
	return model.Candle{
		Time:  timestamp,
		Open:  price,
		High:  price,
		Low:   price,
		Close: price,
	}
}

func round2(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
