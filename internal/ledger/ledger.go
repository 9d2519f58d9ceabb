// Package ledger applies trade orders to a player's book for the room's
// single instrument.
//
// Cash accounting keeps one invariant: a player's equity (cash + cost basis
// of open longs + unrealized P&L) never jumps across a trade executed at an
// unchanged price. Buys move cost basis from cash into the position, sells
// move it back plus the realized difference, shorts are margin-free (a
// documented simplification) and covers settle realized P&L in cash. Once
// every position is closed, equity is exactly the initial balance plus
// total realized P&L.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepit/arena/internal/model"
)

var (
	// ErrInsufficientBalance is returned when a buy costs more than the
	// player's free cash.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")

	// ErrNoPosition is returned when selling without a long position (or
	// more than held), or covering without a short position.
	ErrNoPosition = errors.New("ledger: no position to close")

	// ErrLongPositionOpen is returned when shorting while a long position
	// exists. The long must be closed first; orders never net through.
	ErrLongPositionOpen = errors.New("ledger: close long position first")

	// ErrMarketNotReady is returned when the engine has no price yet.
	ErrMarketNotReady = errors.New("ledger: market not ready")

	// ErrInvalidQuantity is returned for a zero or negative order quantity.
	ErrInvalidQuantity = errors.New("ledger: quantity must be positive")

	// ErrUnknownKind is returned for an unrecognized order type.
	ErrUnknownKind = errors.New("ledger: unknown trade type")
)

var hundred = decimal.NewFromInt(100)

// Execute validates and applies one order at the given price. Exactly one
// trade record is appended per successful call, even when a buy both covers
// a short and opens a long. The player's positions, cached P&L and ROI are
// refreshed before returning.
func Execute(p *model.Player, symbol string, kind model.TradeKind, quantity int64, price decimal.Decimal, now time.Time) (*model.Trade, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, ErrMarketNotReady
	}

	var (
		trade *model.Trade
		err   error
	)
	switch kind {
	case model.TradeBuy:
		trade, err = executeBuy(p, symbol, quantity, price, now, false)
	case model.TradeCover:
		// Cover is the buy path restricted to an existing short; the
		// distinct kind survives only in the trade record.
		trade, err = executeBuy(p, symbol, quantity, price, now, true)
	case model.TradeSell:
		trade, err = executeSell(p, symbol, quantity, price, now)
	case model.TradeShort:
		trade, err = executeShort(p, symbol, quantity, price, now)
	default:
		return nil, ErrUnknownKind
	}
	if err != nil {
		return nil, err
	}

	p.Trades = append(p.Trades, trade)
	MarkToMarket(p, price)
	return trade, nil
}

func executeBuy(p *model.Player, symbol string, quantity int64, price decimal.Decimal, now time.Time, requireShort bool) (*model.Trade, error) {
	cost := price.Mul(decimal.NewFromInt(quantity))
	if cost.GreaterThan(p.Balance) {
		return nil, ErrInsufficientBalance
	}

	pos := p.Position(symbol)
	if pos == nil || pos.Quantity > 0 {
		if requireShort {
			return nil, ErrNoPosition
		}
		openLong(p, pos, symbol, quantity, price)
		return newTrade(symbol, model.TradeBuy, quantity, price, now, nil), nil
	}

	// Existing short: cover first, open a long with any remainder.
	covered := quantity
	if held := -pos.Quantity; covered > held {
		covered = held
	}
	pnl := pos.AvgPrice.Sub(price).Mul(decimal.NewFromInt(covered))
	p.Balance = p.Balance.Add(pnl)

	pos.Quantity += covered
	if pos.Quantity == 0 {
		p.RemovePosition(symbol)
		pos = nil
	}

	if remainder := quantity - covered; remainder > 0 {
		openLong(p, pos, symbol, remainder, price)
	}
	return newTrade(symbol, model.TradeCover, quantity, price, now, &pnl), nil
}

func openLong(p *model.Player, pos *model.Position, symbol string, quantity int64, price decimal.Decimal) {
	cost := price.Mul(decimal.NewFromInt(quantity))
	p.Balance = p.Balance.Sub(cost)

	if pos == nil {
		p.Positions = append(p.Positions, &model.Position{
			StockSymbol:  symbol,
			Quantity:     quantity,
			AvgPrice:     price,
			CurrentPrice: price,
		})
		return
	}
	// Size-weighted average entry; recomputed only because same-sign size
	// grows here.
	total := pos.AvgPrice.Mul(decimal.NewFromInt(pos.Quantity)).Add(cost)
	pos.Quantity += quantity
	pos.AvgPrice = total.Div(decimal.NewFromInt(pos.Quantity))
	pos.CurrentPrice = price
}

func executeSell(p *model.Player, symbol string, quantity int64, price decimal.Decimal, now time.Time) (*model.Trade, error) {
	pos := p.Position(symbol)
	if pos == nil || pos.Quantity <= 0 || quantity > pos.Quantity {
		return nil, ErrNoPosition
	}

	qty := decimal.NewFromInt(quantity)
	pnl := price.Sub(pos.AvgPrice).Mul(qty)
	p.Balance = p.Balance.Add(price.Mul(qty))

	pos.Quantity -= quantity
	if pos.Quantity == 0 {
		p.RemovePosition(symbol)
	}
	return newTrade(symbol, model.TradeSell, quantity, price, now, &pnl), nil
}

func executeShort(p *model.Player, symbol string, quantity int64, price decimal.Decimal, now time.Time) (*model.Trade, error) {
	pos := p.Position(symbol)
	if pos != nil && pos.Quantity > 0 {
		return nil, ErrLongPositionOpen
	}

	if pos == nil {
		p.Positions = append(p.Positions, &model.Position{
			StockSymbol:  symbol,
			Quantity:     -quantity,
			AvgPrice:     price,
			CurrentPrice: price,
		})
	} else {
		size := decimal.NewFromInt(-pos.Quantity)
		total := pos.AvgPrice.Mul(size).Add(price.Mul(decimal.NewFromInt(quantity)))
		pos.Quantity -= quantity
		pos.AvgPrice = total.Div(decimal.NewFromInt(-pos.Quantity))
		pos.CurrentPrice = price
	}
	return newTrade(symbol, model.TradeShort, quantity, price, now, nil), nil
}

// Squareoff force-closes every open position at the given price, producing
// one synthetic sell/cover trade per position. Unlike Execute it can never
// fail: end-of-game settlement ignores the affordability check.
func Squareoff(p *model.Player, price decimal.Decimal, now time.Time) []*model.Trade {
	var closed []*model.Trade
	for _, pos := range append([]*model.Position(nil), p.Positions...) {
		qty := decimal.NewFromInt(pos.Quantity)
		var trade *model.Trade
		if pos.Quantity > 0 {
			pnl := price.Sub(pos.AvgPrice).Mul(qty)
			p.Balance = p.Balance.Add(price.Mul(qty))
			trade = newTrade(pos.StockSymbol, model.TradeSell, pos.Quantity, price, now, &pnl)
		} else {
			pnl := pos.AvgPrice.Sub(price).Mul(qty.Neg())
			p.Balance = p.Balance.Add(pnl)
			trade = newTrade(pos.StockSymbol, model.TradeCover, -pos.Quantity, price, now, &pnl)
		}
		p.RemovePosition(pos.StockSymbol)
		p.Trades = append(p.Trades, trade)
		closed = append(closed, trade)
	}
	MarkToMarket(p, price)
	return closed
}

// MarkToMarket refreshes every position's unrealized P&L at the given price
// and recomputes the player's cached total P&L and ROI.
func MarkToMarket(p *model.Player, price decimal.Decimal) {
	unrealized := decimal.Zero
	for _, pos := range p.Positions {
		pos.CurrentPrice = price
		pos.UnrealizedPnL = price.Sub(pos.AvgPrice).Mul(decimal.NewFromInt(pos.Quantity))
		unrealized = unrealized.Add(pos.UnrealizedPnL)
	}
	p.PnL = RealizedPnL(p).Add(unrealized)

	initial := decimal.NewFromInt(model.InitialBalance)
	p.ROI = p.Equity().Sub(initial).Div(initial).Mul(hundred)
}

// RealizedPnL sums the recorded P&L of all closing trades.
func RealizedPnL(p *model.Player) decimal.Decimal {
	total := decimal.Zero
	for _, t := range p.Trades {
		if t.PnL != nil {
			total = total.Add(*t.PnL)
		}
	}
	return total
}

func newTrade(symbol string, kind model.TradeKind, quantity int64, price decimal.Decimal, now time.Time, pnl *decimal.Decimal) *model.Trade {
	return &model.Trade{
		ID:          uuid.New().String(),
		StockSymbol: symbol,
		Kind:        kind,
		Quantity:    quantity,
		Price:       price,
		Timestamp:   now,
		PnL:         pnl,
	}
}
