package rank

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tradepit/arena/internal/model"
)

func player(id string, pnl int64) *model.Player {
	return &model.Player{
		ID:      id,
		Name:    id,
		Balance: decimal.NewFromInt(model.InitialBalance),
		PnL:     decimal.NewFromInt(pnl),
	}
}

func TestLeaderboard_SortsByPnLDescending(t *testing.T) {
	players := []*model.Player{
		player("p0", 10),
		player("p1", -5),
		player("p2", 10),
		player("p3", 0),
	}

	entries := Leaderboard(players)

	want := []string{"p0", "p2", "p3", "p1"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, id := range want {
		if entries[i].ID != id {
			t.Errorf("rank %d: got %s, want %s (stable tie-break by join order)", i, entries[i].ID, id)
		}
	}
}

func TestLeaderboard_Empty(t *testing.T) {
	if entries := Leaderboard(nil); len(entries) != 0 {
		t.Errorf("expected empty leaderboard, got %d entries", len(entries))
	}
}

func TestLeaderboard_BalanceIsEquity(t *testing.T) {
	p := player("p0", 0)
	p.Positions = []*model.Position{{
		StockSymbol:   "TCS",
		Quantity:      10,
		AvgPrice:      decimal.NewFromInt(100),
		CurrentPrice:  decimal.NewFromInt(110),
		UnrealizedPnL: decimal.NewFromInt(100),
	}}
	p.Balance = decimal.NewFromInt(model.InitialBalance - 1000)

	entries := Leaderboard([]*model.Player{p})
	want := decimal.NewFromInt(model.InitialBalance + 100)
	if !entries[0].Balance.Equal(want) {
		t.Errorf("balance %s, want equity %s", entries[0].Balance, want)
	}
}
