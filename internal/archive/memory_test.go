package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradepit/arena/internal/model"
)

func sampleResult(roomID string, endedAt time.Time) *model.GameResult {
	return &model.GameResult{
		RoomID:      roomID,
		RoomCode:    "ABCDEF",
		StockSymbol: "RELIANCE",
		ScenarioID:  "volatile",
		StartedAt:   endedAt.Add(-5 * time.Minute),
		EndedAt:     endedAt,
		Leaderboard: []model.LeaderboardEntry{
			{ID: "p1", Name: "alice", PnL: decimal.NewFromInt(1200), Balance: decimal.NewFromInt(501_200)},
			{ID: "p2", Name: "bob", PnL: decimal.NewFromInt(-300), Balance: decimal.NewFromInt(499_700)},
		},
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	want := sampleResult("room-1", time.Unix(10_000, 0))

	if err := s.SaveResult(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.GetResult(ctx, "room-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RoomCode != want.RoomCode || len(got.Leaderboard) != 2 {
		t.Errorf("unexpected result %+v", got)
	}
	if !got.Leaderboard[0].PnL.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("leaderboard pnl %s", got.Leaderboard[0].PnL)
	}

	// The stored copy is isolated from caller mutation.
	want.Leaderboard[0].Name = "mallory"
	again, _ := s.GetResult(ctx, "room-1")
	if again.Leaderboard[0].Name != "alice" {
		t.Errorf("stored result aliases caller memory")
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.GetResult(context.Background(), "room-x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ListOrdersByEndedAt(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.SaveResult(ctx, sampleResult("room-old", time.Unix(1000, 0)))
	s.SaveResult(ctx, sampleResult("room-new", time.Unix(3000, 0)))
	s.SaveResult(ctx, sampleResult("room-mid", time.Unix(2000, 0)))

	results, err := s.ListResults(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].RoomID != "room-new" || results[1].RoomID != "room-mid" {
		t.Errorf("order wrong: %s, %s", results[0].RoomID, results[1].RoomID)
	}
}
