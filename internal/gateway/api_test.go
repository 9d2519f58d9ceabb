package gateway

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tradepit/arena/internal/archive"
	"github.com/tradepit/arena/internal/model"
	"github.com/tradepit/arena/internal/room"
)

func newTestAPI(t *testing.T) (*API, *room.Directory, *archive.MemoryStore) {
	t.Helper()
	dir := room.NewDirectory(room.NopBroadcaster{}, rand.New(rand.NewSource(21)))
	store := archive.NewMemoryStore()
	return NewAPI(dir, store), dir, store
}

func apiRouter(a *API) chi.Router {
	r := chi.NewRouter()
	r.Get("/api/v1/stocks", a.ListStocks)
	r.Get("/api/v1/scenarios", a.ListScenarios)
	r.Get("/api/v1/rooms/{roomID}", a.GetRoom)
	r.Get("/api/v1/results", a.ListResults)
	r.Get("/api/v1/results/{roomID}", a.GetResult)
	return r
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListStocks(t *testing.T) {
	a, _, _ := newTestAPI(t)
	rec := doGet(t, apiRouter(a), "/api/v1/stocks")

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var stocks []model.Stock
	if err := json.Unmarshal(rec.Body.Bytes(), &stocks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stocks) != len(model.Stocks) {
		t.Errorf("got %d stocks, want %d", len(stocks), len(model.Stocks))
	}
}

func TestListScenarios(t *testing.T) {
	a, _, _ := newTestAPI(t)
	rec := doGet(t, apiRouter(a), "/api/v1/scenarios")

	var scenarios []model.ScenarioConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &scenarios); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(scenarios) != len(model.Scenarios) {
		t.Errorf("got %d scenarios, want %d", len(scenarios), len(model.Scenarios))
	}
}

func TestGetRoom(t *testing.T) {
	a, dir, _ := newTestAPI(t)
	sess, err := dir.CreateRoom("conn-1", "alice", "TCS", "bullish", time.Unix(1000, 0))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := doGet(t, apiRouter(a), "/api/v1/rooms/"+sess.ID())
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var snap room.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Code != sess.Code() || snap.Status != model.StatusWaiting {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	rec = doGet(t, apiRouter(a), "/api/v1/rooms/room-NOPE")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing room status %d, want 404", rec.Code)
	}
}

func TestResults(t *testing.T) {
	a, _, store := newTestAPI(t)
	store.SaveResult(context.Background(), &model.GameResult{
		RoomID:   "room-1",
		RoomCode: "ABCDEF",
		EndedAt:  time.Unix(5000, 0),
		Leaderboard: []model.LeaderboardEntry{
			{ID: "p1", Name: "alice", Balance: decimal.NewFromInt(500_000)},
		},
	})
	router := apiRouter(a)

	rec := doGet(t, router, "/api/v1/results")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d", rec.Code)
	}
	var results []model.GameResult
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}

	rec = doGet(t, router, "/api/v1/results/room-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status %d", rec.Code)
	}
	rec = doGet(t, router, "/api/v1/results/room-2")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing result status %d, want 404", rec.Code)
	}
	rec = doGet(t, router, "/api/v1/results?limit=0")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status %d, want 400", rec.Code)
	}
}
