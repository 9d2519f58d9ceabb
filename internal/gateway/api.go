package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tradepit/arena/internal/archive"
	"github.com/tradepit/arena/internal/model"
	"github.com/tradepit/arena/internal/room"
)

// API serves the read-only REST surface next to the WebSocket gateway:
// catalogs, live room lookups and archived results.
type API struct {
	dir   *room.Directory
	store archive.Store
}

// NewAPI creates the REST handler set.
func NewAPI(dir *room.Directory, store archive.Store) *API {
	return &API{dir: dir, store: store}
}

// ListStocks handles GET /api/v1/stocks
func (a *API) ListStocks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, model.Stocks)
}

// ListScenarios handles GET /api/v1/scenarios
func (a *API) ListScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, model.Scenarios)
}

// GetRoom handles GET /api/v1/rooms/{roomID}
func (a *API) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	sess, ok := a.dir.Lookup(roomID)
	if !ok {
		writeError(w, room.ErrRoomNotFound.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, sess.Snapshot())
}

// ListResults handles GET /api/v1/results?limit=N
func (a *API) ListResults(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, "limit must be 1-100", http.StatusBadRequest)
			return
		}
		limit = n
	}

	results, err := a.store.ListResults(r.Context(), limit)
	if err != nil {
		writeError(w, "listing results failed", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []model.GameResult{}
	}
	writeJSON(w, results)
}

// GetResult handles GET /api/v1/results/{roomID}
func (a *API) GetResult(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	result, err := a.store.GetResult(r.Context(), roomID)
	if errors.Is(err, archive.ErrNotFound) {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "fetching result failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
