package archive

import (
	"context"
	"sort"
	"sync"

	"github.com/tradepit/arena/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for development
// and testing. Not suitable for production (no persistence).
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*model.GameResult
}

// NewMemoryStore creates a new in-memory archive.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]*model.GameResult)}
}

func (s *MemoryStore) SaveResult(_ context.Context, r *model.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to avoid external mutation.
	cp := *r
	cp.Leaderboard = append([]model.LeaderboardEntry(nil), r.Leaderboard...)
	s.results[r.RoomID] = &cp
	return nil
}

func (s *MemoryStore) GetResult(_ context.Context, roomID string) (*model.GameResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	cp.Leaderboard = append([]model.LeaderboardEntry(nil), r.Leaderboard...)
	return &cp, nil
}

func (s *MemoryStore) ListResults(_ context.Context, limit int) ([]model.GameResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]model.GameResult, 0, len(s.results))
	for _, r := range s.results {
		cp := *r
		cp.Leaderboard = append([]model.LeaderboardEntry(nil), r.Leaderboard...)
		results = append(results, cp)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].EndedAt.After(results[j].EndedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
