package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradepit/arena/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and populate the cache; reads check
// Redis first then fall back to the primary. Results are immutable once
// written, so there is no invalidation concern beyond TTL expiry.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary archive.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) SaveResult(ctx context.Context, r *model.GameResult) error {
	if err := s.primary.SaveResult(ctx, r); err != nil {
		return err
	}
	s.cacheResult(ctx, r)
	return nil
}

func (s *CachedStore) GetResult(ctx context.Context, roomID string) (*model.GameResult, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, resultKey(roomID)).Bytes()
	if err == nil {
		var r model.GameResult
		if json.Unmarshal(data, &r) == nil {
			return &r, nil
		}
	}

	// Cache miss: read from primary.
	r, err := s.primary.GetResult(ctx, roomID)
	if err != nil {
		return nil, err
	}

	s.cacheResult(ctx, r)
	return r, nil
}

// ListResults is a passthrough; the listing changes with every finished
// game so caching it buys little.
func (s *CachedStore) ListResults(ctx context.Context, limit int) ([]model.GameResult, error) {
	return s.primary.ListResults(ctx, limit)
}

func (s *CachedStore) cacheResult(ctx context.Context, r *model.GameResult) {
	if data, err := json.Marshal(r); err == nil {
		s.rdb.Set(ctx, resultKey(r.RoomID), data, s.ttl)
	}
}

func resultKey(roomID string) string { return fmt.Sprintf("result:%s", roomID) }
