// Package archive persists finished-game results. Implementations include
// PostgreSQL (source of truth), Redis (read-through cache), and in-memory
// (for development and testing). The live game never depends on the
// archive; a failed save loses history, not gameplay.
package archive

import (
	"context"
	"errors"

	"github.com/tradepit/arena/internal/model"
)

// ErrNotFound is returned when no result exists for the requested room.
var ErrNotFound = errors.New("result not found")

// Store is the archive interface.
type Store interface {
	// SaveResult persists the outcome of one finished game.
	SaveResult(ctx context.Context, result *model.GameResult) error

	// GetResult retrieves a finished game by its room id.
	GetResult(ctx context.Context, roomID string) (*model.GameResult, error)

	// ListResults returns up to limit results, most recently ended first.
	ListResults(ctx context.Context, limit int) ([]model.GameResult, error)
}
