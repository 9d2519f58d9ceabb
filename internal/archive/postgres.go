package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tradepit/arena/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
//
// Schema: a game_results row per finished game, plus one game_standings row
// per leaderboard entry keyed by (room_id, rank).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed archive.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) SaveResult(ctx context.Context, r *model.GameResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO game_results (room_id, room_code, stock_symbol, scenario_id, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.RoomID, r.RoomCode, r.StockSymbol, r.ScenarioID, r.StartedAt, r.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result %s: %w", r.RoomID, err)
	}

	for i, e := range r.Leaderboard {
		_, err = tx.Exec(ctx,
			`INSERT INTO game_standings (room_id, rank, player_id, player_name, pnl, roi, balance)
			 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC)`,
			r.RoomID, i+1, e.ID, e.Name,
			e.PnL.String(), e.ROI.String(), e.Balance.String(),
		)
		if err != nil {
			return fmt.Errorf("insert standing %s/%d: %w", r.RoomID, i+1, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetResult(ctx context.Context, roomID string) (*model.GameResult, error) {
	var r model.GameResult
	err := s.pool.QueryRow(ctx,
		`SELECT room_id, room_code, stock_symbol, scenario_id, started_at, ended_at
		 FROM game_results WHERE room_id = $1`, roomID).
		Scan(&r.RoomID, &r.RoomCode, &r.StockSymbol, &r.ScenarioID, &r.StartedAt, &r.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result %s: %w", roomID, err)
	}

	r.Leaderboard, err = s.standings(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) ListResults(ctx context.Context, limit int) ([]model.GameResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT room_id, room_code, stock_symbol, scenario_id, started_at, ended_at
		 FROM game_results ORDER BY ended_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.GameResult
	for rows.Next() {
		var r model.GameResult
		if err := rows.Scan(&r.RoomID, &r.RoomCode, &r.StockSymbol, &r.ScenarioID,
			&r.StartedAt, &r.EndedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		results[i].Leaderboard, err = s.standings(ctx, results[i].RoomID)
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *PostgresStore) standings(ctx context.Context, roomID string) ([]model.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT player_id, player_name, pnl::TEXT, roi::TEXT, balance::TEXT
		 FROM game_standings WHERE room_id = $1 ORDER BY rank`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		var pnlS, roiS, balanceS string
		if err := rows.Scan(&e.ID, &e.Name, &pnlS, &roiS, &balanceS); err != nil {
			return nil, err
		}
		e.PnL, _ = decimal.NewFromString(pnlS)
		e.ROI, _ = decimal.NewFromString(roiS)
		e.Balance, _ = decimal.NewFromString(balanceS)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
