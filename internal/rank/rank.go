// Package rank computes the room leaderboard.
package rank

import (
	"sort"

	"github.com/tradepit/arena/internal/model"
)

// Leaderboard projects the roster to ranked entries, descending by total
// P&L. The sort is stable, so ties keep roster (join) order.
func Leaderboard(players []*model.Player) []model.LeaderboardEntry {
	entries := make([]model.LeaderboardEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, model.LeaderboardEntry{
			ID:      p.ID,
			Name:    p.Name,
			PnL:     p.PnL,
			ROI:     p.ROI,
			Balance: p.Equity(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PnL.GreaterThan(entries[j].PnL)
	})
	return entries
}
