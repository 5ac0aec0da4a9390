package domain

import "sort"

// DefaultLeaderboardSize is the number of participants shown on the board.
const DefaultLeaderboardSize = 10

// RankLeaderboard orders entries by score descending then duration ascending,
// keeps the best row per phone number and truncates to limit.
// Rows that tie keep their input order.
func RankLeaderboard(entries []LeaderboardEntry, limit int) []LeaderboardEntry {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	sorted := make([]LeaderboardEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Duration < sorted[j].Duration
	})

	seen := make(map[string]struct{}, len(sorted))
	ranked := make([]LeaderboardEntry, 0, limit)
	for _, entry := range sorted {
		if _, ok := seen[entry.Phone]; ok {
			continue
		}
		seen[entry.Phone] = struct{}{}
		ranked = append(ranked, entry)
		if len(ranked) == limit {
			break
		}
	}
	return ranked
}
