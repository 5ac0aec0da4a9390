package domain

import "testing"

func TestRankLeaderboardOrdersAndDedupes(t *testing.T) {
	entries := []LeaderboardEntry{
		{Name: "An", Phone: "0900000001", Score: 8, Duration: 50},
		{Name: "Binh", Phone: "0900000002", Score: 10, Duration: 70},
		{Name: "An", Phone: "0900000001", Score: 9, Duration: 40},
		{Name: "Chi", Phone: "0900000003", Score: 10, Duration: 30},
		{Name: "Binh", Phone: "0900000002", Score: 10, Duration: 90},
	}

	got := RankLeaderboard(entries, 10)
	want := []string{"0900000003", "0900000002", "0900000001"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(got), got)
	}
	for i, phone := range want {
		if got[i].Phone != phone {
			t.Fatalf("position %d: expected %s, got %+v", i, phone, got[i])
		}
	}
	if got[1].Duration != 70 || got[2].Score != 9 {
		t.Fatalf("expected best row per phone, got %+v", got)
	}
}

func TestRankLeaderboardTruncates(t *testing.T) {
	entries := make([]LeaderboardEntry, 0, 15)
	for i := 0; i < 15; i++ {
		entries = append(entries, LeaderboardEntry{
			Phone:    string(rune('a' + i)),
			Score:    float64(i % 10),
			Duration: i,
		})
	}
	got := RankLeaderboard(entries, 0)
	if len(got) != DefaultLeaderboardSize {
		t.Fatalf("expected default size %d, got %d", DefaultLeaderboardSize, len(got))
	}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.Score < cur.Score || (prev.Score == cur.Score && prev.Duration > cur.Duration) {
			t.Fatalf("entries out of order at %d: %+v then %+v", i, prev, cur)
		}
	}
}

func TestRankLeaderboardDoesNotMutateInput(t *testing.T) {
	entries := []LeaderboardEntry{{Phone: "1", Score: 1}, {Phone: "2", Score: 2}}
	_ = RankLeaderboard(entries, 10)
	if entries[0].Phone != "1" {
		t.Fatalf("input slice reordered")
	}
}
