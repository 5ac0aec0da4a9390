package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"vocab-quiz/internal/domain"
)

// ResultRepository keeps exam results in memory (single-node demos and tests).
type ResultRepository struct {
	mu      sync.RWMutex
	results []domain.ExamResult
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{}
}

func (r *ResultRepository) Insert(_ context.Context, result domain.ExamResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

func (r *ResultRepository) FindRecent(_ context.Context, phone string, score float64, duration int, since time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.results {
		if res.Phone == phone && res.Score == score && res.Duration == duration && !res.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *ResultRepository) LatestByEmail(_ context.Context, email string) (domain.ExamResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		latest domain.ExamResult
		found  bool
	)
	for _, res := range r.results {
		if !strings.EqualFold(res.Email, email) {
			continue
		}
		if !found || !res.CreatedAt.Before(latest.CreatedAt) {
			latest, found = res, true
		}
	}
	if !found {
		return domain.ExamResult{}, domain.ErrResultNotFound
	}
	return latest, nil
}

func (r *ResultRepository) UpdateFeedback(_ context.Context, id, feedback string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.results {
		if r.results[i].ID == id {
			r.results[i].Feedback = feedback
			return nil
		}
	}
	return domain.ErrResultNotFound
}

func (r *ResultRepository) TopResults(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	r.mu.RLock()
	entries := make([]domain.LeaderboardEntry, 0, len(r.results))
	for _, res := range r.results {
		entries = append(entries, domain.LeaderboardEntry{
			Name:     res.Name,
			Score:    res.Score,
			Duration: res.Duration,
			Phone:    res.Phone,
		})
	}
	r.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Duration < entries[j].Duration
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns a stored result by id.
func (r *ResultRepository) Get(id string) (domain.ExamResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.results {
		if res.ID == id {
			return res, true
		}
	}
	return domain.ExamResult{}, false
}

// Len is the number of stored results.
func (r *ResultRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.results)
}
