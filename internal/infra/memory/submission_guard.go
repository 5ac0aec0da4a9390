package memory

import (
	"context"
	"sync"
	"time"
)

// SubmissionGuard remembers claimed submission keys until their window expires.
type SubmissionGuard struct {
	mu     sync.Mutex
	now    func() time.Time
	claims map[string]time.Time
}

func NewSubmissionGuard() *SubmissionGuard {
	return &SubmissionGuard{now: time.Now, claims: make(map[string]time.Time)}
}

func (g *SubmissionGuard) Claim(_ context.Context, key string, window time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, expires := range g.claims {
		if !expires.After(now) {
			delete(g.claims, k)
		}
	}
	if _, ok := g.claims[key]; ok {
		return false, nil
	}
	g.claims[key] = now.Add(window)
	return true, nil
}

func (g *SubmissionGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claims, key)
	return nil
}
