package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmissionGuard claims submission keys with SET NX so every backend instance shares the window.
type SubmissionGuard struct {
	client *redis.Client
}

func NewSubmissionGuard(client *redis.Client) *SubmissionGuard {
	return &SubmissionGuard{client: client}
}

func (g *SubmissionGuard) Claim(ctx context.Context, key string, window time.Duration) (bool, error) {
	return g.client.SetNX(ctx, g.key(key), 1, window).Result()
}

func (g *SubmissionGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.key(key)).Err()
}

func (g *SubmissionGuard) key(key string) string {
	return "quiz:submission:" + key
}
