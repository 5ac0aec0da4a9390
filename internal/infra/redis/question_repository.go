package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"vocab-quiz/internal/domain"
	"vocab-quiz/internal/infra/memory"
)

// QuestionRepository caches the question bank in Redis and falls back to a loader on cache miss.
// Questions are stored in order as JSON elements: RPUSH quiz:bank:{bankID} {question...}
type QuestionRepository struct {
	client *redis.Client
	loader memory.QuestionLoader
	bankID string
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, bankID string, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		bankID: bankID,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context) ([]domain.Question, error) {
	if qs, ok := r.cached(ctx); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(r.bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := r.cached(ctx); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		values := make([]interface{}, 0, len(qs))
		for _, q := range qs {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("encode question %s: %w", q.ID, err)
			}
			values = append(values, raw)
		}

		key := r.key()
		pipe := r.client.TxPipeline()
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		// a failed cache fill only costs another load next time
		_, _ = pipe.Exec(ctx)

		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) cached(ctx context.Context) ([]domain.Question, bool) {
	items, err := r.client.LRange(ctx, r.key(), 0, -1).Result()
	if err != nil || len(items) == 0 {
		return nil, false
	}
	qs := make([]domain.Question, 0, len(items))
	for _, item := range items {
		var q domain.Question
		if err := json.Unmarshal([]byte(item), &q); err != nil {
			return nil, false
		}
		qs = append(qs, q)
	}
	return qs, true
}

func (r *QuestionRepository) key() string {
	return "quiz:bank:" + r.bankID
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
