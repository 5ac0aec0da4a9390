package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vocab-quiz/internal/domain"
)

const maxWriteRetries = 5

// SessionStore keeps one participant's session record as JSON under a single key.
// Writes merge inside a WATCH/MULTI transaction so two near-simultaneous patches never
// overwrite each other.
type SessionStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, slot string, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, key: "quiz:session:" + slot, ttl: ttl}
}

func (s *SessionStore) Read(ctx context.Context) (domain.SessionRecord, bool, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionRecord{}, false, nil
	}
	if err != nil {
		return domain.SessionRecord{}, false, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	var rec domain.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		_ = s.client.Del(ctx, s.key).Err()
		return domain.SessionRecord{}, false, fmt.Errorf("%w: %v", domain.ErrCorruptSession, err)
	}
	return rec, true, nil
}

func (s *SessionStore) Write(ctx context.Context, patch domain.SessionPatch) error {
	txf := func(tx *redis.Tx) error {
		var rec domain.SessionRecord
		raw, err := tx.Get(ctx, s.key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if jsonErr := json.Unmarshal(raw, &rec); jsonErr != nil {
				rec = domain.SessionRecord{}
			}
		}

		data, err := json.Marshal(patch.Apply(rec))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxWriteRetries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return fmt.Errorf("%w: write conflicted %d times", domain.ErrPersistence, maxWriteRetries)
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}
