package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"vocab-quiz/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore.
// The record is kept as JSON so it behaves like the durable stores, corruption included.
type SessionStore struct {
	mu   sync.Mutex
	data []byte
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Read(_ context.Context) (domain.SessionRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return domain.SessionRecord{}, false, nil
	}
	var rec domain.SessionRecord
	if err := json.Unmarshal(s.data, &rec); err != nil {
		s.data = nil
		return domain.SessionRecord{}, false, fmt.Errorf("%w: %v", domain.ErrCorruptSession, err)
	}
	return rec, true, nil
}

// Write merges patch into the stored record under the store lock.
func (s *SessionStore) Write(_ context.Context, patch domain.SessionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec domain.SessionRecord
	if s.data != nil {
		if err := json.Unmarshal(s.data, &rec); err != nil {
			rec = domain.SessionRecord{}
		}
	}
	data, err := json.Marshal(patch.Apply(rec))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	s.data = data
	return nil
}

func (s *SessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}
