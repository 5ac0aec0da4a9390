// Package sqlite keeps the player's session slot in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vocab-quiz/internal/domain"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SessionStore persists one session record per slot key.
type SessionStore struct {
	db   *sql.DB
	slot string
	now  func() time.Time
}

// Open opens or creates the database at path and applies migrations.
func Open(path, slot string) (*SessionStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	store := &SessionStore{db: db, slot: slot, now: time.Now}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

func (s *SessionStore) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS session_slots (
			slot TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SessionStore) Read(ctx context.Context) (domain.SessionRecord, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM session_slots WHERE slot = ?`, s.slot).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SessionRecord{}, false, nil
	}
	if err != nil {
		return domain.SessionRecord{}, false, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM session_slots WHERE slot = ?`, s.slot)
		return domain.SessionRecord{}, false, fmt.Errorf("%w: %v", domain.ErrCorruptSession, err)
	}
	return rec, true, nil
}

// Write merges patch into the stored record inside one transaction.
func (s *SessionStore) Write(ctx context.Context, patch domain.SessionPatch) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var rec domain.SessionRecord
	var raw string
	switch scanErr := tx.QueryRowContext(ctx, `SELECT data FROM session_slots WHERE slot = ?`, s.slot).Scan(&raw); {
	case errors.Is(scanErr, sql.ErrNoRows):
	case scanErr != nil:
		return fmt.Errorf("%w: %v", domain.ErrPersistence, scanErr)
	default:
		if jsonErr := json.Unmarshal([]byte(raw), &rec); jsonErr != nil {
			rec = domain.SessionRecord{}
		}
	}

	data, err := json.Marshal(patch.Apply(rec))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO session_slots (slot, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.slot, string(data), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_slots WHERE slot = ?`, s.slot); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}
