package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"vocab-quiz/internal/domain"
)

func openTestStore(t *testing.T, path, slot string) *SessionStore {
	t.Helper()
	store, err := Open(path, slot)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "session.db")

	store := openTestStore(t, path, "default")
	user := domain.UserIdentity{Name: "Lan", Phone: "0912345678", Email: "lan@gmail.com"}
	if err := store.Write(ctx, domain.SessionPatch{UserData: &user, View: domain.ViewRegister}); err != nil {
		t.Fatalf("write user: %v", err)
	}
	progress := domain.QuizProgress{
		Questions:      []domain.Question{{ID: "q1", Word: "brave", Meaning: "dũng cảm"}},
		CurrentIndex:   1,
		CorrectCount:   1,
		ElapsedSeconds: 25,
	}
	if err := store.Write(ctx, domain.SessionPatch{View: domain.ViewQuiz, QuizState: &progress}); err != nil {
		t.Fatalf("write progress: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openTestStore(t, path, "default")
	rec, ok, err := reopened.Read(ctx)
	if err != nil || !ok {
		t.Fatalf("read: ok=%v err=%v", ok, err)
	}
	if rec.UserData == nil || *rec.UserData != user || rec.View != domain.ViewQuiz {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.QuizState == nil || rec.QuizState.ElapsedSeconds != 25 || rec.QuizState.Questions[0].Meaning != "dũng cảm" {
		t.Fatalf("progress not restored: %+v", rec.QuizState)
	}

	other := openTestStore(t, path, "other")
	if _, ok, _ := other.Read(ctx); ok {
		t.Fatalf("slots must be isolated")
	}

	if err := reopened.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := reopened.Read(ctx); ok {
		t.Fatalf("expected cleared slot")
	}
}

func TestSessionStoreDropsCorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "session.db"), "default")

	if _, err := store.db.ExecContext(ctx,
		`INSERT INTO session_slots (slot, data, updated_at) VALUES ('default', '{oops', '')`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok, err := store.Read(ctx); ok || !errors.Is(err, domain.ErrCorruptSession) {
		t.Fatalf("expected corrupt session, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.Read(ctx); ok || err != nil {
		t.Fatalf("expected corrupt row removed, got ok=%v err=%v", ok, err)
	}
}

func TestSessionStoreWriteOverCorruptStartsFresh(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "session.db"), "default")
	if _, err := store.db.ExecContext(ctx,
		`INSERT INTO session_slots (slot, data, updated_at) VALUES ('default', 'nope', '')`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := store.Write(ctx, domain.SessionPatch{View: domain.ViewGuide}); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec, ok, err := store.Read(ctx)
	if err != nil || !ok || rec.View != domain.ViewGuide {
		t.Fatalf("unexpected record %+v ok=%v err=%v", rec, ok, err)
	}
}
