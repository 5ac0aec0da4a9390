package memory

import (
	"context"
	"errors"
	"testing"

	"vocab-quiz/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if _, ok, err := store.Read(ctx); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	user := domain.UserIdentity{Name: "Lan", Phone: "0912345678", Email: "lan@gmail.com"}
	if err := store.Write(ctx, domain.SessionPatch{UserData: &user, View: domain.ViewRegister}); err != nil {
		t.Fatalf("write user: %v", err)
	}
	progress := domain.QuizProgress{Questions: sampleQuestions(), CurrentIndex: 1, CorrectCount: 1, ElapsedSeconds: 12}
	if err := store.Write(ctx, domain.SessionPatch{View: domain.ViewQuiz, QuizState: &progress}); err != nil {
		t.Fatalf("write progress: %v", err)
	}

	rec, ok, err := store.Read(ctx)
	if err != nil || !ok {
		t.Fatalf("read: ok=%v err=%v", ok, err)
	}
	if rec.UserData == nil || *rec.UserData != user {
		t.Fatalf("merge lost user data: %+v", rec)
	}
	if rec.View != domain.ViewQuiz || rec.QuizState == nil || rec.QuizState.ElapsedSeconds != 12 {
		t.Fatalf("unexpected record %+v", rec)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Read(ctx); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreDropsCorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	store.data = []byte("{not json")

	_, ok, err := store.Read(ctx)
	if ok || !errors.Is(err, domain.ErrCorruptSession) {
		t.Fatalf("expected corrupt session error, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.Read(ctx); ok || err != nil {
		t.Fatalf("expected corrupt record dropped, got ok=%v err=%v", ok, err)
	}
}

func TestSessionStoreWriteOverCorruptStartsFresh(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	store.data = []byte("garbage")

	if err := store.Write(ctx, domain.SessionPatch{View: domain.ViewQuiz}); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec, ok, err := store.Read(ctx)
	if err != nil || !ok || rec.View != domain.ViewQuiz || rec.UserData != nil {
		t.Fatalf("unexpected record %+v ok=%v err=%v", rec, ok, err)
	}
}
