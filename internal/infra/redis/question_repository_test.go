package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"vocab-quiz/internal/domain"
	"vocab-quiz/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions()),
	}
	repo := NewQuestionRepository(client, loader, "default", time.Minute)

	qs, err := repo.GetQuestions(context.Background())
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:bank:default") {
		t.Fatalf("expected bank cached in redis")
	}
	if mr.TTL("quiz:bank:default") < time.Minute {
		t.Fatalf("expected ttl of at least a minute, got %v", mr.TTL("quiz:bank:default"))
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetQuestions(context.Background())
	if err != nil {
		t.Fatalf("get cached questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(cached) != len(qs) || cached[0].Meaning != qs[0].Meaning || cached[1].Options[1] != "yên tĩnh" {
		t.Fatalf("cached questions differ: %+v", cached)
	}
}

func TestQuestionRepositoryReloadsAfterExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	repo := NewQuestionRepository(newClient(mr), loader, "default", time.Minute)

	_, _ = repo.GetQuestions(context.Background())
	mr.FastForward(2 * time.Minute)
	_, _ = repo.GetQuestions(context.Background())
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:       "q1",
			Word:     "brave",
			Sentence: "The brave firefighter ran inside.",
			Meaning:  "dũng cảm",
			AudioURL: "https://audio.example/brave.mp3",
			Options:  []string{"dũng cảm", "lười biếng", "chậm chạp"},
		},
		{
			ID:       "q2",
			Word:     "quiet",
			Sentence: "Please keep the library quiet.",
			Meaning:  "yên tĩnh",
			Options:  []string{"ồn ào", "yên tĩnh", "vội vàng"},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
