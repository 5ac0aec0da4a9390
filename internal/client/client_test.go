package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vocab-quiz/internal/app"
	"vocab-quiz/internal/domain"
	"vocab-quiz/internal/infra/memory"
	transport "vocab-quiz/internal/transport/http"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	client := New("http://example.test", &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial error")
		}),
	})

	_, err := client.FetchQuestions(context.Background())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestFetchQuestionsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/questions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"cannot load questions"}`))
	}))
	defer server.Close()

	_, err := New(server.URL, server.Client()).FetchQuestions(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Message != "cannot load questions" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("api error must classify as network error")
	}
}

func TestFetchQuestionsSuccessBodyWithErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"sheet locked"}`))
	}))
	defer server.Close()

	_, err := New(server.URL, server.Client()).FetchQuestions(context.Background())
	if !errors.Is(err, domain.ErrNetwork) || err.Error() != "sheet locked" {
		t.Fatalf("expected sheet locked network error, got %v", err)
	}
}

func TestFetchQuestionsParsesData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":[{"id":"q1","word":"brave","sentence":"Be brave.","meaning":"dũng cảm","audioUrl":"","options":["dũng cảm","vui"]}]}`))
	}))
	defer server.Close()

	qs, err := New(server.URL+"/", server.Client()).FetchQuestions(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(qs) != 1 || qs[0].Meaning != "dũng cảm" {
		t.Fatalf("unexpected questions %+v", qs)
	}
}

func TestSubmitResultDuplicate(t *testing.T) {
	var got domain.ResultSubmission
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/submit-result" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"success":true,"message":"duplicate"}`))
	}))
	defer server.Close()

	sub := domain.ResultSubmission{Name: "Lan", Phone: "0912345678", Email: "lan@gmail.com", Score: 6, Duration: 40}
	out, err := New(server.URL, server.Client()).SubmitResult(context.Background(), sub)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !out.Duplicate {
		t.Fatalf("expected duplicate outcome")
	}
	if got != sub {
		t.Fatalf("server saw %+v, want %+v", got, sub)
	}
}

func TestSaveFeedbackNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"no result for this email"}`))
	}))
	defer server.Close()

	err := New(server.URL, server.Client()).SaveFeedback(context.Background(), "lan@gmail.com", "hi")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "no result for this email" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLeaderboardBuildsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "10" {
			t.Fatalf("expected limit=10, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"entries":[{"name":"Lan","score":9.5,"duration":31,"phone":"0912345678"}]}`))
	}))
	defer server.Close()

	entries, err := New(server.URL, server.Client()).Leaderboard(context.Background(), 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	want := domain.LeaderboardEntry{Name: "Lan", Score: 9.5, Duration: 31, Phone: "0912345678"}
	if len(entries) != 1 || entries[0] != want {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

type emptyBank struct{}

func (emptyBank) LoadQuestions(context.Context) ([]domain.Question, error) {
	return []domain.Question{}, nil
}

func TestEmptyBankReachesEngineAsContentError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := httptest.NewServer(transport.NewRouter(transport.Dependencies{
		Logger:    logger,
		Questions: app.NewQuestionService(memory.NewQuestionRepository(emptyBank{}, time.Minute), logger),
		Results: app.NewResultService(memory.NewResultRepository(), memory.NewSubmissionGuard(), app.NewLeaderboardHub(),
			app.WithResultLogger(logger)),
	}))
	defer server.Close()

	backend := New(server.URL, server.Client())
	questions, err := backend.FetchQuestions(context.Background())
	if err != nil || len(questions) != 0 {
		t.Fatalf("expected an empty question set, got %d questions err=%v", len(questions), err)
	}

	engine := app.NewEngine(memory.NewSessionStore(), backend, app.WithLogger(logger))
	err = engine.Start(context.Background())
	if !errors.Is(err, domain.ErrContent) {
		t.Fatalf("expected content error, got %v", err)
	}
	if errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("empty bank must not look like a network failure: %v", err)
	}
	if engine.Snapshot().Phase != app.PhaseFailed {
		t.Fatalf("expected failed engine, got %s", engine.Snapshot().Phase)
	}
}
