package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"vocab-quiz/internal/domain"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(rt http.RoundTripper) *Client {
	return NewClient("https://script.example/exec", &http.Client{Transport: rt})
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func TestLoadQuestionsParsesSuccess(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodGet || r.Header.Get("Cache-Control") != "no-store" {
			t.Fatalf("unexpected request %s cache=%q", r.Method, r.Header.Get("Cache-Control"))
		}
		return jsonResponse(http.StatusOK, `{"status":"success","data":[{"id":"1","word":"brave","sentence":"A brave dog.","meaning":"dũng cảm","audioUrl":"https://a/brave.mp3","options":["dũng cảm","buồn"]}]}`), nil
	}))

	questions, err := client.LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("LoadQuestions returned error: %v", err)
	}
	if len(questions) != 1 || questions[0].AudioURL != "https://a/brave.mp3" || questions[0].Options[1] != "buồn" {
		t.Fatalf("unexpected questions %+v", questions)
	}
}

func TestLoadQuestionsErrorStatusInBody(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"status":"error","message":"sheet missing"}`), nil
	}))

	_, err := client.LoadQuestions(context.Background())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestLoadQuestionsPropagatesNonOKStatus(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, ""), nil
	}))
	if _, err := client.LoadQuestions(context.Background()); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected error for non-200 status, got %v", err)
	}
}

func TestLoadQuestionsJSONDecodeError(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, "not-json"), nil
	}))
	if _, err := client.LoadQuestions(context.Background()); err == nil {
		t.Fatalf("expected JSON decode error")
	}
}

func TestNotifyResultPostsMailPayload(t *testing.T) {
	var got resultMail
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("unexpected request %s %q", r.Method, r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"ok":true}`), nil
	}))

	err := client.NotifyResult(context.Background(), domain.ExamResult{
		Name: "Lan", Email: "lan@gmail.com", Phone: "0912345678", Score: 9.5, Duration: 61,
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	want := resultMail{Name: "Lan", Email: "lan@gmail.com", Score: 9.5, Duration: 61}
	if got != want {
		t.Fatalf("payload = %+v, want %+v", got, want)
	}
}

func TestNotifyResultTransportFailure(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial error")
	}))
	if err := client.NotifyResult(context.Background(), domain.ExamResult{}); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient("  ", nil)
	if _, err := client.LoadQuestions(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
	if err := client.NotifyResult(context.Background(), domain.ExamResult{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
}
