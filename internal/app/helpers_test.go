package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"vocab-quiz/internal/domain"
)

// manualClock fires ticks and timers only when the test asks.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTask
	timers  []*manualTask
}

type manualTask struct {
	fn   func()
	done bool
}

func (c *manualClock) Every(_ time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	task := &manualTask{fn: fn}
	c.tickers = append(c.tickers, task)
	return func() {
		c.mu.Lock()
		task.done = true
		c.mu.Unlock()
	}
}

func (c *manualClock) AfterFunc(_ time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	task := &manualTask{fn: fn}
	c.timers = append(c.timers, task)
	return func() {
		c.mu.Lock()
		task.done = true
		c.mu.Unlock()
	}
}

// Tick advances every running ticker n times.
func (c *manualClock) Tick(n int) {
	for i := 0; i < n; i++ {
		c.mu.Lock()
		var fns []func()
		for _, t := range c.tickers {
			if !t.done {
				fns = append(fns, t.fn)
			}
		}
		c.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}

// FireTimers runs every pending one-shot timer.
func (c *manualClock) FireTimers() {
	c.mu.Lock()
	var fns []func()
	for _, t := range c.timers {
		if !t.done {
			t.done = true
			fns = append(fns, t.fn)
		}
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *manualClock) RunningTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.done {
			n++
		}
	}
	return n
}

type stubSource struct {
	mu        sync.Mutex
	questions []domain.Question
	err       error
	calls     int
	release   chan struct{}
}

func (s *stubSource) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	s.mu.Lock()
	s.calls++
	release := s.release
	s.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.questions, s.err
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// failingStore rejects every operation.
type failingStore struct{}

func (failingStore) Read(context.Context) (domain.SessionRecord, bool, error) {
	return domain.SessionRecord{}, false, errors.New("disk unavailable")
}

func (failingStore) Write(context.Context, domain.SessionPatch) error {
	return fmt.Errorf("%w: quota exceeded", domain.ErrPersistence)
}

func (failingStore) Clear(context.Context) error {
	return errors.New("disk unavailable")
}

// corruptStore reports a corrupt record once, like a store that just dropped it.
type corruptStore struct {
	cleared bool
}

func (s *corruptStore) Read(context.Context) (domain.SessionRecord, bool, error) {
	if s.cleared {
		return domain.SessionRecord{}, false, nil
	}
	s.cleared = true
	return domain.SessionRecord{}, false, fmt.Errorf("%w: unexpected end of JSON input", domain.ErrCorruptSession)
}

func (s *corruptStore) Write(context.Context, domain.SessionPatch) error { return nil }
func (s *corruptStore) Clear(context.Context) error                      { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// makeQuestions builds n questions whose meaning is "m<i>".
func makeQuestions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		meaning := fmt.Sprintf("m%d", i)
		qs[i] = domain.Question{
			ID:       fmt.Sprintf("q%d", i),
			Word:     fmt.Sprintf("word%d", i),
			Sentence: fmt.Sprintf("A sentence with word%d inside.", i),
			Meaning:  meaning,
			Options:  []string{"wrong-a", meaning, "wrong-b"},
		}
	}
	return qs
}
