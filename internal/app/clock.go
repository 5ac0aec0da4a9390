package app

import (
	"sync"
	"time"
)

// Clock schedules the engine's repeating tick and its one-shot feedback delay.
// Callbacks run on their own goroutine; the engine serializes them.
type Clock interface {
	// Every calls fn every d until the returned stop function is called.
	Every(d time.Duration, fn func()) (stop func())
	// AfterFunc calls fn once after d unless the returned cancel function is called first.
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// SystemClock is the wall-clock implementation of Clock.
type SystemClock struct{}

func (SystemClock) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

func (SystemClock) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
