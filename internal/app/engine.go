package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vocab-quiz/internal/domain"
)

// SessionStore is the durable slot holding one participant's journey.
// Write shallow-merges the patch into the stored record.
type SessionStore interface {
	Read(ctx context.Context) (domain.SessionRecord, bool, error)
	Write(ctx context.Context, patch domain.SessionPatch) error
	Clear(ctx context.Context) error
}

// QuestionSource returns the ordered question set for a new quiz.
type QuestionSource interface {
	FetchQuestions(ctx context.Context) ([]domain.Question, error)
}

const (
	defaultTickInterval  = time.Second
	defaultFeedbackDelay = time.Second
	defaultPersistEvery  = 5
)

// Snapshot is a read-only view of the engine after a transition.
type Snapshot struct {
	Seq            uint64
	Phase          Phase
	Question       *domain.Question
	Index          int
	Total          int
	CorrectCount   int
	ElapsedSeconds int
	Answered       bool
	Selected       string
	Correct        bool
	Result         *domain.QuizResult
	Err            error
}

// Option configures an Engine.
type Option func(*Engine)

// WithPrefetched supplies questions fetched ahead of time (e.g. while the guide was shown).
func WithPrefetched(questions []domain.Question) Option {
	return func(e *Engine) {
		e.prefetched = append([]domain.Question(nil), questions...)
	}
}

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver registers fn to receive a snapshot after every transition.
// fn runs outside the engine lock and may call back into the engine.
func WithObserver(fn func(Snapshot)) Option {
	return func(e *Engine) { e.observer = fn }
}

// WithTiming overrides the clock tick, the answer feedback delay and how many ticks pass
// between elapsed-time writes. Zero values keep the defaults.
func WithTiming(tick, feedbackDelay time.Duration, persistEvery int) Option {
	return func(e *Engine) {
		if tick > 0 {
			e.tick = tick
		}
		if feedbackDelay > 0 {
			e.feedbackDelay = feedbackDelay
		}
		if persistEvery > 0 {
			e.persistEvery = persistEvery
		}
	}
}

// Engine runs one quiz session: it restores or loads questions, scores answers,
// counts elapsed seconds and emits the final result exactly once.
// Every event is applied under a single lock, so callbacks from the clock, the UI
// and the loader never interleave inside a transition.
type Engine struct {
	store      SessionStore
	source     QuestionSource
	prefetched []domain.Question
	clock      Clock
	logger     *slog.Logger
	observer   func(Snapshot)

	tick          time.Duration
	feedbackDelay time.Duration
	persistEvery  int

	mu            sync.Mutex
	state         quizState
	seq           uint64
	started       bool
	stopped       bool
	stopClock     func()
	cancelAdvance func()
	emitted       bool
	results       chan domain.QuizResult
}

func NewEngine(store SessionStore, source QuestionSource, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		source:        source,
		clock:         SystemClock{},
		logger:        slog.Default(),
		tick:          defaultTickInterval,
		feedbackDelay: defaultFeedbackDelay,
		persistEvery:  defaultPersistEvery,
		results:       make(chan domain.QuizResult, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start establishes the question set and enters InProgress. Persisted progress wins over
// prefetched questions, which win over a live fetch. A fetch failure is terminal for this engine.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return domain.ErrEngineStarted
	}
	e.started = true
	stopped := e.stopped
	e.mu.Unlock()
	if stopped {
		return domain.ErrEngineStopped
	}

	progress, fresh, err := e.load(ctx)

	e.mu.Lock()
	if e.stopped || e.state.phase != PhaseLoading {
		e.mu.Unlock()
		e.logger.Debug("discarding questions loaded after stop")
		return domain.ErrEngineStopped
	}
	var ev event = questionsLoaded{progress: progress, fresh: fresh}
	if err != nil {
		ev = loadFailed{err: err}
	}
	snap := e.dispatchLocked(ev)
	e.mu.Unlock()

	e.notify(snap)
	return err
}

func (e *Engine) load(ctx context.Context) (domain.QuizProgress, bool, error) {
	rec, ok, err := e.store.Read(ctx)
	if err != nil {
		e.logger.Warn("reading session failed, starting without stored progress", "error", err)
	}
	if ok && rec.QuizState != nil && len(rec.QuizState.Questions) > 0 {
		if verr := rec.QuizState.Validate(); verr != nil {
			e.logger.Warn("ignoring invalid stored progress", "error", verr)
		} else {
			e.logger.Info("resuming quiz",
				"index", rec.QuizState.CurrentIndex,
				"correct", rec.QuizState.CorrectCount,
				"elapsed", rec.QuizState.ElapsedSeconds,
			)
			return rec.QuizState.Clone(), false, nil
		}
	}

	if len(e.prefetched) > 0 {
		return domain.QuizProgress{Questions: e.prefetched}, true, nil
	}

	if e.source == nil {
		return domain.QuizProgress{}, false, errors.New("no question source configured")
	}
	questions, err := e.source.FetchQuestions(ctx)
	if err != nil {
		return domain.QuizProgress{}, false, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return domain.QuizProgress{}, false, domain.ErrContent
	}
	return domain.QuizProgress{Questions: questions}, true, nil
}

// SelectAnswer registers option for the question on screen. Only the first selection per
// question counts; later calls return false until the engine advances.
func (e *Engine) SelectAnswer(option string) bool {
	e.mu.Lock()
	if e.stopped || e.state.phase != PhaseInProgress || e.state.answered {
		e.mu.Unlock()
		return false
	}
	snap := e.dispatchLocked(answerSelected{option: option})
	e.mu.Unlock()

	e.notify(snap)
	return true
}

// Result delivers the final result once and is then closed.
func (e *Engine) Result() <-chan domain.QuizResult {
	return e.results
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Stop halts the clock and any pending advance. Events arriving afterwards are dropped.
// Progress already persisted stays resumable.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
	e.haltClockLocked()
	if e.cancelAdvance != nil {
		e.cancelAdvance()
		e.cancelAdvance = nil
	}
}

func (e *Engine) dispatch(ev event) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	snap := e.dispatchLocked(ev)
	e.mu.Unlock()

	e.notify(snap)
}

func (e *Engine) dispatchLocked(ev event) Snapshot {
	next, effects := e.state.apply(ev, e.persistEvery)
	e.state = next
	e.seq++
	for _, eff := range effects {
		e.runLocked(eff)
	}
	return e.snapshotLocked()
}

func (e *Engine) runLocked(eff effect) {
	switch eff.kind {
	case effectPersist:
		progress := e.state.committed()
		e.writeLocked(domain.SessionPatch{QuizState: &progress})
	case effectClearProgress:
		// the result lands in the same write, so there is no moment where neither is stored
		result := e.state.result
		e.writeLocked(domain.SessionPatch{ClearQuizState: true, Result: &result})
	case effectStartClock:
		e.haltClockLocked()
		e.stopClock = e.clock.Every(e.tick, func() { e.dispatch(clockTicked{}) })
	case effectStopClock:
		e.haltClockLocked()
	case effectScheduleAdvance:
		index := eff.index
		e.cancelAdvance = e.clock.AfterFunc(e.feedbackDelay, func() {
			e.dispatch(feedbackElapsed{index: index})
		})
	case effectEmitResult:
		if e.emitted {
			return
		}
		e.emitted = true
		e.results <- e.state.result
		close(e.results)
		e.logger.Info("quiz completed",
			"score", e.state.result.Score,
			"duration", e.state.result.DurationSeconds,
		)
	case effectReportError:
		e.logger.Error("quiz could not be loaded", "error", e.state.err)
	}
}

// writeLocked persists best-effort: the in-memory state stays authoritative.
func (e *Engine) writeLocked(patch domain.SessionPatch) {
	if err := e.store.Write(context.Background(), patch); err != nil {
		e.logger.Warn("persisting quiz progress failed", "error", err)
	}
}

func (e *Engine) haltClockLocked() {
	if e.stopClock != nil {
		e.stopClock()
		e.stopClock = nil
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	s := e.state
	snap := Snapshot{
		Seq:            e.seq,
		Phase:          s.phase,
		Index:          s.progress.CurrentIndex,
		Total:          s.progress.Total(),
		CorrectCount:   s.progress.CorrectCount,
		ElapsedSeconds: s.progress.ElapsedSeconds,
		Answered:       s.answered,
		Selected:       s.selected,
		Correct:        s.correct,
		Err:            s.err,
	}
	if s.phase == PhaseInProgress && s.progress.CurrentIndex < s.progress.Total() {
		q := s.progress.Questions[s.progress.CurrentIndex]
		snap.Question = &q
	}
	if s.phase == PhaseCompleted {
		r := s.result
		snap.Result = &r
	}
	return snap
}

func (e *Engine) notify(snap Snapshot) {
	if e.observer != nil {
		e.observer(snap)
	}
}
