package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"vocab-quiz/internal/domain"
)

// ResultSubmitter posts a completed result to the backend.
type ResultSubmitter interface {
	SubmitResult(ctx context.Context, submission domain.ResultSubmission) (domain.SubmitOutcome, error)
}

// FeedbackSender attaches free-text feedback to the participant's latest result.
type FeedbackSender interface {
	SaveFeedback(ctx context.Context, email, feedback string) error
}

// LeaderboardQuery reads the ranked top-N board.
type LeaderboardQuery interface {
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

var transitions = map[domain.View][]domain.View{
	domain.ViewRegister: {domain.ViewGuide},
	domain.ViewGuide:    {domain.ViewQuiz},
	domain.ViewQuiz:     {domain.ViewResult},
	domain.ViewResult:   {domain.ViewFeedback, domain.ViewQuiz},
	domain.ViewFeedback: {domain.ViewExit},
}

func canMove(from, to domain.View) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Flow decides which screen is visible and is the only writer of the stored view.
// Every transition is written to the session store before the caller renders the new screen.
// Store failures are logged; the in-memory journey carries on.
type Flow struct {
	store  SessionStore
	logger *slog.Logger

	mu        sync.Mutex
	view      domain.View
	user      *domain.UserIdentity
	result    *domain.QuizResult
	submitted bool
}

func NewFlow(store SessionStore, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{store: store, logger: logger, view: domain.ViewRegister}
}

// Restore rebuilds the journey from the session store and returns the screen to show.
func (f *Flow) Restore(ctx context.Context) domain.View {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.view, f.user, f.result, f.submitted = domain.ViewRegister, nil, nil, false

	rec, ok, err := f.store.Read(ctx)
	switch {
	case errors.Is(err, domain.ErrCorruptSession):
		f.logger.Warn("dropping corrupt session", "error", err)
		return f.view
	case err != nil:
		f.logger.Warn("reading session failed, starting fresh", "error", err)
		return f.view
	case !ok || rec.UserData == nil:
		return f.view
	}

	user := *rec.UserData
	f.user = &user
	f.submitted = rec.ResultSubmitted
	if rec.Result != nil {
		r := *rec.Result
		f.result = &r
	}

	switch rec.View {
	case "", domain.ViewRegister, domain.ViewGuide:
		// guide is never stored: a registered participant resumes there.
		f.view = domain.ViewGuide
	case domain.ViewQuiz:
		f.view = domain.ViewQuiz
		if f.result != nil && rec.QuizState == nil {
			f.logger.Info("quiz finished before the result screen was stored, showing result")
			f.view = domain.ViewResult
		}
	case domain.ViewFeedback:
		f.view = rec.View
	case domain.ViewResult:
		if f.result == nil {
			f.logger.Warn("stored result view has no result, returning to guide")
			f.view = domain.ViewGuide
		} else {
			f.view = domain.ViewResult
		}
	default:
		f.logger.Warn("unknown stored view, returning to registration", "view", rec.View)
		f.user, f.result, f.submitted = nil, nil, false
	}
	f.logger.Info("session restored", "view", f.view)
	return f.view
}

// Register validates the form, stores the identity and shows the guide.
func (f *Flow) Register(ctx context.Context, in domain.UserIdentity) (domain.UserIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !canMove(f.view, domain.ViewGuide) {
		return domain.UserIdentity{}, f.invalid(domain.ViewGuide)
	}
	user, err := domain.NormalizeIdentity(in)
	if err != nil {
		return domain.UserIdentity{}, err
	}
	f.write(ctx, domain.SessionPatch{UserData: &user, View: domain.ViewRegister})
	f.user = &user
	f.view = domain.ViewGuide
	return user, nil
}

// StartQuiz leaves the guide. The engine restores or loads the questions afterwards.
func (f *Flow) StartQuiz(ctx context.Context) error {
	return f.move(ctx, domain.ViewQuiz, domain.SessionPatch{})
}

// FinishQuiz stores the result and shows it.
func (f *Flow) FinishQuiz(ctx context.Context, result domain.QuizResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.moveLocked(ctx, domain.ViewResult, domain.SessionPatch{Result: &result}); err != nil {
		return err
	}
	f.result = &result
	return nil
}

// Retest goes back to the quiz with empty progress, keeping the identity.
func (f *Flow) Retest(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.view != domain.ViewResult {
		return f.invalid(domain.ViewQuiz)
	}
	notSubmitted := false
	if err := f.moveLocked(ctx, domain.ViewQuiz, domain.SessionPatch{
		ClearResult:     true,
		ClearQuizState:  true,
		ResultSubmitted: &notSubmitted,
	}); err != nil {
		return err
	}
	f.result = nil
	f.submitted = false
	return nil
}

// Complete moves from the result to the feedback screen.
func (f *Flow) Complete(ctx context.Context) error {
	return f.move(ctx, domain.ViewFeedback, domain.SessionPatch{})
}

// Exit ends the journey and clears the session.
func (f *Flow) Exit(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !canMove(f.view, domain.ViewExit) {
		return f.invalid(domain.ViewExit)
	}
	if err := f.store.Clear(ctx); err != nil {
		f.logger.Warn("clearing session failed", "error", err)
	}
	f.view, f.user, f.result, f.submitted = domain.ViewExit, nil, nil, false
	return nil
}

// SubmitResult posts the current result at most once per completed quiz.
// The guard is stored before the call, so a reload never submits again.
// It reports whether this call made the submission.
func (f *Flow) SubmitResult(ctx context.Context, submitter ResultSubmitter) bool {
	f.mu.Lock()
	if f.submitted || f.user == nil || f.result == nil || f.view != domain.ViewResult {
		f.mu.Unlock()
		return false
	}
	f.submitted = true
	submitted := true
	f.write(ctx, domain.SessionPatch{ResultSubmitted: &submitted})
	submission := domain.NewResultSubmission(*f.user, *f.result)
	f.mu.Unlock()

	outcome, err := submitter.SubmitResult(ctx, submission)
	if err != nil {
		f.logger.Warn("submitting result failed", "error", err, "score", submission.Score)
		return true
	}
	f.logger.Info("result submitted", "score", submission.Score, "duration", submission.Duration, "duplicate", outcome.Duplicate)
	return true
}

// SendFeedback forwards the participant's feedback. Delivery failures are logged only.
func (f *Flow) SendFeedback(ctx context.Context, sender FeedbackSender, feedback string) error {
	f.mu.Lock()
	user := f.user
	view := f.view
	f.mu.Unlock()

	if view != domain.ViewFeedback || user == nil {
		return fmt.Errorf("%w: feedback outside the feedback screen", domain.ErrInvalidTransition)
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return fmt.Errorf("%w: feedback is empty", domain.ErrInvalidFeedback)
	}
	if err := sender.SaveFeedback(ctx, user.Email, feedback); err != nil {
		f.logger.Warn("sending feedback failed", "error", err)
	}
	return nil
}

// Leaderboard returns the board, or nil when it cannot be read.
func (f *Flow) Leaderboard(ctx context.Context, query LeaderboardQuery) []domain.LeaderboardEntry {
	entries, err := query.Leaderboard(ctx, domain.DefaultLeaderboardSize)
	if err != nil {
		f.logger.Warn("loading leaderboard failed", "error", err)
		return nil
	}
	return entries
}

func (f *Flow) View() domain.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func (f *Flow) User() (domain.UserIdentity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return domain.UserIdentity{}, false
	}
	return *f.user, true
}

func (f *Flow) Result() (domain.QuizResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.result == nil {
		return domain.QuizResult{}, false
	}
	return *f.result, true
}

// Submitted reports whether the current result was already posted.
func (f *Flow) Submitted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted
}

func (f *Flow) move(ctx context.Context, to domain.View, patch domain.SessionPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moveLocked(ctx, to, patch)
}

func (f *Flow) moveLocked(ctx context.Context, to domain.View, patch domain.SessionPatch) error {
	if !canMove(f.view, to) {
		return f.invalid(to)
	}
	patch.View = to
	f.write(ctx, patch)
	f.view = to
	return nil
}

func (f *Flow) write(ctx context.Context, patch domain.SessionPatch) {
	if err := f.store.Write(ctx, patch); err != nil {
		f.logger.Warn("persisting session failed", "error", err, "view", patch.View)
	}
}

func (f *Flow) invalid(to domain.View) error {
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, f.view, to)
}
