package app

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"vocab-quiz/internal/domain"
)

// ResultRepository stores submitted results.
type ResultRepository interface {
	Insert(ctx context.Context, result domain.ExamResult) error
	// FindRecent reports whether an identical result was stored at or after since.
	FindRecent(ctx context.Context, phone string, score float64, duration int, since time.Time) (bool, error)
	LatestByEmail(ctx context.Context, email string) (domain.ExamResult, error)
	UpdateFeedback(ctx context.Context, id, feedback string) error
	// TopResults returns up to limit rows ordered by score desc, duration asc. Phones may repeat.
	TopResults(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// SubmissionGuard suppresses identical submissions inside a time window.
type SubmissionGuard interface {
	// Claim returns false when key was already claimed within window.
	Claim(ctx context.Context, key string, window time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Notifier forwards a stored result (e.g. to a mail relay).
type Notifier interface {
	NotifyResult(ctx context.Context, result domain.ExamResult) error
}

const (
	DefaultDedupWindow = time.Minute
	// MaxLeaderboardSize bounds the limit accepted from callers.
	MaxLeaderboardSize = 50
	// leaderboardOverfetch rows are read per displayed entry so dedupe by phone still fills the board.
	leaderboardOverfetch = 5
)

// ResultService contains the backend result use cases.
type ResultService struct {
	results  ResultRepository
	guard    SubmissionGuard
	notifier Notifier
	hub      *LeaderboardHub
	logger   *slog.Logger
	window   time.Duration
	now      func() time.Time
	newID    func() string
}

type ResultOption func(*ResultService)

func WithNotifier(n Notifier) ResultOption {
	return func(s *ResultService) { s.notifier = n }
}

func WithDedupWindow(d time.Duration) ResultOption {
	return func(s *ResultService) {
		if d > 0 {
			s.window = d
		}
	}
}

func WithResultLogger(l *slog.Logger) ResultOption {
	return func(s *ResultService) { s.logger = l }
}

// WithResultClock is for deterministic timestamps in tests.
func WithResultClock(now func() time.Time) ResultOption {
	return func(s *ResultService) { s.now = now }
}

func NewResultService(results ResultRepository, guard SubmissionGuard, hub *LeaderboardHub, opts ...ResultOption) *ResultService {
	s := &ResultService{
		results: results,
		guard:   guard,
		hub:     hub,
		logger:  slog.Default(),
		window:  DefaultDedupWindow,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit stores a result unless the same (phone, score, duration) arrived within the dedup window.
// Duplicates are not errors: the outcome is flagged and nothing is stored.
func (s *ResultService) Submit(ctx context.Context, submission domain.ResultSubmission) (domain.SubmitOutcome, error) {
	submission, err := validateSubmission(submission)
	if err != nil {
		return domain.SubmitOutcome{}, err
	}

	key := submissionKey(submission)
	claimed, err := s.guard.Claim(ctx, key, s.window)
	if err != nil {
		return domain.SubmitOutcome{}, fmt.Errorf("claim submission: %w", err)
	}
	if !claimed {
		s.logger.Info("duplicate submission suppressed", "phone", submission.Phone, "score", submission.Score)
		return domain.SubmitOutcome{Duplicate: true}, nil
	}

	now := s.now()
	recent, err := s.results.FindRecent(ctx, submission.Phone, submission.Score, submission.Duration, now.Add(-s.window))
	if err != nil {
		s.release(ctx, key)
		return domain.SubmitOutcome{}, fmt.Errorf("check recent results: %w", err)
	}
	if recent {
		s.logger.Info("duplicate submission found in storage", "phone", submission.Phone, "score", submission.Score)
		return domain.SubmitOutcome{Duplicate: true}, nil
	}

	result := domain.ExamResult{
		ID:        s.newID(),
		Name:      submission.Name,
		Phone:     submission.Phone,
		Email:     submission.Email,
		Score:     submission.Score,
		Duration:  submission.Duration,
		CreatedAt: now,
	}
	if err := s.results.Insert(ctx, result); err != nil {
		s.release(ctx, key)
		return domain.SubmitOutcome{}, fmt.Errorf("insert result: %w", err)
	}
	s.logger.Info("result stored", "id", result.ID, "score", result.Score, "duration", result.Duration)

	if s.notifier != nil {
		if err := s.notifier.NotifyResult(ctx, result); err != nil {
			s.logger.Warn("result notification failed", "id", result.ID, "error", err)
		}
	}
	s.publish(ctx)

	return domain.SubmitOutcome{ID: result.ID}, nil
}

// SaveFeedback attaches feedback to the latest result submitted with email.
func (s *ResultService) SaveFeedback(ctx context.Context, email, feedback string) error {
	email = strings.TrimSpace(email)
	feedback = strings.TrimSpace(feedback)
	if email == "" || feedback == "" {
		return fmt.Errorf("%w: email and feedback are required", domain.ErrInvalidFeedback)
	}

	latest, err := s.results.LatestByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find result for %s: %w", email, err)
	}
	if err := s.results.UpdateFeedback(ctx, latest.ID, feedback); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return nil
}

// Leaderboard returns the ranked board with one entry per phone number.
func (s *ResultService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	limit = ClampLeaderboardLimit(limit)
	rows, err := s.results.TopResults(ctx, limit*leaderboardOverfetch)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("load leaderboard: %w", err)
	}
	return domain.Leaderboard{
		Entries:   domain.RankLeaderboard(rows, limit),
		UpdatedAt: s.now(),
	}, nil
}

// Subscribe returns a channel that receives the current board and every later change.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ResultService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Leaderboard(ctx, domain.DefaultLeaderboardSize)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(initial)
	return ch, cancel, nil
}

// ClampLeaderboardLimit maps a requested size to [1, MaxLeaderboardSize], zero meaning the default.
func ClampLeaderboardLimit(limit int) int {
	switch {
	case limit <= 0:
		return domain.DefaultLeaderboardSize
	case limit > MaxLeaderboardSize:
		return MaxLeaderboardSize
	}
	return limit
}

func (s *ResultService) publish(ctx context.Context) {
	if s.hub == nil || s.hub.Subscribers() == 0 {
		return
	}
	lb, err := s.Leaderboard(ctx, domain.DefaultLeaderboardSize)
	if err != nil {
		s.logger.Warn("refreshing live leaderboard failed", "error", err)
		return
	}
	s.hub.Publish(lb)
}

func (s *ResultService) release(ctx context.Context, key string) {
	if err := s.guard.Release(ctx, key); err != nil {
		s.logger.Warn("releasing submission claim failed", "key", key, "error", err)
	}
}

func validateSubmission(in domain.ResultSubmission) (domain.ResultSubmission, error) {
	user, err := domain.NormalizeIdentity(domain.UserIdentity{Name: in.Name, Phone: in.Phone, Email: in.Email})
	if err != nil {
		return domain.ResultSubmission{}, fmt.Errorf("%w: %v", domain.ErrInvalidSubmission, err)
	}
	if math.IsNaN(in.Score) || in.Score < 0 || in.Score > 10 {
		return domain.ResultSubmission{}, fmt.Errorf("%w: score %v out of range", domain.ErrInvalidSubmission, in.Score)
	}
	if in.Duration < 0 {
		return domain.ResultSubmission{}, fmt.Errorf("%w: negative duration", domain.ErrInvalidSubmission)
	}
	return domain.ResultSubmission{
		Name:     user.Name,
		Phone:    user.Phone,
		Email:    user.Email,
		Score:    domain.RoundScore(in.Score),
		Duration: in.Duration,
	}, nil
}

func submissionKey(s domain.ResultSubmission) string {
	return fmt.Sprintf("%s|%.1f|%d", s.Phone, s.Score, s.Duration)
}
