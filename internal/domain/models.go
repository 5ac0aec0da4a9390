package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Question is a single vocabulary item: the word highlighted inside a sentence,
// its meaning and the multiple-choice options (the meaning appears exactly once).
type Question struct {
	ID       string   `json:"id"`
	Word     string   `json:"word"`
	Sentence string   `json:"sentence"`
	Meaning  string   `json:"meaning"`
	AudioURL string   `json:"audioUrl"`
	Options  []string `json:"options"`
}

// IsCorrect reports whether option is the meaning of the word.
func (q Question) IsCorrect(option string) bool {
	return option == q.Meaning
}

// Validate checks the structural rules of a question record.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Word) == "" {
		return fmt.Errorf("question %q: word is empty", q.ID)
	}
	if !strings.Contains(strings.ToLower(q.Sentence), strings.ToLower(q.Word)) {
		return fmt.Errorf("question %q: sentence does not contain %q", q.ID, q.Word)
	}
	matches := 0
	for _, opt := range q.Options {
		if opt == q.Meaning {
			matches++
		}
	}
	if matches != 1 {
		return fmt.Errorf("question %q: meaning appears %d times in options", q.ID, matches)
	}
	return nil
}

// UserIdentity is the participant captured at registration. It never changes afterwards.
type UserIdentity struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// QuizProgress is the resumable state of an active quiz.
type QuizProgress struct {
	Questions      []Question `json:"questions"`
	CurrentIndex   int        `json:"currentIndex"`
	CorrectCount   int        `json:"correctCount"`
	ElapsedSeconds int        `json:"elapsedSeconds"`
}

// Total is the number of questions in the session.
func (p QuizProgress) Total() int {
	return len(p.Questions)
}

// Finished reports whether every question has been answered.
func (p QuizProgress) Finished() bool {
	return p.CurrentIndex >= len(p.Questions)
}

// Validate enforces 0 <= correctCount <= currentIndex <= len(questions).
func (p QuizProgress) Validate() error {
	switch {
	case len(p.Questions) == 0:
		return errors.New("progress has no questions")
	case p.CorrectCount < 0 || p.CurrentIndex < 0 || p.ElapsedSeconds < 0:
		return errors.New("progress has negative counters")
	case p.CorrectCount > p.CurrentIndex:
		return fmt.Errorf("correct count %d exceeds index %d", p.CorrectCount, p.CurrentIndex)
	case p.CurrentIndex > len(p.Questions):
		return fmt.Errorf("index %d beyond %d questions", p.CurrentIndex, len(p.Questions))
	}
	return nil
}

// Clone returns a copy that shares no slices with p.
func (p QuizProgress) Clone() QuizProgress {
	out := p
	out.Questions = make([]Question, len(p.Questions))
	copy(out.Questions, p.Questions)
	return out
}

// QuizResult is derived once when the last question is answered.
type QuizResult struct {
	Score           float64 `json:"score"`
	DurationSeconds int     `json:"duration"`
}

// NewQuizResult computes round(correct/total*10, 1 decimal).
func NewQuizResult(correct, total, elapsedSeconds int) QuizResult {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	if total <= 0 {
		return QuizResult{DurationSeconds: elapsedSeconds}
	}
	return QuizResult{
		Score:           RoundScore(float64(correct) / float64(total) * 10),
		DurationSeconds: elapsedSeconds,
	}
}

// RoundScore rounds to one decimal place.
func RoundScore(v float64) float64 {
	return math.Round(v*10) / 10
}

// View names a screen of the participant journey.
type View string

const (
	ViewRegister View = "register"
	ViewGuide    View = "guide"
	ViewQuiz     View = "quiz"
	ViewResult   View = "result"
	ViewFeedback View = "feedback"
	ViewExit     View = "exit"
)

// Known reports whether v is one of the journey screens.
func (v View) Known() bool {
	switch v {
	case ViewRegister, ViewGuide, ViewQuiz, ViewResult, ViewFeedback:
		return true
	}
	return false
}

// SessionRecord is the persisted journey of one participant.
type SessionRecord struct {
	UserData        *UserIdentity `json:"userData,omitempty"`
	View            View          `json:"view,omitempty"`
	Result          *QuizResult   `json:"result,omitempty"`
	ResultSubmitted bool          `json:"resultSubmitted,omitempty"`
	QuizState       *QuizProgress `json:"quizState,omitempty"`
}

// SessionPatch is a partial update shallow-merged into a SessionRecord.
// Nil fields are left untouched; the Clear flags remove a field.
type SessionPatch struct {
	UserData        *UserIdentity
	View            View
	Result          *QuizResult
	ClearResult     bool
	ResultSubmitted *bool
	QuizState       *QuizProgress
	ClearQuizState  bool
}

// Apply merges the patch into rec and returns the new record.
func (p SessionPatch) Apply(rec SessionRecord) SessionRecord {
	if p.UserData != nil {
		u := *p.UserData
		rec.UserData = &u
	}
	if p.View != "" {
		rec.View = p.View
	}
	if p.ClearResult {
		rec.Result = nil
	}
	if p.Result != nil {
		r := *p.Result
		rec.Result = &r
	}
	if p.ResultSubmitted != nil {
		rec.ResultSubmitted = *p.ResultSubmitted
	}
	if p.ClearQuizState {
		rec.QuizState = nil
	}
	if p.QuizState != nil {
		q := p.QuizState.Clone()
		rec.QuizState = &q
	}
	return rec
}

// ResultSubmission is the payload a participant posts once the quiz is completed.
type ResultSubmission struct {
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Score    float64 `json:"score"`
	Duration int     `json:"duration"`
}

// NewResultSubmission combines the identity and the final result.
func NewResultSubmission(user UserIdentity, result QuizResult) ResultSubmission {
	return ResultSubmission{
		Name:     user.Name,
		Phone:    user.Phone,
		Email:    user.Email,
		Score:    result.Score,
		Duration: result.DurationSeconds,
	}
}

// SubmitOutcome tells the caller whether the submission created a record.
type SubmitOutcome struct {
	ID        string `json:"id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// ExamResult is a stored submission.
type ExamResult struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	Score     float64
	Duration  int
	Feedback  string
	CreatedAt time.Time
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Duration int     `json:"duration"`
	Phone    string  `json:"phone"`
}

// Leaderboard is a snapshot pushed to live subscribers.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
