package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrContent is returned when the question source answers with an empty question set.
	ErrContent = errors.New("question set is empty")
	// ErrNetwork marks failures talking to a remote collaborator (fetch, submit, feedback).
	ErrNetwork = errors.New("network request failed")
	// ErrPersistence marks session store failures; they never block quiz progression.
	ErrPersistence = errors.New("session persistence failed")
	// ErrCorruptSession is returned by a session store that dropped an unreadable record.
	ErrCorruptSession = errors.New("stored session is corrupt")
	// ErrInvalidSubmission indicates a result submission with missing or out-of-range fields.
	ErrInvalidSubmission = errors.New("invalid result submission")
	// ErrInvalidFeedback indicates a feedback request without email or text.
	ErrInvalidFeedback = errors.New("invalid feedback")
	// ErrResultNotFound indicates no prior result exists for the requested participant.
	ErrResultNotFound = errors.New("exam result not found")
	// ErrQuestionBankNotFound indicates the configured question bank does not exist.
	ErrQuestionBankNotFound = errors.New("question bank not found")
	// ErrInvalidTransition is returned when a screen change is not allowed from the current view.
	ErrInvalidTransition = errors.New("invalid screen transition")
	// ErrEngineStarted is returned when Start is called twice on the same engine.
	ErrEngineStarted = errors.New("quiz engine already started")
	// ErrEngineStopped is returned when the engine was stopped before it finished loading.
	ErrEngineStopped = errors.New("quiz engine stopped")
)

// ValidationError reports a single invalid registration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
