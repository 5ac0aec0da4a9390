package app

import "vocab-quiz/internal/domain"

// Phase is the top-level state of a quiz engine.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseInProgress
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseInProgress:
		return "in_progress"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

type event interface{ engineEvent() }

type questionsLoaded struct {
	progress domain.QuizProgress
	fresh    bool
}

type loadFailed struct{ err error }

type answerSelected struct{ option string }

// feedbackElapsed carries the index it was scheduled for so a late timer cannot advance another question.
type feedbackElapsed struct{ index int }

type clockTicked struct{}

func (questionsLoaded) engineEvent() {}
func (loadFailed) engineEvent()      {}
func (answerSelected) engineEvent()  {}
func (feedbackElapsed) engineEvent() {}
func (clockTicked) engineEvent()     {}

type effectKind int

const (
	effectPersist effectKind = iota
	effectClearProgress
	effectStartClock
	effectStopClock
	effectScheduleAdvance
	effectEmitResult
	effectReportError
)

type effect struct {
	kind  effectKind
	index int
}

// quizState is the value the transition function works on.
// progress.CurrentIndex is the question on screen; answered marks that it already has a selection.
type quizState struct {
	phase    Phase
	progress domain.QuizProgress
	answered bool
	selected string
	correct  bool
	result   domain.QuizResult
	err      error
}

// committed is the progress written to the session store. A question that already has an
// answer counts as done, so resuming never shows or scores it again.
func (s quizState) committed() domain.QuizProgress {
	p := s.progress
	if s.answered {
		p.CurrentIndex++
	}
	return p
}

func (s quizState) apply(ev event, persistEvery int) (quizState, []effect) {
	switch s.phase {
	case PhaseLoading:
		return s.applyLoading(ev)
	case PhaseInProgress:
		return s.applyInProgress(ev, persistEvery)
	}
	// Completed and Failed are terminal.
	return s, nil
}

func (s quizState) applyLoading(ev event) (quizState, []effect) {
	switch ev := ev.(type) {
	case questionsLoaded:
		s.progress = ev.progress
		if s.progress.Finished() {
			return s.complete()
		}
		s.phase = PhaseInProgress
		if ev.fresh {
			return s, []effect{{kind: effectPersist}, {kind: effectStartClock}}
		}
		return s, []effect{{kind: effectStartClock}}
	case loadFailed:
		s.phase = PhaseFailed
		s.err = ev.err
		return s, []effect{{kind: effectReportError}}
	}
	return s, nil
}

func (s quizState) applyInProgress(ev event, persistEvery int) (quizState, []effect) {
	switch ev := ev.(type) {
	case answerSelected:
		if s.answered {
			return s, nil
		}
		question := s.progress.Questions[s.progress.CurrentIndex]
		s.answered = true
		s.selected = ev.option
		s.correct = question.IsCorrect(ev.option)
		if s.correct {
			s.progress.CorrectCount++
		}
		return s, []effect{
			{kind: effectPersist},
			{kind: effectScheduleAdvance, index: s.progress.CurrentIndex},
		}
	case feedbackElapsed:
		if !s.answered || ev.index != s.progress.CurrentIndex {
			return s, nil
		}
		s.progress.CurrentIndex++
		s.answered = false
		s.selected = ""
		s.correct = false
		if s.progress.Finished() {
			return s.complete()
		}
		return s, []effect{{kind: effectPersist}}
	case clockTicked:
		s.progress.ElapsedSeconds++
		if persistEvery > 0 && s.progress.ElapsedSeconds%persistEvery == 0 {
			return s, []effect{{kind: effectPersist}}
		}
		return s, nil
	}
	return s, nil
}

func (s quizState) complete() (quizState, []effect) {
	s.phase = PhaseCompleted
	s.answered = false
	s.selected = ""
	s.result = domain.NewQuizResult(s.progress.CorrectCount, s.progress.Total(), s.progress.ElapsedSeconds)
	return s, []effect{
		{kind: effectStopClock},
		{kind: effectClearProgress},
		{kind: effectEmitResult},
	}
}
