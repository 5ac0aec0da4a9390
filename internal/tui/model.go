// Package tui is the Bubble Tea terminal player.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"vocab-quiz/internal/app"
	"vocab-quiz/internal/domain"
)

// Backend is everything the player needs from the quiz API.
type Backend interface {
	app.QuestionSource
	app.ResultSubmitter
	app.FeedbackSender
	app.LeaderboardQuery
}

type Config struct {
	Store         app.SessionStore
	Backend       Backend
	Logger        *slog.Logger
	ExitLink      string
	Tick          time.Duration
	FeedbackDelay time.Duration
	PersistEvery  int
	// Clock drives the engine; nil uses the system clock.
	Clock app.Clock
}

const (
	fieldName = iota
	fieldPhone
	fieldEmail
)

// Model implements the player screens on top of app.Flow and app.Engine.
type Model struct {
	ctx    context.Context
	cfg    Config
	flow   *app.Flow
	logger *slog.Logger

	screen  domain.View
	loading bool
	width   int
	height  int

	inputs  []textinput.Model
	focus   int
	formErr string

	prefetched []domain.Question

	engine    *app.Engine
	gen       int
	snapshots chan app.Snapshot
	snap      app.Snapshot

	board []domain.LeaderboardEntry

	feedback    textarea.Model
	feedbackErr string

	exitLink string
}

type restoredMsg struct{ view domain.View }

type prefetchedMsg struct {
	questions []domain.Question
	err       error
}

type snapshotMsg struct {
	gen  int
	snap app.Snapshot
}

type engineStartedMsg struct {
	gen int
	err error
}

type quizResultMsg struct {
	gen    int
	result domain.QuizResult
}

type submittedMsg struct{}

type leaderboardMsg struct{ entries []domain.LeaderboardEntry }

type feedbackSentMsg struct{ err error }

type exitedMsg struct{}

// New builds the player. ctx bounds every backend and store call.
func New(ctx context.Context, cfg Config) *Model {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		ctx:     ctx,
		cfg:     cfg,
		flow:    app.NewFlow(cfg.Store, logger),
		logger:  logger,
		screen:  domain.ViewRegister,
		loading: true,
	}
	m.inputs = []textinput.Model{
		newInput("Name:  ", "Nguyen Van A", 60),
		newInput("Phone: ", "0912345678", 15),
		newInput("Email: ", "name@gmail.com", 80),
	}
	m.feedback = textarea.New()
	m.feedback.Placeholder = "What did you think of the quiz?"
	m.feedback.CharLimit = 1000
	m.feedback.SetHeight(5)
	return m
}

func newInput(prompt, placeholder string, limit int) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Placeholder = placeholder
	input.CharLimit = limit
	return input
}

// ExitLink is set once the participant has finished and the session was cleared.
func (m *Model) ExitLink() string {
	return m.exitLink
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.restoreCmd(), textinput.Blink)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.feedback.SetWidth(max(min(msg.Width-4, 80), 20))
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.stopEngine()
			return m, tea.Quit
		}
		if m.loading {
			return m, nil
		}
		return m.handleKey(msg)
	case restoredMsg:
		m.loading = false
		return m, m.enter(msg.view)
	case prefetchedMsg:
		if msg.err != nil {
			m.logger.Warn("prefetching questions failed", "error", msg.err)
			return m, nil
		}
		m.prefetched = msg.questions
		return m, nil
	case snapshotMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.snap.Seq > m.snap.Seq {
			m.snap = msg.snap
		}
		return m, m.waitSnapshot()
	case engineStartedMsg:
		if msg.gen == m.gen && msg.err != nil && !errors.Is(msg.err, domain.ErrEngineStopped) {
			m.logger.Error("quiz could not start", "error", msg.err)
		}
		return m, nil
	case quizResultMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.stopEngine()
		if err := m.flow.FinishQuiz(m.ctx, msg.result); err != nil {
			m.logger.Warn("finishing quiz failed", "error", err)
			return m, nil
		}
		m.screen = domain.ViewResult
		return m, m.submitCmd()
	case submittedMsg:
		return m, m.leaderboardCmd()
	case leaderboardMsg:
		m.board = msg.entries
		return m, nil
	case feedbackSentMsg:
		if msg.err != nil {
			m.feedbackErr = msg.err.Error()
			return m, nil
		}
		return m, m.exitCmd()
	case exitedMsg:
		m.exitLink = m.cfg.ExitLink
		m.screen = domain.ViewExit
		return m, tea.Quit
	}

	if m.screen == domain.ViewRegister {
		return m, m.updateInputs(msg)
	}
	if m.screen == domain.ViewFeedback {
		var cmd tea.Cmd
		m.feedback, cmd = m.feedback.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case domain.ViewRegister:
		return m, m.handleRegisterKey(msg)
	case domain.ViewGuide:
		if msg.Type == tea.KeyEnter {
			if err := m.flow.StartQuiz(m.ctx); err != nil {
				m.logger.Warn("starting quiz failed", "error", err)
				return m, nil
			}
			return m, m.enter(domain.ViewQuiz)
		}
	case domain.ViewQuiz:
		return m, m.handleQuizKey(msg)
	case domain.ViewResult:
		switch {
		case msg.Type == tea.KeyEnter:
			if err := m.flow.Complete(m.ctx); err != nil {
				m.logger.Warn("completing quiz failed", "error", err)
				return m, nil
			}
			return m, m.enter(domain.ViewFeedback)
		case msg.String() == "r":
			if err := m.flow.Retest(m.ctx); err != nil {
				m.logger.Warn("retest failed", "error", err)
				return m, nil
			}
			m.prefetched = nil
			m.board = nil
			return m, m.enter(domain.ViewQuiz)
		}
	case domain.ViewFeedback:
		switch msg.Type {
		case tea.KeyCtrlS:
			text := strings.TrimSpace(m.feedback.Value())
			if text == "" {
				m.feedbackErr = "please write a few words, or press esc to skip"
				return m, nil
			}
			m.feedbackErr = ""
			return m, m.sendFeedbackCmd(text)
		case tea.KeyEsc:
			return m, m.exitCmd()
		}
		var cmd tea.Cmd
		m.feedback, cmd = m.feedback.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleRegisterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		return m.focusInput((m.focus + 1) % len(m.inputs))
	case tea.KeyShiftTab, tea.KeyUp:
		return m.focusInput((m.focus + len(m.inputs) - 1) % len(m.inputs))
	case tea.KeyEnter:
		if m.focus < fieldEmail {
			return m.focusInput(m.focus + 1)
		}
		return m.register()
	}
	return m.updateInputs(msg)
}

func (m *Model) register() tea.Cmd {
	user, err := m.flow.Register(m.ctx, domain.UserIdentity{
		Name:  m.inputs[fieldName].Value(),
		Phone: m.inputs[fieldPhone].Value(),
		Email: m.inputs[fieldEmail].Value(),
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			m.formErr = verr.Message
			return m.focusInput(fieldIndex(verr.Field))
		}
		m.formErr = err.Error()
		return nil
	}
	m.formErr = ""
	m.logger.Info("participant registered", "phone", user.Phone)
	return m.enter(domain.ViewGuide)
}

func fieldIndex(field string) int {
	switch field {
	case "phone":
		return fieldPhone
	case "email":
		return fieldEmail
	}
	return fieldName
}

func (m *Model) focusInput(i int) tea.Cmd {
	m.focus = i
	cmds := make([]tea.Cmd, len(m.inputs))
	for j := range m.inputs {
		if j == i {
			cmds[j] = m.inputs[j].Focus()
			continue
		}
		m.inputs[j].Blur()
	}
	return tea.Batch(cmds...)
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleQuizKey(msg tea.KeyMsg) tea.Cmd {
	if m.snap.Phase == app.PhaseFailed && msg.String() == "r" {
		return m.startQuiz()
	}
	if m.engine == nil || m.snap.Question == nil || msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return nil
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return nil
	}
	idx := int(r - '1')
	if idx >= len(m.snap.Question.Options) {
		return nil
	}
	m.engine.SelectAnswer(m.snap.Question.Options[idx])
	return nil
}

// enter shows view and starts whatever that screen needs.
func (m *Model) enter(view domain.View) tea.Cmd {
	m.screen = view
	switch view {
	case domain.ViewRegister:
		return m.focusInput(fieldName)
	case domain.ViewGuide:
		return m.prefetchCmd()
	case domain.ViewQuiz:
		return m.startQuiz()
	case domain.ViewResult:
		return m.submitCmd()
	case domain.ViewFeedback:
		return m.feedback.Focus()
	}
	return nil
}

func (m *Model) startQuiz() tea.Cmd {
	m.stopEngine()
	m.gen++
	m.snap = app.Snapshot{}
	snapshots := make(chan app.Snapshot, 64)
	m.snapshots = snapshots

	opts := []app.Option{
		app.WithLogger(m.logger),
		app.WithTiming(m.cfg.Tick, m.cfg.FeedbackDelay, m.cfg.PersistEvery),
		app.WithObserver(func(s app.Snapshot) {
			select {
			case snapshots <- s:
			default:
			}
		}),
	}
	if len(m.prefetched) > 0 {
		opts = append(opts, app.WithPrefetched(m.prefetched))
	}
	if m.cfg.Clock != nil {
		opts = append(opts, app.WithClock(m.cfg.Clock))
	}
	var source app.QuestionSource
	if m.cfg.Backend != nil {
		source = m.cfg.Backend
	}
	m.engine = app.NewEngine(m.cfg.Store, source, opts...)

	return tea.Batch(m.startEngineCmd(), m.waitSnapshot(), m.waitResult())
}

func (m *Model) stopEngine() {
	if m.engine != nil {
		m.engine.Stop()
	}
}
