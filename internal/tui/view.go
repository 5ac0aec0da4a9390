package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"vocab-quiz/internal/app"
	"vocab-quiz/internal/domain"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	wordStyle      = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#C89A3A"))
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	selfStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#40A9FF"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.loading {
		return mutedStyle.Render("Loading…")
	}
	var body string
	switch m.screen {
	case domain.ViewRegister:
		body = m.registerView()
	case domain.ViewGuide:
		body = guideView()
	case domain.ViewQuiz:
		body = quizView(m.snap)
	case domain.ViewResult:
		result, _ := m.flow.Result()
		user, _ := m.flow.User()
		body = resultView(result, m.board, user.Phone)
	case domain.ViewFeedback:
		body = m.feedbackView()
	case domain.ViewExit:
		return ""
	}
	content := boxStyle.Render(body)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) registerView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Vocabulary Challenge"))
	b.WriteString("\n\n")
	for _, input := range m.inputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	if m.formErr != "" {
		b.WriteString("\n" + incorrectStyle.Render(m.formErr) + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("tab: next field • enter: continue • ctrl+c: quit"))
	return b.String()
}

func guideView() string {
	lines := []string{
		titleStyle.Render("How it works"),
		"",
		"Each question highlights a word inside a sentence.",
		"Press the number of the meaning you think is right.",
		"Only your first choice counts. The clock keeps running.",
		"You can close the player at any time and continue later.",
		"",
		mutedStyle.Render("enter: start the quiz"),
	}
	return strings.Join(lines, "\n")
}

func quizView(s app.Snapshot) string {
	switch s.Phase {
	case app.PhaseLoading:
		return mutedStyle.Render("Loading questions…")
	case app.PhaseFailed:
		msg := "Could not load the questions."
		if s.Err != nil {
			msg += "\n" + mutedStyle.Render(s.Err.Error())
		}
		return incorrectStyle.Render(msg) + "\n\n" + mutedStyle.Render("r: try again • ctrl+c: quit")
	case app.PhaseCompleted:
		return mutedStyle.Render("Calculating your score…")
	}
	if s.Question == nil {
		return ""
	}

	q := s.Question
	var b strings.Builder
	header := fmt.Sprintf("Question %d/%d", s.Index+1, s.Total)
	b.WriteString(titleStyle.Render(header) + "   " + mutedStyle.Render(formatClock(s.ElapsedSeconds)))
	b.WriteString("\n\n")
	b.WriteString(highlightWord(q.Sentence, q.Word))
	b.WriteString("\n")
	if q.AudioURL != "" {
		b.WriteString(mutedStyle.Render("audio: "+q.AudioURL) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(renderOptions(*q, s))
	if s.Answered {
		b.WriteString("\n")
		if s.Correct {
			b.WriteString(correctStyle.Render("Correct!"))
		} else {
			b.WriteString(incorrectStyle.Render("Not quite. The answer is " + q.Meaning + "."))
		}
	}
	return b.String()
}

func renderOptions(q domain.Question, s app.Snapshot) string {
	var b strings.Builder
	for i, opt := range q.Options {
		line := fmt.Sprintf("%d) %s", i+1, opt)
		switch {
		case s.Answered && q.IsCorrect(opt):
			line = correctStyle.Render(line + " ✓")
		case s.Answered && opt == s.Selected:
			line = incorrectStyle.Render(line + " ✗")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func resultView(result domain.QuizResult, board []domain.LeaderboardEntry, phone string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Your result") + "\n\n")
	b.WriteString(fmt.Sprintf("Score: %s / 10\n", formatScore(result.Score)))
	b.WriteString(fmt.Sprintf("Time:  %s\n\n", formatClock(result.DurationSeconds)))
	b.WriteString(renderLeaderboard(board, phone))
	b.WriteString("\n" + mutedStyle.Render("enter: continue • r: take the test again"))
	return b.String()
}

func renderLeaderboard(entries []domain.LeaderboardEntry, phone string) string {
	if len(entries) == 0 {
		return mutedStyle.Render("Leaderboard unavailable.") + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Top "+fmt.Sprint(len(entries))) + "\n")
	for i, e := range entries {
		line := fmt.Sprintf("%2d. %-20s %5s  %s", i+1, truncate(e.Name, 20), formatScore(e.Score), formatClock(e.Duration))
		if phone != "" && e.Phone == phone {
			line = selfStyle.Render(line + "  (you)")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) feedbackView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tell us what you think") + "\n\n")
	b.WriteString(m.feedback.View() + "\n")
	if m.feedbackErr != "" {
		b.WriteString(incorrectStyle.Render(m.feedbackErr) + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("ctrl+s: send • esc: skip"))
	return b.String()
}

// highlightWord styles every case-insensitive occurrence of word in sentence.
func highlightWord(sentence, word string) string {
	if word == "" {
		return sentence
	}
	lower := strings.ToLower(sentence)
	needle := strings.ToLower(word)
	if len(lower) != len(sentence) {
		return sentence
	}

	var b strings.Builder
	for {
		i := strings.Index(lower, needle)
		if i < 0 {
			b.WriteString(sentence)
			return b.String()
		}
		b.WriteString(sentence[:i])
		b.WriteString(wordStyle.Render(sentence[i : i+len(needle)]))
		sentence = sentence[i+len(needle):]
		lower = lower[i+len(needle):]
	}
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
