package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) restoreCmd() tea.Cmd {
	ctx, flow := m.ctx, m.flow
	return func() tea.Msg {
		return restoredMsg{view: flow.Restore(ctx)}
	}
}

func (m *Model) prefetchCmd() tea.Cmd {
	if m.cfg.Backend == nil {
		return nil
	}
	ctx, backend := m.ctx, m.cfg.Backend
	return func() tea.Msg {
		questions, err := backend.FetchQuestions(ctx)
		return prefetchedMsg{questions: questions, err: err}
	}
}

func (m *Model) startEngineCmd() tea.Cmd {
	ctx, engine, gen := m.ctx, m.engine, m.gen
	return func() tea.Msg {
		return engineStartedMsg{gen: gen, err: engine.Start(ctx)}
	}
}

func (m *Model) waitSnapshot() tea.Cmd {
	ch, gen := m.snapshots, m.gen
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg{gen: gen, snap: snap}
	}
}

func (m *Model) waitResult() tea.Cmd {
	results, gen := m.engine.Result(), m.gen
	return func() tea.Msg {
		result, ok := <-results
		if !ok {
			return nil
		}
		return quizResultMsg{gen: gen, result: result}
	}
}

func (m *Model) submitCmd() tea.Cmd {
	if m.cfg.Backend == nil {
		return nil
	}
	ctx, flow, backend := m.ctx, m.flow, m.cfg.Backend
	return func() tea.Msg {
		flow.SubmitResult(ctx, backend)
		return submittedMsg{}
	}
}

func (m *Model) leaderboardCmd() tea.Cmd {
	if m.cfg.Backend == nil {
		return nil
	}
	ctx, flow, backend := m.ctx, m.flow, m.cfg.Backend
	return func() tea.Msg {
		return leaderboardMsg{entries: flow.Leaderboard(ctx, backend)}
	}
}

func (m *Model) sendFeedbackCmd(text string) tea.Cmd {
	ctx, flow, backend := m.ctx, m.flow, m.cfg.Backend
	return func() tea.Msg {
		if backend == nil {
			return feedbackSentMsg{}
		}
		return feedbackSentMsg{err: flow.SendFeedback(ctx, backend, text)}
	}
}

func (m *Model) exitCmd() tea.Cmd {
	ctx, flow, logger := m.ctx, m.flow, m.logger
	return func() tea.Msg {
		if err := flow.Exit(ctx); err != nil {
			logger.Warn("exit failed", "error", err)
		}
		return exitedMsg{}
	}
}
