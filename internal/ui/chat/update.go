// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// askCmd performs one /get_answer call.
func askCmd(ctx context.Context, client Backend, id int, question string) tea.Cmd {
	return func() tea.Msg {
		ans, err := client.Ask(ctx, question)
		return AnswerMsg{ID: id, Answer: ans, Err: err}
	}
}

// ingestCmd performs one /ingest call.
func ingestCmd(ctx context.Context, client Backend, id int) tea.Cmd {
	return func() tea.Msg {
		return IngestMsg{ID: id, Err: client.Ingest(ctx)}
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the chat pane.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the chat pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case AnswerMsg:
		m.handleAnswer(msg)
		return m, nil

	case IngestMsg:
		m.handleIngest(msg)
		return m, nil

	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Send):
			return m, m.Send()
		case key.Matches(msg, m.keys.Ingest):
			return m, m.BuildIndex()
		case key.Matches(msg, m.keys.Chip):
			m.ApplyChip(chipNumber(msg))
			return m, nil
		case key.Matches(msg, m.keys.Cancel):
			m.Cancel()
			return m, nil
		case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// Spinner ticks and cursor blinks
	var cmd tea.Cmd
	m.askSpin, cmd = m.askSpin.Update(msg)
	cmds = append(cmds, cmd)
	m.ingestSpin, cmd = m.ingestSpin.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// chipNumber maps alt+N to N.
func chipNumber(msg tea.KeyMsg) int {
	if len(msg.Runes) != 1 {
		return 0
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0
	}
	return int(r - '0')
}
