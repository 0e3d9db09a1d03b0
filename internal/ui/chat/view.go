// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the chat pane.
func (m Model) View() string {
	var parts []string
	parts = append(parts, m.viewport.View())
	parts = append(parts, m.busyLine())
	if m.chips.Len() > 0 {
		parts = append(parts, m.chips.View(m.width))
	}
	parts = append(parts, m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// busyLine shows the active spinners, or a blank line to keep the layout
// steady.
func (m Model) busyLine() string {
	var spins []string
	if v := m.askSpin.View(); v != "" {
		spins = append(spins, v)
	}
	if v := m.ingestSpin.View(); v != "" {
		spins = append(spins, v)
	}
	return strings.Join(spins, "   ")
}

// layout sizes the viewport to the space the other rows leave.
func (m *Model) layout() {
	chipsHeight := 0
	if m.chips.Len() > 0 {
		chipsHeight = lipgloss.Height(m.chips.View(m.width))
	}

	vh := m.height - chipsHeight - 2
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = vh
	m.input.Width = m.width - 4
	m.refresh()
}

// refresh re-renders the log into the viewport and scrolls to the end.
func (m *Model) refresh() {
	m.messages.Width = m.width
	m.messages.Messages = m.log.Messages()
	m.viewport.SetContent(m.messages.View())
	m.viewport.GotoBottom()
}
