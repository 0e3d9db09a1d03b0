// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/medconsult-tui/internal/ui/styles"
	"github.com/jeranaias/medconsult-tui/internal/util"
)

// StatusBar renders the footer: key hints on the left, status on the right.
type StatusBar struct {
	theme  *styles.Theme
	width  int
	status string
}

// NewStatusBar creates a StatusBar.
func NewStatusBar(theme *styles.Theme) StatusBar {
	return StatusBar{theme: theme, width: 80}
}

// SetWidth sets the footer width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetStatus replaces the status text.
func (s *StatusBar) SetStatus(status string) {
	s.status = util.OneLine(status)
}

// Status returns the status text.
func (s StatusBar) Status() string {
	return s.status
}

// View renders hints for the enabled bindings plus the status.
func (s StatusBar) View(bindings []key.Binding) string {
	var hints []string
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		hints = append(hints, s.theme.ShortcutKey.Render(h.Key)+" "+s.theme.ShortcutDesc.Render(h.Desc))
	}
	left := strings.Join(hints, "  ")

	inner := s.width - 2
	if inner < 10 {
		inner = 10
	}
	status := ""
	if s.status != "" {
		room := inner - lipgloss.Width(left) - 2
		if room < 10 {
			room = inner
			left = ""
		}
		status = util.TruncateWidth(s.status, room)
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + status)
}
