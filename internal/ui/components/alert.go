// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/medconsult-tui/internal/ui/styles"
)

// AlertDismissedMsg is sent when the user closes an alert.
type AlertDismissedMsg struct{}

// Alert is a blocking modal. While visible the owning pane routes every key
// to it, so nothing reaches the pane until it is dismissed.
type Alert struct {
	title   string
	message string
	visible bool
	theme   *styles.Theme
}

// NewAlert creates a hidden alert.
func NewAlert(theme *styles.Theme) Alert {
	return Alert{title: "Alert", theme: theme}
}

// Show displays message.
func (a *Alert) Show(message string) {
	a.message = message
	a.visible = true
}

// Hide closes the alert.
func (a *Alert) Hide() {
	a.visible = false
}

// Visible reports whether the alert is showing.
func (a Alert) Visible() bool {
	return a.visible
}

// Message returns the current message.
func (a Alert) Message() string {
	return a.message
}

// Update dismisses the alert on enter, esc or space. Other keys are swallowed.
func (a Alert) Update(msg tea.Msg) (Alert, tea.Cmd) {
	if !a.visible {
		return a, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter", "esc", " ":
			a.visible = false
			return a, func() tea.Msg { return AlertDismissedMsg{} }
		}
	}
	return a, nil
}

// View renders the alert centered in a width x height area.
func (a Alert) View(width, height int) string {
	if !a.visible {
		return ""
	}
	box := a.theme.AlertBox.Render(lipgloss.JoinVertical(lipgloss.Center,
		a.theme.AlertTitle.Render(a.title),
		"",
		a.message,
		"",
		a.theme.AlertHint.Render("press enter to dismiss"),
	))
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
