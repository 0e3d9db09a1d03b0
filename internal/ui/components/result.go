// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/medconsult-tui/internal/consult"
	"github.com/jeranaias/medconsult-tui/internal/ui/styles"
)

// RenderResult renders the consult result as a column of titled cards.
func RenderResult(theme *styles.Theme, r consult.Result, width int) string {
	if width < 30 {
		width = 30
	}
	inner := width - 4

	sections := r.Sections()
	cards := make([]string, 0, len(sections))
	for _, s := range sections {
		var lines []string
		lines = append(lines, theme.SectionTitle.Render(s.Title))
		for _, l := range s.Lines {
			lines = append(lines, renderLine(theme, s.Title, l, inner))
		}
		for _, it := range s.Items {
			lines = append(lines, theme.SectionBody.Render("- "+wordWrap(it, inner-4)))
		}
		cards = append(cards, theme.Card.Width(inner).Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func renderLine(theme *styles.Theme, title, line string, width int) string {
	if title == "Red Flags" {
		if line == consult.RedFlagYes {
			return theme.RedFlagYes.Render(line)
		}
		return theme.RedFlagNo.Render(line)
	}
	return wordWrap(line, width)
}
