// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/medconsult-tui/internal/ui/styles"
	"github.com/jeranaias/medconsult-tui/internal/util"
)

// MaxChips is the number of chips reachable through alt+1..alt+9.
const MaxChips = 9

// chipLabelWidth caps a chip's label so one long preset cannot fill a row.
const chipLabelWidth = 36

// ChipBar holds preset questions shown as numbered chips.
type ChipBar struct {
	chips []string
	theme *styles.Theme
}

// NewChipBar creates a chip bar. Blank presets are dropped and at most
// MaxChips are kept.
func NewChipBar(chips []string, theme *styles.Theme) ChipBar {
	kept := make([]string, 0, len(chips))
	for _, c := range chips {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		kept = append(kept, c)
		if len(kept) == MaxChips {
			break
		}
	}
	return ChipBar{chips: kept, theme: theme}
}

// Len returns the number of chips.
func (c ChipBar) Len() int {
	return len(c.chips)
}

// Chips returns a copy of the preset questions.
func (c ChipBar) Chips() []string {
	return append([]string(nil), c.chips...)
}

// Chip returns the preset for the 1-based chip number n.
func (c ChipBar) Chip(n int) (string, bool) {
	if n < 1 || n > len(c.chips) {
		return "", false
	}
	return c.chips[n-1], true
}

// View lays the chips out in rows no wider than width.
func (c ChipBar) View(width int) string {
	if len(c.chips) == 0 {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	var rows []string
	var row []string
	rowWidth := 0
	for i, q := range c.chips {
		label := util.TruncateWidth(q, chipLabelWidth)
		chip := c.theme.Chip.Render(c.theme.ChipKey.Render(fmt.Sprintf("alt+%d", i+1)) + " " + label)
		w := lipgloss.Width(chip)

		if rowWidth > 0 && rowWidth+1+w > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, rowWidth = nil, 0
		}
		if rowWidth > 0 {
			row = append(row, " ")
			rowWidth++
		}
		row = append(row, chip)
		rowWidth += w
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	return strings.Join(rows, "\n")
}

// List renders the chips as plain numbered lines for the REPL.
func (c ChipBar) List() string {
	var b strings.Builder
	pad := runewidth.StringWidth(fmt.Sprint(len(c.chips)))
	for i, q := range c.chips {
		num := fmt.Sprint(i + 1)
		b.WriteString(strings.Repeat(" ", pad-runewidth.StringWidth(num)))
		fmt.Fprintf(&b, "%s. %s\n", num, q)
	}
	return b.String()
}
