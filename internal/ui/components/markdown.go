// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown renders bot answers with glamour. A nil *Markdown renders text
// unchanged, so callers can switch markdown off by not creating one.
type Markdown struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer for a glamour standard style ("dark",
// "light", "notty") wrapping at width columns.
func NewMarkdown(style string, width int) (*Markdown, error) {
	m := &Markdown{style: style}
	if err := m.SetWidth(width); err != nil {
		return nil, err
	}
	return m, nil
}

// SetWidth rebuilds the renderer when the wrap width changes.
func (m *Markdown) SetWidth(width int) error {
	if width < 20 {
		width = 20
	}
	if m.renderer != nil && width == m.width {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return err
	}
	m.renderer = r
	m.width = width
	return nil
}

// Render returns the rendered text, falling back to the input on error.
func (m *Markdown) Render(text string) string {
	if m == nil || m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
