// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/medconsult-tui/internal/model"
	"github.com/jeranaias/medconsult-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one chat log entry.
type MessageBubble struct {
	Message       model.Message
	Width         int
	ShowTimestamp bool

	// Markdown renders bot text when set
	Markdown *Markdown

	theme *styles.Theme
}

// NewMessageBubble creates a new MessageBubble.
func NewMessageBubble(msg model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		theme:         theme,
	}
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	text := b.Message.Text
	if text == "" {
		text = "..."
	}

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}

	var body string
	if !b.Message.IsUser() && b.Markdown != nil {
		body = b.Markdown.Render(text)
	} else {
		body = wordWrap(text, maxContentWidth)
	}

	style := b.theme.BotBubble
	align := lipgloss.Left
	if b.Message.IsUser() {
		style = b.theme.UserBubble
		align = lipgloss.Right
	}
	bubble := style.Render(body)

	header := []string{b.theme.RoleLabel.Render(b.Message.Role.DisplayName())}
	if b.Message.Cached {
		header = append(header, b.theme.CachedBadge.Render("(cached)"))
	}
	if b.ShowTimestamp && !b.Message.Timestamp.IsZero() {
		header = append(header, b.theme.Timestamp.Render(b.Message.Timestamp.Format(time.Kitchen)))
	}

	return lipgloss.JoinVertical(align, strings.Join(header, " "), bubble)
}

// =============================================================================
// MESSAGE LIST COMPONENT
// =============================================================================

// MessageList renders the whole chat log.
type MessageList struct {
	Messages       []model.Message
	Width          int
	ShowTimestamps bool
	Markdown       *Markdown

	theme *styles.Theme
}

// NewMessageList creates a new MessageList.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Width:          80,
		ShowTimestamps: true,
		theme:          theme,
	}
}

// View renders all messages separated by blank lines.
func (ml *MessageList) View() string {
	if len(ml.Messages) == 0 {
		return lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Width(ml.Width).
			Align(lipgloss.Center).
			Padding(1, 0).
			Render("Ask a health question, or pick a chip below.")
	}

	parts := make([]string, 0, len(ml.Messages))
	for _, msg := range ml.Messages {
		bubble := NewMessageBubble(msg, ml.theme)
		bubble.Width = ml.Width
		bubble.ShowTimestamp = ml.ShowTimestamps
		bubble.Markdown = ml.Markdown
		parts = append(parts, bubble.View())
	}
	return strings.Join(parts, "\n\n")
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// wordWrap wraps text to fit within width display columns.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	for lineIdx, line := range strings.Split(text, "\n") {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		current := words[0]
		for _, word := range words[1:] {
			if lipgloss.Width(current)+1+lipgloss.Width(word) <= width {
				current += " " + word
			} else {
				result.WriteString(current)
				result.WriteString("\n")
				current = word
			}
		}
		result.WriteString(current)
	}
	return result.String()
}
