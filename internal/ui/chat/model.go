// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/medconsult-tui/internal/backend"
	"github.com/jeranaias/medconsult-tui/internal/config"
	"github.com/jeranaias/medconsult-tui/internal/model"
	"github.com/jeranaias/medconsult-tui/internal/ui/components"
	"github.com/jeranaias/medconsult-tui/internal/ui/styles"
)

// Backend is the part of the backend client the chat pane uses.
type Backend interface {
	Ask(ctx context.Context, question string) (*backend.Answer, error)
	Ingest(ctx context.Context) error
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat pane.
type Model struct {
	client  Backend
	timeout time.Duration
	theme   *styles.Theme

	width  int
	height int

	log *model.Log

	// UI components
	viewport   viewport.Model
	input      textinput.Model
	chips      components.ChipBar
	messages   *components.MessageList
	markdown   *components.Markdown
	askSpin    components.Spinner
	ingestSpin components.Spinner
	keys       KeyMap

	// In-flight requests; busy flags mirror them for the view
	ask        *components.Inflight
	ingest     *components.Inflight
	busy       bool
	ingestBusy bool

	focused bool
	status  string
}

// New creates a chat pane.
func New(client Backend, cfg *config.Config, theme *styles.Theme) Model {
	if cfg == nil {
		cfg = config.Default()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Placeholder = "Ask a health question..."
	ti.CharLimit = 2000
	ti.Focus()

	m := Model{
		client:     client,
		timeout:    cfg.Timeout(),
		theme:      theme,
		width:      80,
		height:     24,
		log:        model.NewLog(),
		viewport:   viewport.New(80, 16),
		input:      ti,
		chips:      components.NewChipBar(cfg.UI.Chips, theme),
		messages:   components.NewMessageList(theme),
		askSpin:    components.NewSpinner(theme, "Thinking"),
		ingestSpin: components.NewSpinner(theme, "Building index"),
		keys:       DefaultKeyMap(),
		ask:        &components.Inflight{},
		ingest:     &components.Inflight{},
		focused:    true,
	}

	if cfg.UI.Markdown {
		md, err := components.NewMarkdown(theme.GlamourStyle(), m.width-12)
		if err != nil {
			log.Printf("MARKDOWN_DISABLED | error=%v", err)
		} else {
			m.markdown = md
			m.messages.Markdown = md
		}
	}

	m.layout()
	return m
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Send submits the question in the input. It is a no-op while a question is
// in flight or when the trimmed input is empty.
func (m *Model) Send() tea.Cmd {
	if m.busy {
		return nil
	}
	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		return nil
	}

	m.log.AddUser(question)
	m.busy = true
	m.status = ""
	m.syncKeys()
	m.refresh()

	ctx, id := m.ask.Begin(m.timeout)
	log.Printf("CHAT_SEND | req=%d chars=%d", id, len(question))
	return tea.Batch(m.askSpin.Start(), askCmd(ctx, m.client, id, question))
}

// BuildIndex asks the backend to rebuild its document index. It is a no-op
// while an index build is in flight.
func (m *Model) BuildIndex() tea.Cmd {
	if m.ingestBusy {
		return nil
	}

	m.ingestBusy = true
	m.status = ""
	m.syncKeys()

	ctx, id := m.ingest.Begin(m.timeout)
	log.Printf("INGEST_START | req=%d", id)
	return tea.Batch(m.ingestSpin.Start(), ingestCmd(ctx, m.client, id))
}

// ApplyChip copies the preset of the 1-based chip n into the input and
// focuses it. It reports false when there is no such chip.
func (m *Model) ApplyChip(n int) bool {
	q, ok := m.chips.Chip(n)
	if !ok {
		return false
	}
	m.input.SetValue(q)
	m.input.CursorEnd()
	m.input.Focus()
	return true
}

// Cancel aborts every in-flight request of the pane. The aborted calls
// report back through the normal failure path.
func (m *Model) Cancel() bool {
	a := m.ask.Abort()
	b := m.ingest.Abort()
	if a || b {
		log.Printf("CHAT_CANCEL | ask=%t ingest=%t", a, b)
		m.status = "Cancelling..."
	}
	return a || b
}

// =============================================================================
// RESULT HANDLING
// =============================================================================

func (m *Model) handleAnswer(msg AnswerMsg) {
	if !m.ask.Finish(msg.ID) {
		return
	}

	if msg.Err != nil || msg.Answer == nil {
		log.Printf("CHAT_ERROR | req=%d error=%v", msg.ID, msg.Err)
		m.log.AddBot(MsgContactError, false)
	} else {
		log.Printf("CHAT_ANSWER | req=%d status=%d cached=%t", msg.ID, msg.Answer.Status, msg.Answer.Cached)
		m.log.AddBot(msg.Answer.Text, msg.Answer.Cached)
	}

	m.busy = false
	m.askSpin.Stop()
	m.status = ""
	m.input.Reset()
	m.input.Focus()
	m.syncKeys()
	m.refresh()
}

func (m *Model) handleIngest(msg IngestMsg) {
	if !m.ingest.Finish(msg.ID) {
		return
	}

	text := MsgIndexBuilt
	if msg.Err != nil {
		log.Printf("INGEST_ERROR | req=%d error=%v", msg.ID, msg.Err)
		text = MsgIndexFailed
	} else {
		log.Printf("INGEST_DONE | req=%d", msg.ID)
	}
	m.log.AddBot(text, false)

	m.ingestBusy = false
	m.ingestSpin.Stop()
	m.status = text
	m.syncKeys()
	m.refresh()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Busy reports whether a question is in flight.
func (m Model) Busy() bool {
	return m.busy
}

// IngestBusy reports whether an index build is in flight.
func (m Model) IngestBusy() bool {
	return m.ingestBusy
}

// Messages returns a copy of the chat log.
func (m Model) Messages() []model.Message {
	return m.log.Messages()
}

// LastAnswer returns the text of the latest bot message.
func (m Model) LastAnswer() (string, bool) {
	msg, ok := m.log.LastBot()
	if !ok {
		return "", false
	}
	return msg.Text, true
}

// InputValue returns the current question input.
func (m Model) InputValue() string {
	return m.input.Value()
}

// SetInputValue replaces the question input.
func (m *Model) SetInputValue(s string) {
	m.input.SetValue(s)
}

// Status returns the latest status line text.
func (m Model) Status() string {
	return m.status
}

// KeyMap returns the pane key bindings, with the enabled state reflecting
// the busy flags.
func (m Model) KeyMap() KeyMap {
	return m.keys
}

// Focus gives the pane keyboard focus.
func (m *Model) Focus() tea.Cmd {
	m.focused = true
	return m.input.Focus()
}

// Blur removes keyboard focus.
func (m *Model) Blur() {
	m.focused = false
	m.input.Blur()
}

// SetSize sets the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.markdown != nil {
		if err := m.markdown.SetWidth(width - 12); err != nil {
			log.Printf("MARKDOWN_RESIZE | error=%v", err)
		}
	}
	m.layout()
}

func (m *Model) syncKeys() {
	m.keys.Send.SetEnabled(!m.busy)
	m.keys.Ingest.SetEnabled(!m.ingestBusy)
	m.keys.Cancel.SetEnabled(m.busy || m.ingestBusy)
}
