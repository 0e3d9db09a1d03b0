// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"log"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/medconsult-tui/internal/backend"
	"github.com/jeranaias/medconsult-tui/internal/config"
	"github.com/jeranaias/medconsult-tui/internal/ui/chat"
	"github.com/jeranaias/medconsult-tui/internal/ui/components"
	"github.com/jeranaias/medconsult-tui/internal/ui/consult"
	"github.com/jeranaias/medconsult-tui/internal/ui/styles"
)

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// Pane identifies one of the two top-level panes.
type Pane int

const (
	PaneChat    Pane = iota // Free-text questions
	PaneConsult             // Consultation form
)

// String returns the tab title.
func (p Pane) String() string {
	if p == PaneConsult {
		return "Consult"
	}
	return "Chat"
}

// Backend is what both panes need from the backend client.
type Backend interface {
	chat.Backend
	consult.Backend
}

// AppKeyMap holds the bindings that work in every pane.
type AppKeyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Chat    key.Binding
	Consult key.Binding
	Copy    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultAppKeyMap returns the default global bindings.
func DefaultAppKeyMap() AppKeyMap {
	return AppKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "previous pane"),
		),
		Chat: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "chat"),
		),
		Consult: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "consult"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy answer"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// paneHelp joins a pane's bindings with the global ones for the footer and
// the full help view.
type paneHelp struct {
	pane help.KeyMap
	app  AppKeyMap
}

func (h paneHelp) ShortHelp() []key.Binding {
	return append(h.pane.ShortHelp(), h.app.Next, h.app.Help)
}

func (h paneHelp) FullHelp() [][]key.Binding {
	return append(h.pane.FullHelp(),
		[]key.Binding{h.app.Next, h.app.Prev, h.app.Chat, h.app.Consult},
		[]key.Binding{h.app.Copy, h.app.Help, h.app.Quit},
	)
}

// App is the root Bubble Tea model: a header, the focused pane and a footer.
type App struct {
	theme *styles.Theme
	cfg   *config.Config

	width  int
	height int

	focus   Pane
	chat    chat.Model
	consult consult.Model

	keys      AppKeyMap
	help      help.Model
	statusBar components.StatusBar

	// notice is a one-shot app status (clipboard) shown until the next key
	notice string

	// copyText writes to the system clipboard
	copyText func(string) error
}

// NewApp creates the root model with the chat pane focused.
func NewApp(client Backend, cfg *config.Config, theme *styles.Theme) *App {
	if cfg == nil {
		cfg = config.Default()
	}

	h := help.New()
	h.Styles.ShortKey = theme.ShortcutKey
	h.Styles.FullKey = theme.ShortcutKey
	h.Styles.ShortDesc = theme.ShortcutDesc
	h.Styles.FullDesc = theme.ShortcutDesc

	a := &App{
		theme:     theme,
		cfg:       cfg,
		width:     80,
		height:    24,
		chat:      chat.New(client, cfg, theme),
		consult:   consult.NewForm(client, cfg, theme),
		keys:      DefaultAppKeyMap(),
		help:      h,
		statusBar: components.NewStatusBar(theme),
		copyText:  clipboard.WriteAll,
	}
	a.consult.Blur()
	a.chat.Focus()
	a.layout()
	return a
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.chat.Init(), a.consult.Init())
}

// Update handles messages and updates the model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.theme.SetSize(msg.Width, msg.Height)
		a.layout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.MouseMsg:
		return a, a.updateFocused(msg)

	// Results go to the pane that issued the request
	case chat.AnswerMsg, chat.IngestMsg:
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		return a, cmd

	case consult.ConsultMsg, consult.DownloadMsg, components.AlertDismissedMsg:
		var cmd tea.Cmd
		a.consult, cmd = a.consult.Update(msg)
		// A failed download raises a modal that needs to be seen
		if a.consult.AlertVisible() && a.focus != PaneConsult {
			cmd = tea.Batch(cmd, a.setFocus(PaneConsult))
		}
		return a, cmd
	}

	// Spinner ticks and cursor blinks carry ids; each pane ignores the others'
	var chatCmd, consultCmd tea.Cmd
	a.chat, chatCmd = a.chat.Update(msg)
	a.consult, consultCmd = a.consult.Update(msg)
	return a, tea.Batch(chatCmd, consultCmd)
}

// handleKeyPress processes keyboard input.
func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.notice = ""

	if key.Matches(msg, a.keys.Quit) {
		a.chat.Cancel()
		a.consult.Cancel()
		return a, tea.Quit
	}

	// The alert is modal
	if a.consult.AlertVisible() {
		var cmd tea.Cmd
		a.consult, cmd = a.consult.Update(msg)
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Next), key.Matches(msg, a.keys.Prev):
		return a, a.setFocus(1 - a.focus)
	case key.Matches(msg, a.keys.Chat):
		return a, a.setFocus(PaneChat)
	case key.Matches(msg, a.keys.Consult):
		return a, a.setFocus(PaneConsult)
	case key.Matches(msg, a.keys.Copy):
		a.copyLastAnswer()
		return a, nil
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		a.layout()
		return a, nil
	}

	return a, a.updateFocused(msg)
}

// View renders the header, the focused pane and the footer.
func (a *App) View() string {
	body := a.chat.View()
	if a.focus == PaneConsult {
		body = a.consult.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, a.headerView(), body, a.footerView())
}

// =============================================================================
// HELPERS
// =============================================================================

// Focus returns the focused pane.
func (a *App) Focus() Pane {
	return a.focus
}

// Status returns the text shown on the right of the footer.
func (a *App) Status() string {
	if a.notice != "" {
		return a.notice
	}
	if a.focus == PaneConsult {
		return a.consult.Status()
	}
	return a.chat.Status()
}

func (a *App) setFocus(p Pane) tea.Cmd {
	if p == a.focus {
		return nil
	}
	a.focus = p
	log.Printf("PANE_FOCUS | pane=%s", p)
	if p == PaneConsult {
		a.chat.Blur()
		return a.consult.Focus()
	}
	a.consult.Blur()
	return a.chat.Focus()
}

func (a *App) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if a.focus == PaneConsult {
		a.consult, cmd = a.consult.Update(msg)
	} else {
		a.chat, cmd = a.chat.Update(msg)
	}
	return cmd
}

func (a *App) copyLastAnswer() {
	text, ok := a.chat.LastAnswer()
	if !ok {
		a.notice = "Nothing to copy yet"
		return
	}
	if err := a.copyText(text); err != nil {
		log.Printf("CLIPBOARD_ERROR | error=%v", err)
		a.notice = "Copy failed: " + err.Error()
		return
	}
	a.notice = "Copied last answer"
}

func (a *App) helpKeys() paneHelp {
	var km help.KeyMap = a.chat.KeyMap()
	if a.focus == PaneConsult {
		km = a.consult.KeyMap()
	}
	return paneHelp{pane: km, app: a.keys}
}

// layout gives both panes the rows between header and footer.
func (a *App) layout() {
	a.statusBar.SetWidth(a.width)
	a.help.Width = a.width

	h := a.height - lipgloss.Height(a.headerView()) - lipgloss.Height(a.footerView())
	if h < 5 {
		h = 5
	}
	a.chat.SetSize(a.width, h)
	a.consult.SetSize(a.width, h)
}

func (a *App) headerView() string {
	var tabs []string
	for _, p := range []Pane{PaneChat, PaneConsult} {
		style := a.theme.TabInactive
		if p == a.focus {
			style = a.theme.TabActive
		}
		tabs = append(tabs, style.Render(p.String()))
	}

	left := a.theme.HeaderTitle.Render("medconsult") + "  " + strings.Join(tabs, " ")
	url := a.theme.HeaderURL.Render(a.cfg.Server.URL)
	gap := a.width - 2 - lipgloss.Width(left) - lipgloss.Width(url)
	if gap < 1 {
		gap = 1
	}
	return a.theme.Header.Width(a.width).Render(left + strings.Repeat(" ", gap) + url)
}

func (a *App) footerView() string {
	keys := a.helpKeys()
	if a.help.ShowAll {
		return a.help.View(keys)
	}
	a.statusBar.SetStatus(a.Status())
	return a.statusBar.View(keys.ShortHelp())
}

// compile-time check that the real client serves both panes
var _ Backend = (*backend.Client)(nil)
