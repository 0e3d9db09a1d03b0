// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package consult

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/medconsult-tui/internal/config"
	domain "github.com/jeranaias/medconsult-tui/internal/consult"
	"github.com/jeranaias/medconsult-tui/internal/report"
	"github.com/jeranaias/medconsult-tui/internal/ui/components"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// consultCmd performs one /consult call.
func consultCmd(ctx context.Context, client Backend, id int, req domain.Request) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.Consult(ctx, req)
		return ConsultMsg{ID: id, Request: req, Response: resp, Err: err}
	}
}

// downloadCmd fetches the report and streams it to disk.
func downloadCmd(ctx context.Context, client Backend, id int, ref string, rc config.ReportConfig) tea.Cmd {
	return func() tea.Msg {
		rep, err := client.DownloadReport(ctx, ref)
		if err != nil {
			return DownloadMsg{ID: id, Err: err}
		}
		defer rep.Close()

		saved, err := report.Save(rc.Dir, rc.FileName, rep.Body)
		if err != nil {
			return DownloadMsg{ID: id, Err: err}
		}

		msg := DownloadMsg{ID: id, Saved: saved}
		if rc.Inspect {
			msg.Info, msg.InspectErr = report.Inspect(saved.Path)
		}
		return msg
	}
}

func reportSummary(msg DownloadMsg) string {
	return report.Summary(msg.Saved, msg.Info)
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the form.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case ConsultMsg:
		m.handleConsult(msg)
		return m, nil

	case DownloadMsg:
		m.handleDownload(msg)
		return m, nil

	case components.AlertDismissedMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	// Spinner ticks and cursor blinks
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	cmds = append(cmds, cmd)
	cmds = append(cmds, m.updateFocused(msg))
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// A visible alert takes every key until dismissed
	if m.alert.Visible() {
		var cmd tea.Cmd
		m.alert, cmd = m.alert.Update(msg)
		return m, cmd
	}
	if !m.focused {
		return m, nil
	}

	if msg.Type == tea.KeyEnter && m.focus == FieldDownload {
		return m, m.Download()
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.Cancel()
		return m, nil
	case key.Matches(msg, m.keys.Download):
		return m, m.Download()
	case key.Matches(msg, m.keys.Submit):
		return m, m.Submit()
	case key.Matches(msg, m.keys.Next):
		m.moveFocus(1)
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.moveFocus(-1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	if m.focus == FieldSeverity {
		switch {
		case key.Matches(msg, m.keys.Left):
			m.severity = (m.severity - 1 + len(m.severities)) % len(m.severities)
		case key.Matches(msg, m.keys.Right), msg.String() == " ":
			m.severity = (m.severity + 1) % len(m.severities)
		}
		return m, nil
	}

	return m, m.updateFocused(msg)
}

// updateFocused forwards msg to the focused input.
func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focus == FieldSymptoms {
		m.symptoms, cmd = m.symptoms.Update(msg)
		return cmd
	}
	if in, ok := m.inputs[m.focus]; ok {
		*in, cmd = in.Update(msg)
	}
	return cmd
}
