// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package consult

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	domain "github.com/jeranaias/medconsult-tui/internal/consult"
	"github.com/jeranaias/medconsult-tui/internal/ui/components"
)

// View renders the form, or the alert when one is showing.
func (m Model) View() string {
	if m.alert.Visible() {
		return m.alert.View(m.width, m.height)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.formView(), m.results.View())
}

func (m Model) formView() string {
	var rows []string
	for _, f := range []Field{FieldName, FieldAge, FieldGender} {
		rows = append(rows, m.label(f)+m.inputs[f].View())
	}
	rows = append(rows, m.label(FieldSeverity)+m.radioView())
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, m.label(FieldSymptoms), m.symptoms.View()))
	for _, f := range []Field{FieldDuration, FieldDisease} {
		rows = append(rows, m.label(f)+m.inputs[f].View())
	}
	rows = append(rows, m.buttonsView())
	rows = append(rows, m.spin.View())
	return strings.Join(rows, "\n")
}

func (m Model) label(f Field) string {
	if m.focused && m.focus == f {
		return m.theme.FieldLabelFocused.Render(fieldLabels[f])
	}
	return m.theme.FieldLabel.Render(fieldLabels[f])
}

func (m Model) radioView() string {
	var opts []string
	for i, s := range m.severities {
		mark := "( ) "
		style := m.theme.Radio
		if i == m.severity {
			mark = "(*) "
			style = m.theme.RadioSelected
		}
		opts = append(opts, style.Render(mark+domain.SeverityLabel(s)))
	}
	return strings.Join(opts, "")
}

func (m Model) buttonsView() string {
	submit := m.theme.Button
	switch {
	case m.busy:
		submit = m.theme.ButtonDisabled
	case m.focused && m.focus == FieldSubmit:
		submit = m.theme.ButtonFocused
	}
	buttons := []string{submit.Render("Submit")}

	if m.canDownload {
		dl := m.theme.Button
		switch {
		case m.downloading:
			dl = m.theme.ButtonDisabled
		case m.focused && m.focus == FieldDownload:
			dl = m.theme.ButtonFocused
		}
		buttons = append(buttons, " ", dl.Render("Download report"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
}

// layout gives the results viewport the rows the form leaves free.
func (m *Model) layout() {
	inputWidth := m.width - 14
	if inputWidth < 10 {
		inputWidth = 10
	}
	for _, in := range m.inputs {
		in.Width = inputWidth
	}
	m.symptoms.SetWidth(inputWidth)

	h := m.height - lipgloss.Height(m.formView())
	if h < 3 {
		h = 3
	}
	m.results.Width = m.width
	m.results.Height = h
	m.refresh()
}

// refresh re-renders the result area.
func (m *Model) refresh() {
	switch {
	case m.errText != "":
		m.results.SetContent(m.theme.ErrorText.Render(m.errText))
	case m.result != nil:
		m.results.SetContent(components.RenderResult(m.theme, *m.result, m.width))
	default:
		m.results.SetContent("")
	}
	m.results.GotoTop()
}
