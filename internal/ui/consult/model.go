// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package consult

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/medconsult-tui/internal/backend"
	"github.com/jeranaias/medconsult-tui/internal/config"
	domain "github.com/jeranaias/medconsult-tui/internal/consult"
	"github.com/jeranaias/medconsult-tui/internal/ui/components"
	"github.com/jeranaias/medconsult-tui/internal/ui/styles"
)

// Backend is the part of the backend client the form uses.
type Backend interface {
	Consult(ctx context.Context, req domain.Request) (*domain.Response, error)
	DownloadReport(ctx context.Context, ref string) (*backend.Report, error)
}

// =============================================================================
// FIELDS
// =============================================================================

// Field identifies a focusable element of the form.
type Field int

const (
	FieldName Field = iota
	FieldAge
	FieldGender
	FieldSeverity
	FieldSymptoms
	FieldDuration
	FieldDisease
	FieldSubmit
	FieldDownload
)

var fieldLabels = map[Field]string{
	FieldName:     "Name",
	FieldAge:      "Age",
	FieldGender:   "Gender",
	FieldSeverity: "Severity",
	FieldSymptoms: "Symptoms",
	FieldDuration: "Duration",
	FieldDisease:  "Disease",
}

// textFields are the single-line inputs, in focus order.
var textFields = []Field{FieldName, FieldAge, FieldGender, FieldDuration, FieldDisease}

// =============================================================================
// FORM MODEL
// =============================================================================

// Model is the Bubble Tea model for the consultation form.
type Model struct {
	client  Backend
	cfg     *config.Config
	timeout time.Duration
	theme   *styles.Theme

	width  int
	height int

	// Form state
	inputs     map[Field]*textinput.Model
	symptoms   textarea.Model
	severities []string
	severity   int
	focus      Field

	// Request state
	submit      *components.Inflight
	download    *components.Inflight
	busy        bool
	downloading bool
	spin        components.Spinner

	// Outcome of the last submit
	result      *domain.Result
	errText     string
	canDownload bool

	results viewport.Model
	alert   components.Alert
	keys    KeyMap
	status  string
	focused bool
}

// NewForm creates the consultation form.
func NewForm(client Backend, cfg *config.Config, theme *styles.Theme) Model {
	if cfg == nil {
		cfg = config.Default()
	}

	inputs := make(map[Field]*textinput.Model, len(textFields))
	for _, f := range textFields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 500
		ti.Placeholder = strings.ToLower(fieldLabels[f])
		inputs[f] = &ti
	}

	ta := textarea.New()
	ta.Placeholder = "describe the symptoms"
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(3)
	// Enter submits the form; alt+enter starts a new line
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	severities := cfg.Consult.Severities
	if len(severities) == 0 {
		severities = config.Default().Consult.Severities
	}
	selected := 0
	for i, s := range severities {
		if s == cfg.Consult.DefaultSeverity {
			selected = i
		}
	}

	m := Model{
		client:     client,
		cfg:        cfg,
		timeout:    cfg.ConsultTimeout(),
		theme:      theme,
		width:      80,
		height:     24,
		inputs:     inputs,
		symptoms:   ta,
		severities: severities,
		severity:   selected,
		submit:     &components.Inflight{},
		download:   &components.Inflight{},
		spin:       components.NewSpinner(theme, "Consulting"),
		results:    viewport.New(80, 8),
		alert:      components.NewAlert(theme),
		keys:       DefaultKeyMap(),
	}
	m.setFocus(FieldName)
	m.layout()
	return m
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Request builds the consult request from the current field values.
func (m Model) Request() domain.Request {
	return domain.NewRequest(
		m.inputs[FieldName].Value(),
		m.inputs[FieldAge].Value(),
		m.inputs[FieldGender].Value(),
		m.Severity(),
		m.symptoms.Value(),
		m.inputs[FieldDuration].Value(),
		m.inputs[FieldDisease].Value(),
	)
}

// Submit sends the form. It is a no-op while a submit is in flight. The
// previous result, error and download state are cleared first.
func (m *Model) Submit() tea.Cmd {
	if m.busy {
		return nil
	}

	m.busy = true
	m.result = nil
	m.errText = ""
	m.canDownload = false
	if m.focus == FieldDownload {
		m.setFocus(FieldSubmit)
	}
	m.status = ""
	m.syncKeys()
	m.refresh()

	req := m.Request()
	ctx, id := m.submit.Begin(m.timeout)
	log.Printf("CONSULT_SUBMIT | req=%d severity=%s", id, req.Severity)
	return tea.Batch(m.spin.Start(), consultCmd(ctx, m.client, id, req))
}

// Download fetches the report of the last reply and saves it to the report
// directory. It is a no-op unless a report is available and no download is
// in flight.
func (m *Model) Download() tea.Cmd {
	if !m.canDownload || m.downloading || m.result == nil {
		return nil
	}

	m.downloading = true
	m.status = "Downloading report..."
	m.syncKeys()

	ctx, id := m.download.Begin(m.cfg.Timeout())
	log.Printf("REPORT_DOWNLOAD | req=%d ref=%s", id, m.result.ReportRef)
	return downloadCmd(ctx, m.client, id, m.result.ReportRef, m.cfg.Report)
}

// Cancel aborts the in-flight submit and download.
func (m *Model) Cancel() bool {
	a := m.submit.Abort()
	b := m.download.Abort()
	if a || b {
		log.Printf("CONSULT_CANCEL | submit=%t download=%t", a, b)
	}
	return a || b
}

// =============================================================================
// RESULT HANDLING
// =============================================================================

func (m *Model) handleConsult(msg ConsultMsg) {
	if !m.submit.Finish(msg.ID) {
		return
	}

	if msg.Err != nil || msg.Response == nil {
		log.Printf("CONSULT_ERROR | req=%d error=%v", msg.ID, msg.Err)
		m.errText = errorText(msg.Err)
	} else {
		res := domain.BuildResult(msg.Request, *msg.Response)
		m.result = &res
		m.canDownload = res.HasReport
		if !res.HasReport {
			log.Printf("CONSULT_NO_REPORT | req=%d pdf=%q", msg.ID, msg.Response.PDF)
		}
		log.Printf("CONSULT_DONE | req=%d condition=%q", msg.ID, res.Condition)
	}

	m.busy = false
	m.spin.Stop()
	m.syncKeys()
	m.layout()
}

func (m *Model) handleDownload(msg DownloadMsg) {
	if !m.download.Finish(msg.ID) {
		return
	}
	m.downloading = false
	m.syncKeys()

	if msg.Err != nil {
		log.Printf("REPORT_ERROR | req=%d error=%v", msg.ID, msg.Err)
		m.status = ""
		m.alert.Show(MsgDownloadFailed)
		return
	}
	if msg.InspectErr != nil {
		log.Printf("REPORT_INSPECT_ERROR | path=%s error=%v", msg.Saved.Path, msg.InspectErr)
	}
	log.Printf("REPORT_SAVED | path=%s bytes=%d", msg.Saved.Path, msg.Saved.Size)
	m.status = reportSummary(msg)
}

// =============================================================================
// FOCUS
// =============================================================================

func (m *Model) focusables() []Field {
	fields := []Field{FieldName, FieldAge, FieldGender, FieldSeverity, FieldSymptoms, FieldDuration, FieldDisease, FieldSubmit}
	if m.canDownload {
		fields = append(fields, FieldDownload)
	}
	return fields
}

func (m *Model) moveFocus(delta int) {
	fields := m.focusables()
	idx := 0
	for i, f := range fields {
		if f == m.focus {
			idx = i
		}
	}
	idx = (idx + delta + len(fields)) % len(fields)
	m.setFocus(fields[idx])
}

func (m *Model) setFocus(f Field) {
	m.focus = f
	for field, in := range m.inputs {
		if field == f {
			in.Focus()
		} else {
			in.Blur()
		}
	}
	if f == FieldSymptoms {
		m.symptoms.Focus()
	} else {
		m.symptoms.Blur()
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// SetField sets a text field. Severity is set with SetSeverity.
func (m *Model) SetField(f Field, value string) {
	if f == FieldSymptoms {
		m.symptoms.SetValue(value)
		return
	}
	if in, ok := m.inputs[f]; ok {
		in.SetValue(value)
	}
}

// SetSeverity selects a severity from the configured set.
func (m *Model) SetSeverity(s string) error {
	for i, v := range m.severities {
		if strings.EqualFold(v, s) {
			m.severity = i
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q (want one of %s)", s, strings.Join(m.severities, ", "))
}

// Severity returns the selected severity.
func (m Model) Severity() string {
	return m.severities[m.severity]
}

// Focused returns the focused field.
func (m Model) Focused() Field {
	return m.focus
}

// Busy reports whether a submit is in flight.
func (m Model) Busy() bool {
	return m.busy
}

// Downloading reports whether a download is in flight.
func (m Model) Downloading() bool {
	return m.downloading
}

// Result returns the rendered result of the last successful submit.
func (m Model) Result() (domain.Result, bool) {
	if m.result == nil {
		return domain.Result{}, false
	}
	return *m.result, true
}

// ErrorText returns the text shown in place of results after a failure.
func (m Model) ErrorText() string {
	return m.errText
}

// CanDownload reports whether the download action is offered.
func (m Model) CanDownload() bool {
	return m.canDownload
}

// AlertVisible reports whether the blocking alert is showing.
func (m Model) AlertVisible() bool {
	return m.alert.Visible()
}

// AlertMessage returns the alert text.
func (m Model) AlertMessage() string {
	return m.alert.Message()
}

// Status returns the latest status line text.
func (m Model) Status() string {
	return m.status
}

// KeyMap returns the form key bindings.
func (m Model) KeyMap() KeyMap {
	return m.keys
}

// Focus gives the form keyboard focus.
func (m *Model) Focus() tea.Cmd {
	m.focused = true
	m.setFocus(m.focus)
	return textinput.Blink
}

// Blur removes keyboard focus.
func (m *Model) Blur() {
	m.focused = false
	for _, in := range m.inputs {
		in.Blur()
	}
	m.symptoms.Blur()
}

// SetSize sets the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.layout()
}

func (m *Model) syncKeys() {
	m.keys.Submit.SetEnabled(!m.busy)
	m.keys.Download.SetEnabled(m.canDownload && !m.downloading)
	m.keys.Cancel.SetEnabled(m.busy || m.downloading)
}
