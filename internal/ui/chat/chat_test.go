// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/medconsult-tui/internal/backend"
	"github.com/jeranaias/medconsult-tui/internal/config"
	"github.com/jeranaias/medconsult-tui/internal/mockserver"
	"github.com/jeranaias/medconsult-tui/internal/model"
	"github.com/jeranaias/medconsult-tui/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

type fakeBackend struct {
	asks    int32
	ingests int32
	ask     func(ctx context.Context, q string) (*backend.Answer, error)
	ingest  func(ctx context.Context) error
}

func (f *fakeBackend) Ask(ctx context.Context, q string) (*backend.Answer, error) {
	atomic.AddInt32(&f.asks, 1)
	return f.ask(ctx, q)
}

func (f *fakeBackend) Ingest(ctx context.Context) error {
	atomic.AddInt32(&f.ingests, 1)
	return f.ingest(ctx)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.TimeoutSecs = 5
	cfg.UI.Markdown = false
	return cfg
}

func newMockPane(t *testing.T) (Model, *mockserver.Server) {
	t.Helper()
	srv := mockserver.NewServer("").WithLogger(log.New(io.Discard, "", 0))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(&backend.ClientConfig{BaseURL: ts.URL})
	require.NoError(t, err)
	return New(client, testConfig(), styles.NewTheme("dark")), srv
}

// collect runs cmd and any batched commands, returning the pane results.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	switch msg.(type) {
	case AnswerMsg, IngestMsg:
		return []tea.Msg{msg}
	}
	return nil
}

// drive runs cmd and feeds its results back into the pane.
func drive(m Model, cmd tea.Cmd) Model {
	for _, msg := range collect(cmd) {
		m, _ = m.Update(msg)
	}
	return m
}

func enter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func lastMessage(t *testing.T, m Model) model.Message {
	t.Helper()
	msgs := m.Messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

// =============================================================================
// SEND
// =============================================================================

func TestSend_FluScenario(t *testing.T) {
	m, _ := newMockPane(t)
	m.SetInputValue("What is flu?")

	m, cmd := m.Update(enter())
	require.NotNil(t, cmd)
	assert.True(t, m.Busy())
	assert.False(t, m.KeyMap().Send.Enabled())

	m = drive(m, cmd)

	msgs := m.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "What is flu?", msgs[0].Text)
	assert.Equal(t, model.RoleBot, msgs[1].Role)
	assert.Equal(t, "Flu is a viral infection.", msgs[1].Text)

	assert.False(t, m.Busy())
	assert.True(t, m.KeyMap().Send.Enabled())
	assert.Empty(t, m.InputValue())

	// Same question again is served from the backend cache
	m.SetInputValue("What is flu?")
	m, cmd = m.Update(enter())
	m = drive(m, cmd)
	assert.True(t, lastMessage(t, m).Cached)
}

func TestSend_TrimsQuestion(t *testing.T) {
	var got string
	fb := &fakeBackend{ask: func(_ context.Context, q string) (*backend.Answer, error) {
		got = q
		return &backend.Answer{Text: "ok", Status: 200}, nil
	}}
	m := New(fb, testConfig(), styles.NewTheme("dark"))
	m.SetInputValue("  hello  ")

	m = drive(m, m.Send())
	assert.Equal(t, "hello", got)
	assert.Equal(t, "hello", m.Messages()[0].Text)
}

func TestSend_EmptyIsNoop(t *testing.T) {
	fb := &fakeBackend{}
	m := New(fb, testConfig(), styles.NewTheme("dark"))

	for _, in := range []string{"", "   ", "\t"} {
		m.SetInputValue(in)
		assert.Nil(t, m.Send())
	}
	assert.Empty(t, m.Messages())
	assert.False(t, m.Busy())
	assert.Zero(t, atomic.LoadInt32(&fb.asks))
}

func TestSend_BusyGuard(t *testing.T) {
	release := make(chan struct{})
	fb := &fakeBackend{ask: func(ctx context.Context, q string) (*backend.Answer, error) {
		<-release
		return &backend.Answer{Text: "answer to " + q, Status: 200}, nil
	}}
	m := New(fb, testConfig(), styles.NewTheme("dark"))

	m.SetInputValue("first")
	cmd := m.Send()
	require.NotNil(t, cmd)

	m.SetInputValue("second")
	assert.Nil(t, m.Send())
	m, _ = m.Update(enter())

	close(release)
	m = drive(m, cmd)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fb.asks))
	msgs := m.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "answer to first", msgs[1].Text)
}

func TestSend_ServerErrorWithAnswer(t *testing.T) {
	m, srv := newMockPane(t)
	srv.FailNext("/get_answer", mockserver.Fault{Status: 500, Body: `{"answer":"Error: index missing"}`})

	m.SetInputValue("What is flu?")
	m = drive(m, m.Send())

	assert.Equal(t, "Error: index missing", lastMessage(t, m).Text)
	assert.False(t, m.Busy())
}

func TestSend_Failures(t *testing.T) {
	tests := []struct {
		name  string
		fault mockserver.Fault
	}{
		{"500 without answer", mockserver.Fault{Status: 500, Body: `{"error":"boom"}`}},
		{"not json", mockserver.Fault{Status: 200, Body: "<html>"}},
		{"missing answer", mockserver.Fault{Status: 200, Body: `{"cached":false}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, srv := newMockPane(t)
			srv.FailNext("/get_answer", tt.fault)

			m.SetInputValue("What is flu?")
			m = drive(m, m.Send())

			assert.Equal(t, MsgContactError, lastMessage(t, m).Text)
			assert.False(t, m.Busy())
			assert.Empty(t, m.InputValue())
		})
	}
}

func TestSend_Unreachable(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	client, err := backend.NewClient(&backend.ClientConfig{BaseURL: url})
	require.NoError(t, err)
	m := New(client, testConfig(), styles.NewTheme("dark"))

	m.SetInputValue("What is flu?")
	m = drive(m, m.Send())

	assert.Equal(t, MsgContactError, lastMessage(t, m).Text)
	assert.False(t, m.Busy())
}

func TestCancel_HungRequest(t *testing.T) {
	m, srv := newMockPane(t)
	srv.FailNext("/get_answer", mockserver.Fault{Hang: true})

	m.SetInputValue("What is flu?")
	cmd := m.Send()

	done := make(chan Model, 1)
	go func(m Model) { done <- drive(m, cmd) }(m)

	// Give the request time to reach the server
	time.Sleep(50 * time.Millisecond)
	assert.True(t, m.KeyMap().Cancel.Enabled())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	select {
	case m = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled request did not finish")
	}

	assert.Equal(t, MsgContactError, lastMessage(t, m).Text)
	assert.False(t, m.Busy())
	assert.False(t, m.KeyMap().Cancel.Enabled())
}

func TestStaleResultIgnored(t *testing.T) {
	m := New(&fakeBackend{}, testConfig(), styles.NewTheme("dark"))
	m, _ = m.Update(AnswerMsg{ID: 42, Answer: &backend.Answer{Text: "late"}})
	m, _ = m.Update(IngestMsg{ID: 7})
	assert.Empty(t, m.Messages())
}

// =============================================================================
// BUILD INDEX
// =============================================================================

func TestBuildIndex(t *testing.T) {
	m, srv := newMockPane(t)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlB})
	require.NotNil(t, cmd)
	assert.True(t, m.IngestBusy())
	assert.Nil(t, m.BuildIndex(), "second build while busy is ignored")

	m = drive(m, cmd)
	assert.Equal(t, MsgIndexBuilt, lastMessage(t, m).Text)
	assert.Equal(t, MsgIndexBuilt, m.Status())
	assert.False(t, m.IngestBusy())
	assert.Equal(t, 1, srv.IngestCount())

	srv.FailNext("/ingest", mockserver.Fault{Status: 500, Body: `{"status":"error","message":"no pdfs"}`})
	m = drive(m, m.BuildIndex())
	assert.Equal(t, MsgIndexFailed, lastMessage(t, m).Text)
	assert.False(t, m.IngestBusy())

	srv.FailNext("/ingest", mockserver.Fault{Status: 200, Body: "not json"})
	m = drive(m, m.BuildIndex())
	assert.Equal(t, MsgIndexFailed, lastMessage(t, m).Text)
}

func TestBuildIndex_IndependentOfSend(t *testing.T) {
	release := make(chan struct{})
	fb := &fakeBackend{
		ask: func(context.Context, string) (*backend.Answer, error) {
			<-release
			return &backend.Answer{Text: "a", Status: 200}, nil
		},
		ingest: func(context.Context) error { return nil },
	}
	m := New(fb, testConfig(), styles.NewTheme("dark"))

	m.SetInputValue("q")
	askCmd := m.Send()
	m = drive(m, m.BuildIndex())
	assert.True(t, m.Busy())
	assert.False(t, m.IngestBusy())

	close(release)
	m = drive(m, askCmd)
	assert.False(t, m.Busy())
}

// =============================================================================
// CHIPS
// =============================================================================

func TestApplyChip(t *testing.T) {
	fb := &fakeBackend{}
	m := New(fb, testConfig(), styles.NewTheme("dark"))

	assert.True(t, m.ApplyChip(1))
	assert.Equal(t, config.DefaultChips[0], m.InputValue())

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}, Alt: true})
	assert.Nil(t, cmd)
	assert.Equal(t, config.DefaultChips[1], m.InputValue())

	assert.False(t, m.ApplyChip(42))
	assert.Equal(t, config.DefaultChips[1], m.InputValue())
	assert.Empty(t, m.Messages(), "chips never send")
	assert.Zero(t, atomic.LoadInt32(&fb.asks))
}

func TestLastAnswerAndView(t *testing.T) {
	m, _ := newMockPane(t)
	_, ok := m.LastAnswer()
	assert.False(t, ok)

	m.SetSize(100, 30)
	m.SetInputValue("What is flu?")
	m = drive(m, m.Send())

	ans, ok := m.LastAnswer()
	assert.True(t, ok)
	assert.Equal(t, "Flu is a viral infection.", ans)
	assert.Contains(t, m.View(), "Flu is a viral infection.")
	assert.Contains(t, m.View(), "alt+1")
}
