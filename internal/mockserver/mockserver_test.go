// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"bytes"
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/medconsult-tui/internal/backend"
	"github.com/jeranaias/medconsult-tui/internal/consult"
)

func setup(t *testing.T) (*Server, *backend.Client) {
	t.Helper()
	s := NewServer("").WithLogger(log.New(io.Discard, "", 0))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})

	c, err := backend.NewClient(&backend.ClientConfig{BaseURL: ts.URL})
	require.NoError(t, err)
	return s, c
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAnswer_CannedAndCached(t *testing.T) {
	_, c := setup(t)

	ans, err := c.Ask(testCtx(t), "What is flu?")
	require.NoError(t, err)
	assert.Equal(t, "Flu is a viral infection.", ans.Text)
	assert.False(t, ans.Cached)

	ans, err = c.Ask(testCtx(t), "  what is FLU? ")
	require.NoError(t, err)
	assert.Equal(t, "Flu is a viral infection.", ans.Text)
	assert.True(t, ans.Cached)

	ans, err = c.Ask(testCtx(t), "Is kale good?")
	require.NoError(t, err)
	assert.Contains(t, ans.Text, "Is kale good?")
}

func TestAnswer_FormEncoded(t *testing.T) {
	s := NewServer("").WithLogger(log.New(io.Discard, "", 0))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.PostForm(ts.URL+"/get_answer", map[string][]string{"question": {"What is flu?"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Flu is a viral infection.")

	var sid string
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie {
			sid = ck.Value
		}
	}
	assert.NotEmpty(t, sid, "session cookie is set")
}

func TestIngest_ClearsCache(t *testing.T) {
	s, c := setup(t)

	_, err := c.Ask(testCtx(t), "What is flu?")
	require.NoError(t, err)
	require.NoError(t, c.Ingest(testCtx(t)))
	assert.Equal(t, 1, s.IngestCount())

	ans, err := c.Ask(testCtx(t), "What is flu?")
	require.NoError(t, err)
	assert.False(t, ans.Cached)
}

func TestConsult_ReplyAndDownload(t *testing.T) {
	_, c := setup(t)

	req := consult.NewRequest("Ann", "30", "F", "high", "fever and chills", "2 days", "")
	resp, err := c.Consult(testCtx(t), req)
	require.NoError(t, err)

	res := consult.BuildResult(req, *resp)
	assert.Equal(t, "Flu", res.Condition)
	assert.Equal(t, []string{"Paracetamol", "Rest"}, res.Medicines)
	assert.Equal(t, []string{}, res.Tests)
	assert.Equal(t, "No", res.RedFlag)
	assert.True(t, res.HasReport)
	assert.True(t, strings.HasPrefix(res.ReportRef, "consult_"))

	rep, err := c.DownloadReport(testCtx(t), res.ReportRef)
	require.NoError(t, err)
	defer rep.Close()
	data, err := io.ReadAll(rep.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Equal(t, "application/pdf", rep.ContentType)
}

func TestConsult_RedFlags(t *testing.T) {
	reply := DoctorReply(consult.NewRequest("B", "50", "M", "high", "Chest pain and bleeding", "1 hour", ""))
	assert.Equal(t, "Yes", consult.RedFlag(reply.Warning))
	assert.Len(t, consult.SplitList(reply.Warning), 2)
}

func TestConsult_InvalidAge(t *testing.T) {
	_, c := setup(t)

	_, err := c.Consult(testCtx(t), consult.NewRequest("A", "thirty", "F", "low", "", "", ""))
	var se *backend.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 500, se.Status)
	assert.Contains(t, se.Message, "invalid age")
}

func TestDownload_NoReport(t *testing.T) {
	_, c := setup(t)

	_, err := c.DownloadReport(testCtx(t), "")
	var se *backend.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 404, se.Status)
	assert.Equal(t, "No report found", se.Message)
}

func TestDownload_IsPerSession(t *testing.T) {
	s, c := setup(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	_, err := c.Consult(testCtx(t), consult.NewRequest("A", "1", "F", "low", "cough", "", ""))
	require.NoError(t, err)

	// A second client has its own cookie jar, so its session has no report
	other, err := backend.NewClient(&backend.ClientConfig{BaseURL: ts.URL})
	require.NoError(t, err)
	_, err = other.DownloadReport(testCtx(t), "")
	assert.Error(t, err)
}

func TestFailNext(t *testing.T) {
	s, c := setup(t)

	s.FailNext("/consult", Fault{Status: 500, Body: `{"error":"backend down"}`})
	_, err := c.Consult(testCtx(t), consult.Request{})
	assert.Equal(t, "backend down", backend.ServerMessage(err))

	// Fault is consumed
	_, err = c.Consult(testCtx(t), consult.Request{})
	assert.NoError(t, err)

	s.FailNext("/ingest", Fault{Status: 500, Body: `{"status":"error","message":"no pdfs"}`})
	assert.Error(t, c.Ingest(testCtx(t)))
	assert.Equal(t, 0, s.IngestCount())
}

func TestFailNext_Hang(t *testing.T) {
	s, c := setup(t)
	s.FailNext("/get_answer", Fault{Hang: true})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Ask(ctx, "What is flu?")
	assert.True(t, backend.IsTimeout(err), "got %v", err)
}

func TestRenderReport(t *testing.T) {
	data, err := RenderReport(
		consult.NewRequest("Zoë", "30", "F", "medium", "headache", "", ""),
		consult.Reply{Disease: "Tension headache", Medicine: "Ibuprofen"},
		time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestStartShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(ln.Addr().String()).WithLogger(log.New(io.Discard, "", 0))
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Shutdown(context.Background()))
	assert.NoError(t, <-done)
}
