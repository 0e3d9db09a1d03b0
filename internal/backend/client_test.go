// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/medconsult-tui/internal/consult"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(&ClientConfig{BaseURL: srv.URL + "/", UserAgent: "medconsult/test"})
	require.NoError(t, err)
	return c, srv
}

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNewClient(t *testing.T) {
	c, err := NewClient(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	_, err = NewClient(&ClientConfig{BaseURL: "ftp://x"})
	assert.Error(t, err)
	_, err = NewClient(&ClientConfig{BaseURL: "://bad"})
	assert.Error(t, err)
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_Success(t *testing.T) {
	var gotBody AskRequest
	var gotHeaders http.Header
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathAnswer, r.URL.Path)
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"Flu is a viral infection.","cached":true}`))
	})

	ans, err := c.Ask(ctx(t), "What is flu?")
	require.NoError(t, err)
	assert.Equal(t, "Flu is a viral infection.", ans.Text)
	assert.True(t, ans.Cached)
	assert.Equal(t, "What is flu?", gotBody.Question)
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "medconsult/test", gotHeaders.Get("User-Agent"))
	assert.Len(t, gotHeaders.Get("X-Request-ID"), 36)
}

func TestAsk_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantAnswer string
		wantStatus bool
		wantType   ErrorType
	}{
		{name: "non-2xx with answer shows answer", status: 500, body: `{"answer":"Error: model offline"}`, wantAnswer: "Error: model offline"},
		{name: "non-2xx without answer", status: 502, body: `{"error":"bad gateway"}`, wantStatus: true},
		{name: "non-2xx html", status: 500, body: `<html>oops</html>`, wantStatus: true},
		{name: "missing answer", status: 200, body: `{"result":"x"}`, wantType: ErrTypeInvalidResponse},
		{name: "null answer", status: 200, body: `{"answer":null}`, wantType: ErrTypeInvalidResponse},
		{name: "not json", status: 200, body: `hello`, wantType: ErrTypeInvalidResponse},
		{name: "answer not a string", status: 200, body: `{"answer":42}`, wantType: ErrTypeInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			ans, err := c.Ask(ctx(t), "q")
			switch {
			case tt.wantAnswer != "":
				require.NoError(t, err)
				assert.Equal(t, tt.wantAnswer, ans.Text)
				assert.Equal(t, tt.status, ans.Status)
			case tt.wantStatus:
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, tt.status, se.Status)
			default:
				var ce *ClientError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, tt.wantType, ce.Type)
			}
		})
	}
}

func TestAsk_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	c, err := NewClient(&ClientConfig{BaseURL: "http://" + addr})
	require.NoError(t, err)

	_, err = c.Ask(ctx(t), "q")
	require.Error(t, err)
	assert.True(t, IsUnreachable(err), "got %v", err)
}

func TestAsk_TimeoutAndCancel(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	tctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Ask(tctx, "q")
	assert.True(t, IsTimeout(err), "got %v", err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	cctx, cancel2 := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel2()
	}()
	_, err = c.Ask(cctx, "q")
	assert.True(t, IsCanceled(err), "got %v", err)
}

func TestAsk_TooLarge(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":"`))
		w.Write([]byte(strings.Repeat("a", MaxResponseSize)))
		w.Write([]byte(`"}`))
	})

	_, err := c.Ask(ctx(t), "q")
	assert.True(t, errors.Is(err, ErrTooLarge), "got %v", err)
}

func TestClient_KeepsSessionCookie(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if ck, err := r.Cookie("sid"); err == nil {
			seen = append(seen, ck.Value)
		} else {
			seen = append(seen, "")
		}
		mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
		w.Write([]byte(`{"answer":"ok"}`))
	})

	_, err := c.Ask(ctx(t), "one")
	require.NoError(t, err)
	_, err = c.Ask(ctx(t), "two")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "abc"}, seen)
}

// =============================================================================
// INGEST
// =============================================================================

func TestIngest(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
		wantMsg string
	}{
		{name: "ok", status: 200, body: `{"status":"ok"}`},
		{name: "error body", status: 500, body: `{"status":"error","message":"no pdfs"}`, wantErr: true, wantMsg: "no pdfs"},
		{name: "non-json success", status: 200, body: `done`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLen int64 = -1
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, PathIngest, r.URL.Path)
				b, _ := io.ReadAll(r.Body)
				gotLen = int64(len(b))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			err := c.Ingest(ctx(t))
			assert.Equal(t, int64(0), gotLen, "ingest sends no body")
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, ServerMessage(err))
			assert.Equal(t, tt.status != 200, IsStatusError(err))
		})
	}
}

// =============================================================================
// CONSULT
// =============================================================================

func TestConsult_Success(t *testing.T) {
	var got consult.Request
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathConsult, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"reply":{"disease":"Flu","medicine":"Paracetamol, Rest","tests":"","home_remedy":"","warning":""},"pdf":"reports/consult_1.pdf"}`))
	})

	req := consult.NewRequest("Ann", "30", "F", "high", "fever", "2 days", "")
	resp, err := c.Consult(ctx(t), req)
	require.NoError(t, err)
	assert.Equal(t, req, got)
	assert.Equal(t, "Flu", resp.Reply.Disease)
	assert.Equal(t, "consult_1.pdf", resp.ReportRef())
}

func TestConsult_ServerError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"json error", `{"error":"backend down"}`, "backend down"},
		{"message is not shown", `{"status":"error","message":"internal detail"}`, ""},
		{"non-json", `Internal Server Error`, ""},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(tt.body))
			})

			_, err := c.Consult(ctx(t), consult.Request{})
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, 500, se.Status)
			assert.Equal(t, tt.wantMsg, se.Message)
		})
	}
}

func TestConsult_MissingReply(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"error only", `{"error":"model failed"}`, "model failed"},
		{"pdf only", `{"pdf":"reports/consult_1.pdf"}`, "response has no reply"},
		{"null reply", `{"reply":null,"pdf":"reports/consult_1.pdf"}`, "response has no reply"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			resp, err := c.Consult(ctx(t), consult.Request{})
			assert.Nil(t, resp)
			require.ErrorIs(t, err, ErrInvalidResponse)
			assert.False(t, IsStatusError(err))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestConsult_EmptyReplyIsValid(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reply":{},"pdf":""}`))
	})

	resp, err := c.Consult(ctx(t), consult.Request{})
	require.NoError(t, err)
	assert.Equal(t, consult.Reply{}, resp.Reply)
	assert.False(t, resp.HasReport())
}

// =============================================================================
// DOWNLOAD
// =============================================================================

func TestDownloadReport(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, PathDownload, r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	})

	rep, err := c.DownloadReport(ctx(t), "consult_1.pdf")
	require.NoError(t, err)
	defer rep.Close()
	data, err := io.ReadAll(rep.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
	assert.Equal(t, "application/pdf", rep.ContentType)
	assert.Equal(t, "report=consult_1.pdf", gotQuery)

	rep2, err := c.DownloadReport(ctx(t), "")
	require.NoError(t, err)
	rep2.Close()
	assert.Equal(t, "", gotQuery)
}

func TestDownloadReport_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"No report found"}`))
	})

	rep, err := c.DownloadReport(ctx(t), "")
	assert.Nil(t, rep)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 404, se.Status)
	assert.Equal(t, "No report found", se.Message)
	assert.Equal(t, "server returned 404: No report found", se.Error())
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "timeout", ErrTypeTimeout.String())
	assert.Equal(t, "unknown", ErrorType(99).String())
	assert.Equal(t, "server returned 500 Internal Server Error", (&StatusError{Status: 500}).Error())
}
