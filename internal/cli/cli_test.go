// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/medconsult-tui/internal/backend"
	"github.com/jeranaias/medconsult-tui/internal/config"
	"github.com/jeranaias/medconsult-tui/internal/mockserver"
	"github.com/jeranaias/medconsult-tui/internal/ui/chat"
)

// =============================================================================
// HELPERS
// =============================================================================

// newTestEnv returns an Env talking to a fresh mock backend, with its
// stdout and stderr buffers.
func newTestEnv(t *testing.T) (*Env, *mockserver.Server, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	mock := mockserver.NewServer("")
	ts := httptest.NewServer(mock.Handler())
	t.Cleanup(ts.Close)

	env := newEnvFor(t, ts.URL)
	return env, mock, env.Stdout.(*bytes.Buffer), env.Stderr.(*bytes.Buffer)
}

// newEnvFor returns an Env with its own client (and session) for url.
func newEnvFor(t *testing.T, url string) *Env {
	t.Helper()

	cfg := config.Default()
	cfg.Server.URL = url
	cfg.Server.TimeoutSecs = 5
	cfg.Server.ConsultTimeoutSecs = 5
	cfg.Report.Dir = t.TempDir()

	client, err := NewClient(cfg)
	require.NoError(t, err)

	return &Env{Config: cfg, Client: client, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
}

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{nil, CmdTUI},
		{[]string{"tui"}, CmdTUI},
		{[]string{"ask", "hi"}, CmdAsk},
		{[]string{"chat"}, CmdChat},
		{[]string{"ingest"}, CmdIngest},
		{[]string{"index"}, CmdIngest},
		{[]string{"consult"}, CmdConsult},
		{[]string{"report"}, CmdReport},
		{[]string{"download"}, CmdReport},
		{[]string{"config"}, CmdConfig},
		{[]string{"mock"}, CmdMockServer},
		{[]string{"mock-server"}, CmdMockServer},
		{[]string{"version"}, CmdVersion},
		{[]string{"--version"}, CmdVersion},
		{[]string{"-h"}, CmdHelp},
		{[]string{"HELP"}, CmdHelp},
		{[]string{"frobnicate"}, CmdUnknown},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.argv, " "), func(t *testing.T) {
			got, _ := Parse(tt.argv)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_GlobalFlagsAnywhere(t *testing.T) {
	cmd, args := Parse([]string{"-v", "ask", "--server=http://h:1", "what", "is", "--json", "flu?", "--timeout", "9"})

	assert.Equal(t, CmdAsk, cmd)
	assert.True(t, args.Verbose)
	assert.True(t, args.JSON)
	assert.Equal(t, "http://h:1", args.Server)
	assert.Equal(t, 9, args.Timeout)
	assert.Equal(t, "what is flu?", args.Query)
}

func TestParse_InvalidTimeoutIgnored(t *testing.T) {
	_, args := Parse([]string{"--timeout", "soon", "chat"})
	assert.Equal(t, 0, args.Timeout)
}

func TestParse_ConfigArgs(t *testing.T) {
	cmd, args := Parse([]string{"config", "set", "ui.chips", "What is flu?,", "Help"})

	assert.Equal(t, CmdConfig, cmd)
	assert.Equal(t, "set", args.Subcommand)
	assert.Equal(t, "ui.chips", args.ConfigKey)
	assert.Equal(t, "What is flu?, Help", args.ConfigVal)
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "consult", CmdConsult.String())
	assert.Equal(t, "mock-server", CmdMockServer.String())
}

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser_BoolNamesDoNotConsume(t *testing.T) {
	p := NewArgParser([]string{"--download", "extra", "--name", "Ann", "--age=30"}, "download")

	assert.True(t, p.BoolFlag("download"))
	assert.Equal(t, "Ann", p.Flag("name"))
	assert.Equal(t, "30", p.Flag("age"))
	assert.Equal(t, []string{"extra"}, p.PositionalFrom(0))
}

func TestArgParser_DoubleDashEndsFlags(t *testing.T) {
	p := NewArgParser([]string{"--name", "Ann", "--", "--not-a-flag"})

	assert.Equal(t, "Ann", p.Flag("name"))
	assert.Equal(t, "--not-a-flag", p.Positional(0))
	assert.False(t, p.HasFlag("not-a-flag"))
}

func TestArgParser_Unknown(t *testing.T) {
	p := NewArgParser([]string{"--name", "Ann", "--colour=red", "--x", "--colour", "blue"})
	assert.Equal(t, []string{"colour", "x"}, p.Unknown("name"))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "ON", "1", "true"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"exit error", &ExitError{Code: 42, Err: errors.New("x")}, 42},
		{"validation", ErrMissingArgument("question", "ask Q"), ExitUsageError},
		{"config", config.ValidateErrors{{Field: "server.url", Message: "bad"}}, ExitConfigError},
		{"not found", fmt.Errorf("wrapped: %w", &backend.StatusError{Status: 404}), ExitNotFoundError},
		{"server", &backend.StatusError{Status: 500}, ExitServerError},
		{"timeout", &backend.ClientError{Type: backend.ErrTypeTimeout}, ExitTimeoutError},
		{"unreachable", &backend.ClientError{Type: backend.ErrTypeUnreachable}, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError_JSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, "report", &backend.StatusError{Status: 404, Message: "No report found"}, true)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "server_error", resp["error_type"])
	assert.Equal(t, "report", resp["command"])
}

func TestDisplayError_Text(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, "ask", &backend.StatusError{Status: 500, Message: "oops"}, false)
	assert.Contains(t, buf.String(), "Error:")
	assert.Contains(t, buf.String(), "oops")

	// An interrupted request is not reported as a failure
	buf.Reset()
	err := fmt.Errorf("ask: %w", &backend.ClientError{Type: backend.ErrTypeCanceled, Message: "request canceled"})
	DisplayError(&buf, "ask", err, false)
	assert.Contains(t, buf.String(), "Cancelled.")
	assert.NotContains(t, buf.String(), "Error:")
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(CmdUnknown, Args{Name: "frobnicate"}, &stdout, &stderr)

	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, stderr.String(), "Usage")
	assert.Empty(t, stdout.String())
}

func TestHandleVersion_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HandleVersion(&buf, Args{JSON: true}))

	var resp struct {
		Data VersionData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, Version, resp.Data.Version)
	assert.NotEmpty(t, resp.Data.GoVersion)
}

// =============================================================================
// ASK / INGEST TESTS
// =============================================================================

func TestHandleAsk(t *testing.T) {
	env, _, out, stderr := newTestEnv(t)

	require.NoError(t, HandleAsk(env, Args{Query: "What is flu?"}))
	assert.Equal(t, "Flu is a viral infection.\n", out.String())
	assert.Empty(t, stderr.String())

	out.Reset()
	require.NoError(t, HandleAsk(env, Args{Query: "what is flu?"}))
	assert.Contains(t, stderr.String(), "(cached)")
}

func TestHandleAsk_JSON(t *testing.T) {
	env, _, out, _ := newTestEnv(t)
	env.JSON = true

	require.NoError(t, HandleAsk(env, Args{Query: "What is flu?"}))

	var resp struct {
		Success bool    `json:"success"`
		Data    AskData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Flu is a viral infection.", resp.Data.Answer)
	assert.Equal(t, 200, resp.Data.Status)
	assert.False(t, resp.Data.Cached)
}

func TestHandleAsk_EmptyQuestion(t *testing.T) {
	env, _, _, _ := newTestEnv(t)

	err := HandleAsk(env, Args{Query: "   "})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleAsk_ServerFailure(t *testing.T) {
	env, mock, _, _ := newTestEnv(t)
	mock.FailNext(backend.PathAnswer, mockserver.Fault{Status: 500, Body: "oops"})

	err := HandleAsk(env, Args{Query: "What is flu?"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), chat.MsgContactError)
	assert.Equal(t, ExitServerError, GetExitCode(err))
}

func TestHandleIngest(t *testing.T) {
	env, mock, out, _ := newTestEnv(t)

	require.NoError(t, HandleIngest(env))
	assert.Contains(t, out.String(), chat.MsgIndexBuilt)
	assert.Equal(t, 1, mock.IngestCount())

	mock.FailNext(backend.PathIngest, mockserver.Fault{Status: 500, Body: `{"status":"error","message":"disk"}`})
	err := HandleIngest(env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), chat.MsgIndexFailed)
	assert.Equal(t, ExitGeneralError, GetExitCode(err))
}

// =============================================================================
// CONSULT / REPORT TESTS
// =============================================================================

var consultArgv = []string{
	"--name", "Ann", "--age", "30", "--gender", "F", "--severity", "HIGH",
	"--symptoms", "fever and chills", "--duration", "2 days",
}

func TestPickSeverity(t *testing.T) {
	sev := []string{"low", "medium", "high"}

	got, err := pickSeverity(sev, " High ")
	require.NoError(t, err)
	assert.Equal(t, "high", got)

	_, err = pickSeverity(sev, "extreme")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleConsult_Text(t *testing.T) {
	env, _, out, _ := newTestEnv(t)

	require.NoError(t, HandleConsult(env, Args{Raw: consultArgv}))

	text := out.String()
	assert.Contains(t, text, "Probable Condition")
	assert.Contains(t, text, "Flu")
	assert.Contains(t, text, "  - Paracetamol")
	assert.Contains(t, text, "Report available: medconsult report")
}

func TestHandleConsult_DownloadJSON(t *testing.T) {
	env, _, out, _ := newTestEnv(t)
	env.JSON = true
	dir := t.TempDir()

	argv := append(append([]string(nil), consultArgv...), "--download", "--output", dir)
	require.NoError(t, HandleConsult(env, Args{Raw: argv}))

	var resp struct {
		Data ConsultData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "high", resp.Data.Request.Severity)
	assert.Equal(t, "Flu", resp.Data.Result.Condition)
	assert.Equal(t, []string{"Paracetamol", "Rest"}, resp.Data.Result.Medicines)
	assert.True(t, resp.Data.Result.HasReport)

	require.NotNil(t, resp.Data.Report)
	assert.Equal(t, filepath.Join(dir, "health_report.pdf"), resp.Data.Report.Path)
	assert.Equal(t, 1, resp.Data.Report.Pages)

	data, err := os.ReadFile(resp.Data.Report.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestHandleConsult_UnknownFlag(t *testing.T) {
	env, _, _, _ := newTestEnv(t)

	err := HandleConsult(env, Args{Raw: []string{"--name", "Ann", "--sev", "high"}})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--sev")
}

func TestHandleConsult_ServerError(t *testing.T) {
	env, _, _, _ := newTestEnv(t)

	// The mock stores age as an integer
	err := HandleConsult(env, Args{Raw: []string{"--age", "thirty", "--symptoms", "cough"}})
	require.Error(t, err)
	assert.Equal(t, ExitServerError, GetExitCode(err))
	assert.Equal(t, `invalid age "thirty"`, backend.ServerMessage(err))
}

func TestHandleReport_NoneForFreshSession(t *testing.T) {
	env, _, _, _ := newTestEnv(t)

	err := HandleReport(env, Args{})
	require.Error(t, err)
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestHandleReport_ByName(t *testing.T) {
	env, _, out, _ := newTestEnv(t)
	env.JSON = true
	require.NoError(t, HandleConsult(env, Args{Raw: consultArgv}))

	var resp struct {
		Data ConsultData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	name := path.Base(resp.Data.Response.PDF)

	// A second client has its own session and needs the name
	other := newEnvFor(t, env.Config.Server.URL)
	require.NoError(t, HandleReport(other, Args{Raw: []string{"--report", name}}))
	assert.Contains(t, other.Stdout.(*bytes.Buffer).String(), "Report saved to health_report.pdf (1 page)")
}

// =============================================================================
// CHAT REPL TESTS
// =============================================================================

// fakeReader feeds scripted lines and records prompts.
type fakeReader struct {
	lines   []string
	prefill []string
	history []string
}

func (f *fakeReader) PromptWithSuggestion(prompt, text string, pos int) (string, error) {
	f.prefill = append(f.prefill, text)
	if len(f.lines) == 0 {
		return "", io.EOF
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	if line == "^C" {
		return "", liner.ErrPromptAborted
	}
	return line, nil
}

func (f *fakeReader) AppendHistory(item string) {
	f.history = append(f.history, item)
}

func TestChatREPL_AskAndHistory(t *testing.T) {
	env, _, out, _ := newTestEnv(t)
	in := &fakeReader{lines: []string{"What is flu?", "^C", "", "what is flu?", "/history"}}

	require.NoError(t, NewChatREPL(env, in).Run())

	text := out.String()
	assert.Contains(t, text, "Flu is a viral infection.")
	assert.Contains(t, text, "(cached)")
	assert.Contains(t, text, "You:")
	assert.Equal(t, []string{"What is flu?", "what is flu?"}, in.history)
}

func TestChatREPL_QuitStops(t *testing.T) {
	env, _, _, _ := newTestEnv(t)
	in := &fakeReader{lines: []string{"/quit", "What is flu?"}}

	repl := NewChatREPL(env, in)
	require.NoError(t, repl.Run())
	assert.Equal(t, 0, repl.Log().Len())
	assert.Len(t, in.lines, 1)
}

func TestChatREPL_ChipPrefillsNextPrompt(t *testing.T) {
	env, _, out, _ := newTestEnv(t)
	in := &fakeReader{lines: []string{"/chip 2", "", "/chip 99"}}

	require.NoError(t, NewChatREPL(env, in).Run())

	require.GreaterOrEqual(t, len(in.prefill), 2)
	assert.Equal(t, config.DefaultChips[1], in.prefill[1])
	assert.Equal(t, "", in.prefill[2])
	assert.Contains(t, out.String(), "No chip 99")
}

func TestChatREPL_ErrorBecomesBotMessage(t *testing.T) {
	env, mock, out, _ := newTestEnv(t)
	mock.FailNext(backend.PathAnswer, mockserver.Fault{Status: 502})

	repl := NewChatREPL(env, &fakeReader{})
	assert.False(t, repl.Handle("What is flu?"))

	last, ok := repl.Log().LastBot()
	require.True(t, ok)
	assert.Equal(t, chat.MsgContactError, last.Text)
	assert.Contains(t, out.String(), chat.MsgContactError)
}

func TestChatREPL_Ingest(t *testing.T) {
	env, mock, out, _ := newTestEnv(t)

	repl := NewChatREPL(env, &fakeReader{})
	assert.False(t, repl.Handle("/ingest"))
	assert.Equal(t, 1, mock.IngestCount())
	assert.Contains(t, out.String(), chat.MsgIndexBuilt)

	assert.False(t, repl.Handle("/nope"))
	assert.Contains(t, out.String(), "Unknown command:")
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestHandleConfig_SetThenGet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	env, _, out, _ := newTestEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "conf", "medconsult.yaml")

	require.NoError(t, HandleConfig(env, Args{
		Subcommand: "set", ConfigKey: "report.file_name", ConfigVal: "visit.pdf", ConfigPath: cfgPath,
	}))
	require.NoError(t, HandleConfig(env, Args{
		Subcommand: "set", ConfigKey: "ui.chips", ConfigVal: "A?, B?", ConfigPath: cfgPath,
	}))

	saved, err := config.LoadFromPath(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "visit.pdf", saved.Report.FileName)
	assert.Equal(t, []string{"A?", "B?"}, saved.UI.Chips)
	// Values not set keep their defaults
	assert.Equal(t, config.DefaultServerURL, saved.Server.URL)

	out.Reset()
	require.NoError(t, HandleConfig(env, Args{Subcommand: "get", ConfigKey: "ui.chips"}))
	assert.Equal(t, "A?,B?\n", out.String())
}

func TestHandleConfig_SetRejectsInvalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	env, _, _, _ := newTestEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	err := HandleConfig(env, Args{Subcommand: "set", ConfigKey: "server.url", ConfigVal: "ftp://x", ConfigPath: cfgPath})
	assert.Equal(t, ExitConfigError, GetExitCode(err))
	assert.NoFileExists(t, cfgPath)

	err = HandleConfig(env, Args{Subcommand: "set", ConfigKey: "server.nope", ConfigVal: "1", ConfigPath: cfgPath})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleConfig_ShowAndPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	env, _, out, _ := newTestEnv(t)

	require.NoError(t, HandleConfig(env, Args{}))
	assert.Contains(t, out.String(), "[server]")
	assert.Contains(t, out.String(), env.Config.Server.URL)

	out.Reset()
	require.NoError(t, HandleConfig(env, Args{Subcommand: "path"}))
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".medconsult", "config.toml")+"\n", out.String())

	err := HandleConfig(env, Args{Subcommand: "reset"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleMockServer_BadFlags(t *testing.T) {
	notADir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notADir, nil, 0644))

	tests := []struct {
		name string
		argv []string
		code int
	}{
		{"unknown flag", []string{"--port", "5000"}, ExitUsageError},
		{"bad latency", []string{"--latency", "soon"}, ExitUsageError},
		{"db under a file", []string{"--addr", "127.0.0.1:0", "--db", filepath.Join(notADir, "mock.db")}, ExitConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleMockServer(Args{Raw: tt.argv})
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
		})
	}
}
