// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/jeranaias/medconsult-tui/internal/consult"
)

const (
	// MaxResponseSize is the maximum allowed JSON response body size.
	// Reports are streamed and not subject to this limit.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// DefaultBaseURL is where the reference backend listens.
	DefaultBaseURL = "http://127.0.0.1:5000"
)

// Endpoint paths.
const (
	PathAnswer   = "/get_answer"
	PathIngest   = "/ingest"
	PathConsult  = "/consult"
	PathDownload = "/download-report"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://127.0.0.1:5000)
	BaseURL string

	// UserAgent is sent on every request (default: medconsult/dev)
	UserAgent string

	// Transport overrides the HTTP transport (tests)
	Transport http.RoundTripper
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   DefaultBaseURL,
		UserAgent: "medconsult/dev",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the consultation backend.
//
// The Client is safe for concurrent use. Session cookies set by the backend
// are kept in memory for the life of the Client, so "latest report for this
// session" resolves to reports created through the same Client.
//
// Example:
//
//	client, err := backend.NewClient(&backend.ClientConfig{BaseURL: cfg.Server.URL})
//	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
//	defer cancel()
//	ans, err := client.Ask(ctx, "What is flu?")
type Client struct {
	config     *ClientConfig
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates a new backend client. A nil config uses DefaultConfig.
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "medconsult/dev"
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme must be http or https", cfg.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		config:  &cfg,
		baseURL: base,
		// Deadlines come from the caller's context.
		httpClient: &http.Client{
			Jar:       jar,
			Transport: transport,
		},
	}, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one request and returns the response with the body still open.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to create request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	log.Printf("REQUEST_START | id=%s method=%s path=%s", requestID, method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cerr := transportError(ctx, err)
		log.Printf("REQUEST_ERROR | id=%s path=%s error=%v", requestID, path, cerr)
		return nil, cerr
	}

	log.Printf("REQUEST_DONE | id=%s path=%s status=%d duration=%v",
		requestID, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	return resp, nil
}

// readBody reads a JSON body under MaxResponseSize.
func readBody(ctx context.Context, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, &ClientError{
			Type:    ErrTypeTooLarge,
			Message: fmt.Sprintf("response exceeded maximum size of %d bytes", MaxResponseSize),
		}
	}
	return data, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// errorBody is the {"error": "..."} shape of backend failures. Ingest
// failures use {"status": "error", "message": "..."} instead.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusError keeps only the "error" text; anything else in the body is
// server detail that is not shown.
func statusError(status int, body []byte) *StatusError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	return &StatusError{Status: status, Message: strings.TrimSpace(eb.Error)}
}

// ingestStatusError also accepts the ingest "message" field.
func ingestStatusError(status int, body []byte) *StatusError {
	se := statusError(status, body)
	if se.Message == "" {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		se.Message = strings.TrimSpace(eb.Message)
	}
	return se
}

func invalidResponse(msg string, cause error) *ClientError {
	return &ClientError{Type: ErrTypeInvalidResponse, Message: msg, Cause: cause}
}

// drainAndClose discards the rest of a body so the connection can be reused.
func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, MaxResponseSize))
	r.Close()
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// AskRequest is the body of POST /get_answer.
type AskRequest struct {
	Question string `json:"question"`
}

// Answer is a decoded /get_answer response.
type Answer struct {
	Text string
	// Cached mirrors the backend's cached flag
	Cached bool
	// Status is the HTTP status; a non-2xx status can still carry an answer
	Status int
}

type answerBody struct {
	Answer *string `json:"answer"`
	Cached bool    `json:"cached"`
}

// Ask sends a question to /get_answer.
//
// A response whose JSON body carries an "answer" string is returned even on
// a non-2xx status, since the backend reports its own failures that way. A
// body without an answer is an error.
func (c *Client) Ask(ctx context.Context, question string) (*Answer, error) {
	resp, err := c.do(ctx, http.MethodPost, PathAnswer, nil, AskRequest{Question: question})
	if err != nil {
		return nil, err
	}
	status := resp.StatusCode

	data, err := readBody(ctx, resp)
	if err != nil {
		return nil, err
	}

	var body answerBody
	if err := json.Unmarshal(data, &body); err != nil {
		if !isSuccess(status) {
			return nil, statusError(status, data)
		}
		return nil, invalidResponse("failed to decode answer", err)
	}
	if body.Answer == nil {
		if !isSuccess(status) {
			return nil, statusError(status, data)
		}
		return nil, invalidResponse("response has no answer", nil)
	}

	return &Answer{Text: *body.Answer, Cached: body.Cached, Status: status}, nil
}

// Ingest asks the backend to rebuild its document index. The JSON body is
// decoded to confirm a well-formed reply, then discarded.
func (c *Client) Ingest(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, PathIngest, nil, nil)
	if err != nil {
		return err
	}
	status := resp.StatusCode

	data, err := readBody(ctx, resp)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return ingestStatusError(status, data)
	}

	var discard interface{}
	if err := json.Unmarshal(data, &discard); err != nil {
		return invalidResponse("failed to decode ingest response", err)
	}
	return nil
}

// consultBody decodes reply as a pointer so a missing or null reply can be
// told apart from an empty one.
type consultBody struct {
	Reply *consult.Reply `json:"reply"`
	PDF   string         `json:"pdf"`
	Error string         `json:"error"`
}

// Consult submits a consultation. Non-2xx responses return *StatusError with
// the server's "error" text when present. A 2xx body without a reply is an
// invalid response, carrying the body's "error" text when it has one.
func (c *Client) Consult(ctx context.Context, req consult.Request) (*consult.Response, error) {
	resp, err := c.do(ctx, http.MethodPost, PathConsult, nil, req)
	if err != nil {
		return nil, err
	}
	status := resp.StatusCode

	data, err := readBody(ctx, resp)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, statusError(status, data)
	}

	var body consultBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, invalidResponse("failed to decode consult response", err)
	}
	if body.Reply == nil {
		msg := "response has no reply"
		if e := strings.TrimSpace(body.Error); e != "" {
			msg = e
		}
		return nil, invalidResponse(msg, nil)
	}
	return &consult.Response{Reply: *body.Reply, PDF: body.PDF}, nil
}

// Report is an open report download. The caller must Close it.
type Report struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Close releases the underlying connection.
func (r *Report) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// DownloadReport requests the latest report for this session. When ref is
// non-empty it is sent as ?report=ref so a correlation-aware backend can
// serve that exact report.
func (c *Client) DownloadReport(ctx context.Context, ref string) (*Report, error) {
	var query url.Values
	if ref != "" {
		query = url.Values{"report": []string{ref}}
	}

	resp, err := c.do(ctx, http.MethodGet, PathDownload, query, nil)
	if err != nil {
		return nil, err
	}

	if !isSuccess(resp.StatusCode) {
		data, rerr := readBody(ctx, resp)
		if rerr != nil {
			return nil, &StatusError{Status: resp.StatusCode}
		}
		return nil, statusError(resp.StatusCode, data)
	}

	return &Report{
		Body:          &ctxBody{ctx: ctx, rc: resp.Body},
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

// ctxBody classifies read errors the same way as transport errors.
type ctxBody struct {
	ctx context.Context
	rc  io.ReadCloser
}

func (b *ctxBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if err != nil && err != io.EOF {
		return n, transportError(b.ctx, err)
	}
	return n, err
}

func (b *ctxBody) Close() error {
	drainAndClose(b.rc)
	return nil
}
