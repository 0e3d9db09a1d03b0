// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mockserver provides a local stand-in for the consultation backend.
//
// Endpoints:
//   - POST /get_answer      - Canned answers, "cached" on repeat questions
//   - POST /ingest          - Pretends to rebuild the document index
//   - POST /consult         - Builds a reply and renders a PDF report
//   - GET  /download-report - Latest report of the session (or ?report=NAME)
//   - GET  /history         - Chat history of the session
//
// Sessions are tracked with a "sid" cookie, the same way the reference
// backend does it. The answer cache and chat history live in SQLite
// (in memory unless a database path is given). Faults can be injected for
// tests.
package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is where the reference backend listens.
	DefaultAddr = "127.0.0.1:5000"

	// MaxRequestBodySize is the maximum size for request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// SessionCookie is the session cookie name.
	SessionCookie = "sid"

	// Version is the mock server version.
	Version = "1.0.0"
)

// DefaultAnswers is the canned question table. Keys are matched
// case-insensitively after trimming.
var DefaultAnswers = map[string]string{
	"what is flu?":                               "Flu is a viral infection.",
	"what are the symptoms of flu?":              "Fever, cough, sore throat, body aches and fatigue.",
	"how can i lower a fever at home?":           "Rest, drink plenty of fluids and use paracetamol as directed.",
	"when should i see a doctor for a headache?": "See a doctor if the headache is sudden and severe, follows an injury, or comes with fever, stiff neck or confusion.",
	"what is a healthy blood pressure?":          "For most adults, below 120/80 mmHg.",
}

// ============================================================================
// FAULT INJECTION
// ============================================================================

// Fault overrides the next response of one endpoint.
type Fault struct {
	// Status is the HTTP status to return
	Status int
	// Body is written verbatim; empty writes nothing
	Body string
	// Hang blocks until the client goes away
	Hang bool
}

// ============================================================================
// SERVER
// ============================================================================

type session struct {
	reports []string // report names, oldest first
}

// Server is the mock consultation backend.
type Server struct {
	addr   string
	router chi.Router
	server *http.Server
	logger *log.Logger

	mu       sync.Mutex
	store    *Store
	storeErr error
	answers  map[string]string
	sessions map[string]*session
	reports  map[string][]byte
	faults   map[string][]Fault
	latency  time.Duration
	seq      int
	now      func() time.Time
	ingested int
}

// NewServer creates a new Server. An empty addr uses DefaultAddr.
func NewServer(addr string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}

	s := &Server{
		addr:     addr,
		logger:   log.Default(),
		answers:  make(map[string]string, len(DefaultAnswers)),
		sessions: make(map[string]*session),
		reports:  make(map[string][]byte),
		faults:   make(map[string][]Fault),
		now:      time.Now,
	}
	for q, a := range DefaultAnswers {
		s.answers[q] = a
	}
	s.store, s.storeErr = OpenStore(MemoryDB)

	s.setupRoutes()
	return s
}

// WithStore replaces the in-memory store, closing the previous one.
func (s *Server) WithStore(st *Store) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		s.store.Close()
	}
	s.store, s.storeErr = st, nil
	return s
}

// Close releases the store.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// WithLogger sets the request logger.
func (s *Server) WithLogger(logger *log.Logger) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
	return s
}

// WithAnswer adds or replaces a canned answer.
func (s *Server) WithAnswer(question, answer string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[normalizeQuestion(question)] = answer
	return s
}

// WithLatency delays every response.
func (s *Server) WithLatency(d time.Duration) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
	return s
}

// FailNext queues a fault for the next request to path.
func (s *Server) FailNext(path string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = append(s.faults[path], f)
}

// IngestCount returns how many successful ingests were served.
func (s *Server) IngestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingested
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)
	r.Use(s.faultMiddleware)

	r.Post("/get_answer", s.handleAnswer)
	r.Post("/ingest", s.handleIngest)
	r.Post("/consult", s.handleConsult)
	r.Get("/download-report", s.handleDownload)
	r.Get("/history", s.handleHistory)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
	})

	s.router = r
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.logf("SERVER_START | addr=%s version=%s", ln.Addr(), Version)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logf("SERVER_SHUTDOWN | starting graceful shutdown")
	return srv.Shutdown(ctx)
}

// ============================================================================
// MIDDLEWARE
// ============================================================================

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs one line per request.
//
// Log format: "POST /consult | 200 | 0.012s | id=..."
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.logf("%s %s | %d | %.3fs | id=%s",
			r.Method, r.URL.Path, wrapped.statusCode, time.Since(start).Seconds(),
			firstNonEmpty(r.Header.Get("X-Request-ID"), middleware.GetReqID(r.Context())))
	})
}

// faultMiddleware applies latency and queued faults.
func (s *Server) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		latency := s.latency
		var fault *Fault
		if q := s.faults[r.URL.Path]; len(q) > 0 {
			f := q[0]
			fault = &f
			s.faults[r.URL.Path] = q[1:]
		}
		s.mu.Unlock()

		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-r.Context().Done():
				return
			}
		}

		if fault == nil {
			next.ServeHTTP(w, r)
			return
		}
		if fault.Hang {
			<-r.Context().Done()
			return
		}
		status := fault.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if strings.HasPrefix(strings.TrimSpace(fault.Body), "{") {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		if fault.Body != "" {
			w.Write([]byte(fault.Body))
		}
	})
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) logf(format string, args ...interface{}) {
	s.mu.Lock()
	logger := s.logger
	s.mu.Unlock()
	if logger != nil {
		logger.Printf(format, args...)
	}
}

// storage returns the store, or why it is unavailable.
func (s *Server) storage() (*Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		if s.storeErr != nil {
			return nil, s.storeErr
		}
		return nil, errors.New("store closed")
	}
	return s.store, nil
}

// sessionFor returns the caller's session, creating one and setting the
// cookie when the request carries none.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (string, *session) {
	sid := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		sid = c.Value
	}
	if sid == "" {
		sid = uuid.NewString()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: sid, Path: "/", HttpOnly: true})

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sid]
	if !ok {
		sess = &session{}
		s.sessions[sid] = sess
	}
	return sid, sess
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the backend's {"error": "..."} shape.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func normalizeQuestion(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
