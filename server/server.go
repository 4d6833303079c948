// Package server exposes the research assistant over HTTP: a synchronous
// chat endpoint, an SSE streaming endpoint, health, and rendered reports.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smallnest/research-assistant/log"
	"github.com/smallnest/research-assistant/pipeline"
	"github.com/smallnest/research-assistant/session"
	"github.com/smallnest/research-assistant/store"
)

const defaultUserID = "default_user"

// Server handles HTTP traffic for one assistant pipeline.
type Server struct {
	router   *chi.Mux
	pipeline *pipeline.Pipeline
	sessions *session.Manager
	runs     store.RunStore
	logger   log.Logger
	origin   string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithAllowedOrigin sets the CORS origin. Defaults to "*".
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) {
		s.origin = origin
	}
}

// New creates a server around the given pipeline, session manager and
// run store.
func New(p *pipeline.Pipeline, sessions *session.Manager, runs store.RunStore, opts ...Option) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		pipeline: p,
		sessions: sessions,
		runs:     runs,
		logger:   log.GetDefaultLogger(),
		origin:   "*",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(s.corsMiddleware)
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/chat", s.handleChat)
	s.router.Get("/chat/stream", s.handleChatStream)
	s.router.Get("/sessions/{sessionID}/report", s.handleReport)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
