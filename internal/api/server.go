// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes transcript editing sessions and the persistence
// handlers over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/transcriptd/internal/api/middleware"
	"github.com/ManuGH/transcriptd/internal/assets"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/editor"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/store"
	"github.com/ManuGH/transcriptd/internal/handlers"
	"github.com/ManuGH/transcriptd/internal/health"
)

// V1BaseURL prefixes every versioned endpoint.
const V1BaseURL = "/api/v1"

// Config configures the HTTP surface.
type Config struct {
	// RateLimit is requests per minute per client IP. Zero disables.
	RateLimit int
	// MaxUploadBytes caps request bodies on upload endpoints.
	MaxUploadBytes int64
	// ValidateRequests checks requests against the embedded OpenAPI document.
	ValidateRequests bool
	// TracingService names server spans. Empty disables tracing.
	TracingService string
}

// TranscriptHandlers is the persistence handler surface served locally.
type TranscriptHandlers interface {
	handlers.Handlers
	Download(ctx context.Context, locator string) (assets.Asset, []byte, error)
	DownloadVTT(ctx context.Context, locator string) (assets.Asset, []byte, error)
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Sessions *editor.Manager
	// Handlers is nil when persistence handlers run in another process.
	Handlers TranscriptHandlers
	// Items backs the playback window endpoints; nil answers them with 503.
	Items  store.FieldStore
	Health *health.Manager
	// Metrics defaults to the prometheus default registry handler.
	Metrics http.Handler
}

// Server is the HTTP API.
type Server struct {
	cfg     Config
	deps    Deps
	handler http.Handler
}

const defaultMaxUploadBytes = 1 << 20

// New validates deps and builds the routed handler.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Sessions == nil {
		return nil, errors.New("api: session manager is required")
	}
	if deps.Health == nil {
		deps.Health = health.NewManager("")
	}
	if deps.Metrics == nil {
		deps.Metrics = promhttp.Handler()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	s := &Server{cfg: cfg, deps: deps}
	h, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.handler = h
	return s, nil
}

// Handler returns the root handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// route binds one OpenAPI operation to its handler. operation is the
// camel-cased operationId.
type route struct {
	operation string
	method    string
	pattern   string
	handler   http.HandlerFunc
}

func (s *Server) operations() []route {
	return []route{
		{"GetHealth", http.MethodGet, "/healthz", s.deps.Health.ServeHealth},
		{"GetReady", http.MethodGet, "/readyz", s.deps.Health.ServeReady},
		{"GetMetrics", http.MethodGet, "/metrics", s.deps.Metrics.ServeHTTP},
		{"GetOpenAPIDocument", http.MethodGet, V1BaseURL + "/openapi.yaml", serveOpenAPIDocument},

		{"OpenSession", http.MethodPost, V1BaseURL + "/items/{itemID}/sessions", s.handleOpenSession},
		{"GetSession", http.MethodGet, V1BaseURL + "/sessions/{sessionID}", s.handleGetSession},
		{"CancelSession", http.MethodDelete, V1BaseURL + "/sessions/{sessionID}", s.handleCancelSession},
		{"DispatchAction", http.MethodPost, V1BaseURL + "/sessions/{sessionID}/actions", s.handleDispatchAction},
		{"UploadTranscript", http.MethodPost, V1BaseURL + "/sessions/{sessionID}/uploads", s.handleUploadTranscript},
		{"SaveSession", http.MethodPost, V1BaseURL + "/sessions/{sessionID}/save", s.handleSaveSession},

		{"GetPlaybackWindow", http.MethodGet, V1BaseURL + "/items/{itemID}/playback-window", s.handleGetPlaybackWindow},
		{"SetPlaybackWindow", http.MethodPut, V1BaseURL + "/items/{itemID}/playback-window", s.handleSetPlaybackWindow},

		{"UploadDefaultTranscript", http.MethodPost, V1BaseURL + "/items/{itemID}/handlers/upload_default_transcript", s.handleUploadDefaultTranscript},
		{"SubmitAsset", http.MethodPost, V1BaseURL + "/items/{itemID}/assets", s.handleSubmitAsset},
		{"DownloadTranscript", http.MethodGet, V1BaseURL + "/transcripts/download", s.handleDownloadTranscript},
		{"GetTranscriptVTT", http.MethodGet, V1BaseURL + "/transcripts/vtt", s.handleTranscriptVTT},
	}
}

func (s *Server) routes() (http.Handler, error) {
	stack := middleware.StackConfig{
		EnableMetrics:   true,
		EnableLogging:   true,
		TracingService:  s.cfg.TracingService,
		RateLimit:       s.cfg.RateLimit,
		RateLimitWindow: time.Minute,
	}
	if s.cfg.ValidateRequests {
		doc, err := LoadDocument()
		if err != nil {
			return nil, err
		}
		stack.OpenAPI = doc
	}

	r, err := middleware.NewRouter(stack)
	if err != nil {
		return nil, err
	}
	for _, op := range s.operations() {
		r.Method(op.method, op.pattern, op.handler)
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Detail: "no such endpoint"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method_not_allowed"})
	})
	return r, nil
}
