// Package api exposes the lead search, leads list and automation schedule
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/seo-lead-finder/internal/config"
	"github.com/sells-group/seo-lead-finder/internal/metrics"
	"github.com/sells-group/seo-lead-finder/internal/model"
	"github.com/sells-group/seo-lead-finder/internal/store"
)

// AccessKeyHeader carries the shared secret. The access_key query parameter
// is accepted as well.
const AccessKeyHeader = "X-Access-Key"

// DefaultRequestTimeout bounds a single request, searches included.
const DefaultRequestTimeout = 5 * time.Minute

// Searcher runs a lead search. *leads.Finder satisfies it.
type Searcher interface {
	Run(ctx context.Context, req model.SearchRequest) ([]model.LeadResult, error)
}

// Server wires HTTP handlers to the search pipeline and the store.
type Server struct {
	router   chi.Router
	searcher Searcher
	store    store.Store
	cfg      config.ServerConfig
	timeout  time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer constructs a Server with middleware and routes. st may be nil,
// in which case the store-backed endpoints answer 500.
func NewServer(searcher Searcher, st store.Store, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		searcher: searcher,
		store:    st,
		cfg:      cfg,
		timeout:  DefaultRequestTimeout,
	}
	for _, o := range opts {
		o(s)
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", AccessKeyHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(accessKeyMiddleware(cfg.Passwords))
		r.Use(timeoutMiddleware(s.timeout))

		r.Post("/search", s.search)
		r.Get("/leads", s.listLeads)
		r.Get("/automation", s.getAutomation)
		r.Post("/automation", s.saveAutomation)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
