// Package api exposes validation runs over HTTP.
//
// Routes:
//
//	GET  /healthz
//	POST /api/validate/{customer}   body = data file → validation report
//	POST /api/compare/{customer}    body = data file → column comparison report
//	GET  /api/rules/{customer}      → stored rule set
//	PUT  /api/rules/{customer}      body = rule set JSON → saved
//
// The input format comes from the "format" query parameter (csv, json, xml;
// default csv); "encoding", "delimiter" and "record_tag" map onto
// ingest.Options.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rulecheck/internal/rules"
)

// DefaultMaxBodyBytes bounds uploaded data files.
const DefaultMaxBodyBytes = 64 << 20

// Config controls server startup.
type Config struct {
	Addr string
	// RulesDir is the rules.Store directory.
	RulesDir string
	// ValidateWorkers is passed to validate.Options.
	ValidateWorkers int
	// MaxBodyBytes <= 0 means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Server wraps http.Server with the rulecheck routes.
type Server struct {
	cfg    Config
	store  rules.Store
	router *chi.Mux
	server *http.Server
}

// NewServer constructs a Server with routes and middleware.
func NewServer(cfg Config) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		cfg:    cfg,
		store:  rules.Store{Dir: cfg.RulesDir},
		router: chi.NewRouter(),
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/validate/{customer}", s.handleValidate)
		r.Post("/compare/{customer}", s.handleCompare)
		r.Get("/rules/{customer}", s.handleGetRules)
		r.Put("/rules/{customer}", s.handlePutRules)
	})
}

// Router returns the handler for tests and embedding.
func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Printf("api: listening on %s", s.cfg.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
