// Package dashboard serves the exploration report over HTTP.
//
// The page has two sidebar toggles (raw dataset, summary statistics) and one
// collapsible section per chart family. Nothing is computed for a section
// until the browser opens it; opening it again recomputes it.
//
// # Usage
//
//	srv, err := dashboard.New(dashboard.Config{
//		Dataset:  ds,
//		Renderer: render.New(render.NewGonum(render.FormatPNG)),
//		Address:  ":8501",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//		log.Fatal(err)
//	}
package dashboard

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spektr-org/eda/dataset"
	"github.com/spektr-org/eda/render"
	"github.com/spektr-org/eda/report"
)

// Config configures the dashboard server.
type Config struct {
	// Dataset is the loaded table. Required.
	Dataset *dataset.Handle

	// Renderer draws the charts. Required.
	Renderer *render.Renderer

	// Selection lists the sections open when the page loads.
	Selection report.Selection

	// Parallelism bounds how many charts of one section render at once.
	Parallelism int

	// Address is the HTTP listen address (default ":8501").
	Address string

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the HTTP write timeout.
	WriteTimeout time.Duration
}

// Server is the dashboard HTTP server.
type Server struct {
	config     Config
	builder    *report.Builder
	router     chi.Router
	pages      *template.Template
	httpServer *http.Server
}

// New creates a dashboard server.
func New(cfg Config) (*Server, error) {
	if cfg.Dataset == nil {
		return nil, errors.New("dashboard needs a dataset")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("dashboard needs a renderer")
	}
	if cfg.Address == "" {
		cfg.Address = ":8501"
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:  cfg,
		builder: report.NewBuilder(cfg.Dataset.Schema(), report.WithParallelism(cfg.Parallelism)),
		router:  chi.NewRouter(),
		pages:   pages,
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(securityHeaders)

	r.Get("/", s.handleIndex)
	r.Get("/sections/{id}", s.handleSection)
	r.Get("/charts/{id}/{index}", s.handleChart)
	r.Get("/dataset", s.handleDataset)
	r.Get("/statistics", s.handleStatistics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/sections", s.handleAPISections)
		r.Get("/sections/{id}", s.handleAPISection)
		r.Get("/health", s.handleHealth)
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	log.WithFields(log.Fields{
		"addr":    s.config.Address,
		"dataset": s.config.Dataset.Source(),
		"backend": s.config.Renderer.Backend().Name(),
	}).Info("dashboard listening")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "dashboard")
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ============================================================================
// MIDDLEWARE
// ============================================================================

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"request_id":  middleware.GetReqID(r.Context()),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("request")
	})
}
