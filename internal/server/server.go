// Package server exposes system diagrams over HTTP.
//
// Routes:
//
//	GET /healthz
//	GET /api/systems
//	GET /api/systems/{namespace}/{name}/graph
//	GET /api/systems/{namespace}/{name}/diagram.{format}?direction=LR&detailed=true
//	GET /metrics
//
// Every request goes through the same [pipeline.Runner] the CLI uses. Graphs
// are built from a fresh catalog fetch per request; rendered artifacts are
// shared through the configured cache. Graph and diagram responses carry an
// ETag and honor If-None-Match. Errors are
// returned as JSON {"code": ..., "message": ...} with the status from
// errors.HTTPStatus.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/systemgraph/pkg/observability"
	"github.com/matzehuels/systemgraph/pkg/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	Runner *pipeline.Runner
	Logger *log.Logger

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Metrics records per-route request counts. Optional.
	Metrics *observability.Prometheus

	// Defaults applied when a request leaves them out.
	Direction string
	Detailed  bool
}

// Server serves the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	metrics *observability.Prometheus
	opts    Options
	router  chi.Router
}

// New builds the router. Runner is required.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:  opts.Runner,
		logger:  logger,
		metrics: opts.Metrics,
		opts:    opts,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/systems", func(r chi.Router) {
		r.Get("/", s.handleSystems)
		r.Get("/{namespace}/{name}/graph", s.handleGraph)
		r.Get("/{namespace}/{name}/diagram.{format}", s.handleDiagram)
	})
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, notFound(r.URL.Path))
	})
	return r
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
