// Package server exposes the pipeline over HTTP.
//
// Routes:
//
//	POST /v1/tree?algorithm=&layer=&root=&root_strategy=   body: graph document
//	POST /v1/bundle   body: {"graph": doc, "options": {...}, "edges": "interlayer|all"}
//	GET  /healthz
//	GET  /metrics     (when a Prometheus gatherer is configured)
//
// Every response carries an X-Request-ID header. Errors are JSON objects
// {"code", "message", "request_id"}; INVALID_* codes map to 400, TOO_LARGE
// to 413, TIMEOUT to 503 and everything else to 500.
//
// Bundle requests are bounded by the server: max_loops may not exceed
// Options.MaxLoops, the candidate edge count may not exceed Options.MaxEdges,
// and every request is cancelled after Options.Timeout.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/layerweave/internal/metrics"
	"github.com/matzehuels/layerweave/pkg/bundle"
	"github.com/matzehuels/layerweave/pkg/config"
	"github.com/matzehuels/layerweave/pkg/pipeline"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 32 << 20

// Options configures a Server.
type Options struct {
	Logger *log.Logger

	// Defaults seeds every request. Request fields override it.
	Defaults pipeline.Options

	// Gatherer backs GET /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer

	MaxBodyBytes int64

	// MaxEdges caps the candidate edges of a bundle request, MaxLoops its
	// max_loops, and Timeout the time any request may compute. Zero values
	// take the config package defaults.
	MaxEdges int
	MaxLoops int
	Timeout  time.Duration
}

// Server handles HTTP requests with a shared pipeline runner.
type Server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	defaults pipeline.Options
	gatherer prometheus.Gatherer
	maxBody  int64
	maxEdges int
	maxLoops int
	timeout  time.Duration
}

// New creates a server around runner.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.MaxEdges <= 0 {
		opts.MaxEdges = config.DefaultServerMaxEdges
	}
	if opts.MaxLoops <= 0 {
		opts.MaxLoops = config.DefaultServerMaxLoops
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultServerTimeout
	}
	if opts.Defaults.Bundle == (bundle.Options{}) {
		opts.Defaults.Bundle = bundle.DefaultOptions()
	}
	return &Server{
		runner:   runner,
		logger:   opts.Logger,
		defaults: opts.Defaults,
		gatherer: opts.Gatherer,
		maxBody:  opts.MaxBodyBytes,
		maxEdges: opts.MaxEdges,
		maxLoops: opts.MaxLoops,
		timeout:  opts.Timeout,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	return s.router()
}

// router registers middleware and routes. logRequests wraps recoverer so a
// recovered panic is logged and counted as a 500.
func (s *Server) router() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.logRequests)
	r.Use(s.recoverer)

	r.Get("/healthz", s.healthz)
	if s.gatherer != nil {
		r.Handle("/metrics", metrics.Handler(s.gatherer))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/tree", s.handleTree)
		r.Post("/bundle", s.handleBundle)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errNotFound(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errMethodNotAllowed(r.Method))
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
