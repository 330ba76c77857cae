// Package server serves the home site and every project build from one
// local HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/metadocs/internal/logfields"
	"git.home.luguber.info/inful/metadocs/internal/metrics"
	"git.home.luguber.info/inful/metadocs/internal/routes"
	smw "git.home.luguber.info/inful/metadocs/internal/server/middleware"
)

// MetricsPath serves the Prometheus registry when metrics are enabled.
const MetricsPath = "/_metadocs/metrics"

// ShutdownTimeout bounds how long Shutdown waits for open requests.
const ShutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// HomeDir is the home site directory served for unmatched paths.
	HomeDir string

	// Routes provides the current route table.
	Routes routes.Loader

	// Metrics, when set, records requests and is exposed at MetricsPath.
	Metrics *metrics.PrometheusRecorder

	Logger *slog.Logger
}

// Server is the preview HTTP server.
type Server struct {
	router *chi.Mux
	http   *http.Server
}

// New wires the middleware chain, the optional metrics endpoint and the
// file router.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	files := NewRouter(opts.Routes, opts.HomeDir)

	r := chi.NewRouter()
	r.Use(smw.Chain(logger))
	if opts.Metrics != nil {
		files.WithRecorder(opts.Metrics)
		r.Handle(MetricsPath, opts.Metrics.Handler())
	}
	r.Handle("/*", files)

	return &Server{
		router: r,
		http: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on ln until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	slog.Info("Serving", slog.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown stops the server, waiting at most ShutdownTimeout for open
// requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.Warn("Server shutdown incomplete", logfields.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
