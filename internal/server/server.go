// Package server exposes the aggregation and registry probes over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/funcfeed/funcfeed/pkg/feed"
	"github.com/funcfeed/funcfeed/pkg/registry"
)

// FeedRunner produces the updated feed entry for one build.
type FeedRunner interface {
	Run(ctx context.Context, buildVersion string) (feed.Entry, error)
}

// PackageCollector reports the newest package versions per registry.
type PackageCollector interface {
	Collect(ctx context.Context, includePrerelease bool) ([]registry.SourceReport, error)
}

// Server is the HTTP front of the service.
type Server struct {
	http   *http.Server
	logger *charmlog.Logger
}

// New builds the server with its routes and middleware wired.
func New(addr string, logger *charmlog.Logger, runner FeedRunner, collector PackageCollector) *Server {
	s := &Server{logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/api/feed", s.handleFeed(runner))
	r.Get("/api/packages", s.handlePackages(collector))

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe blocks serving requests until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
