// Package server exposes the command pipeline over HTTP with a live event stream.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/shahar-caura/deskpilot/internal/events"
)

// Subscriber delivers pipeline events.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan events.Event, error)
}

// Server is the deskpilot HTTP server.
type Server struct {
	port      int
	version   string
	startTime time.Time
	pipeline  Pipeline
	templates Templates
	events    Subscriber
	sseHub    *SSEHub
	logger    *slog.Logger
}

// New creates a Server with the given options.
func New(port int, p Pipeline, t Templates, sub Subscriber, version string, logger *slog.Logger) *Server {
	return &Server{
		port:      port,
		version:   version,
		startTime: time.Now(),
		pipeline:  p,
		templates: t,
		events:    sub,
		sseHub:    NewSSEHub(logger),
		logger:    logger,
	}
}

// Handler builds the request-validated API mux, including the SSE endpoint.
func (s *Server) Handler(ctx context.Context) (http.Handler, error) {
	router, err := loadRouter(ctx)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	NewHandlers(s.pipeline, s.templates, s.version, s.startTime, s.logger).Register(mux)
	mux.Handle("GET /api/events", s.sseHub)

	return validateRequests(router, mux), nil
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	handler, err := s.Handler(ctx)
	if err != nil {
		return err
	}

	evs, err := s.events.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	go s.sseHub.Start(ctx, evs)

	addr := fmt.Sprintf(":%d", s.port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with ctx so open event streams close on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Listen first so the actual port can be logged.
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	s.logger.Info("api server started", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
