// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package server runs the greeter HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/otel-greeter/pkg/greeting"
	"github.com/stacklok/otel-greeter/pkg/logger"
)

const (
	defaultGracefulTimeout = 10 * time.Second
	serverRequestTimeout   = 10 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second // Must be > serverRequestTimeout to let middleware handle timeout
	serverIdleTimeout      = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

// Options configures the server.
type Options struct {
	// Address is the listen address, e.g. ":8080"
	Address string

	// Recorder receives one call per greeting
	Recorder greeting.Recorder

	// Middlewares run inside the request id, recovery and timeout middlewares
	Middlewares []func(http.Handler) http.Handler

	// MetricsHandler, when set, is served on GET /metrics
	MetricsHandler http.Handler

	// GracefulTimeout bounds connection draining on shutdown
	GracefulTimeout time.Duration
}

// NewRouter builds the greeter routes.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(serverRequestTimeout),
	)
	for _, mw := range opts.Middlewares {
		r.Use(mw)
	}

	r.Mount("/greeting", greeting.Router(opts.Recorder))
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}
	return r
}

// Server is a greeter HTTP server bound to a listener.
type Server struct {
	httpServer      *http.Server
	listener        net.Listener
	gracefulTimeout time.Duration
}

// New binds opts.Address and prepares the server.
func New(opts Options) (*Server, error) {
	if opts.Recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}

	listener, err := net.Listen("tcp", opts.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", opts.Address, err)
	}

	gracefulTimeout := opts.GracefulTimeout
	if gracefulTimeout <= 0 {
		gracefulTimeout = defaultGracefulTimeout
	}

	return &Server{
		httpServer: &http.Server{
			Handler:           NewRouter(opts),
			ReadTimeout:       serverReadTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      serverWriteTimeout,
			IdleTimeout:       serverIdleTimeout,
		},
		listener:        listener,
		gracefulTimeout: gracefulTimeout,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve handles requests until ctx is cancelled, then drains connections.
func (s *Server) Serve(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("Server listening on %s", s.listener.Addr())
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.gracefulTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}
