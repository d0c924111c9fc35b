// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpserver runs the warden's operational HTTP endpoint
// (metrics and health) with context-driven graceful shutdown.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/warden/lib/clock"
)

// Server serves HTTP on a TCP listener until its context is cancelled.
type Server struct {
	address         string
	handler         http.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration

	// ready is closed once the listener is bound.
	ready chan struct{}
	addr  net.Addr
}

// Config configures a Server.
type Config struct {
	// Address is the TCP listen address, e.g. "127.0.0.1:9464".
	// Port 0 picks a free port; see Addr.
	Address string

	Handler http.Handler

	// ShutdownTimeout bounds the drain of in-flight requests.
	// Defaults to 10 seconds.
	ShutdownTimeout time.Duration

	Logger *slog.Logger
}

// New creates a server. Call Serve to start it.
func New(config Config) *Server {
	if config.Address == "" {
		panic("httpserver: Address is required")
	}
	if config.Handler == nil {
		panic("httpserver: Handler is required")
	}
	if config.Logger == nil {
		panic("httpserver: Logger is required")
	}
	timeout := config.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Server{
		address:         config.Address,
		handler:         config.Handler,
		logger:          config.Logger,
		shutdownTimeout: timeout,
		ready:           make(chan struct{}),
	}
}

// Ready is closed once the server accepts connections.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound address. Valid after Ready is closed.
func (s *Server) Addr() net.Addr { return s.addr }

// Serve blocks until ctx is cancelled, then stops accepting
// connections and waits up to the shutdown timeout for active requests.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("http server listening", "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", "error", err)
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Health tracks whether the bot's sync loop is making progress.
type Health struct {
	lastSync atomic.Int64
	maxAge   time.Duration
	clock    clock.Clock
}

// NewHealth reports unhealthy once no sync has completed for maxAge.
func NewHealth(maxAge time.Duration, clk clock.Clock) *Health {
	return &Health{maxAge: maxAge, clock: clk}
}

// MarkSynced records a completed sync.
func (h *Health) MarkSynced() { h.lastSync.Store(h.clock.Now().UnixNano()) }

// ServeHTTP answers 200 while syncs are recent and 503 otherwise.
func (h *Health) ServeHTTP(writer http.ResponseWriter, _ *http.Request) {
	last := h.lastSync.Load()
	if last == 0 {
		http.Error(writer, "no sync completed yet", http.StatusServiceUnavailable)
		return
	}
	age := h.clock.Now().Sub(time.Unix(0, last))
	if age > h.maxAge {
		http.Error(writer, fmt.Sprintf("last sync %s ago", age.Round(time.Second)), http.StatusServiceUnavailable)
		return
	}
	fmt.Fprintf(writer, "ok, last sync %s ago\n", age.Round(time.Second))
}

// Mux routes /metrics to metrics and /healthz to health.
func Mux(metrics http.Handler, health http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics)
	mux.Handle("GET /healthz", health)
	return mux
}
