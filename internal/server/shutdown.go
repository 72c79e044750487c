package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"retail-dashboard/internal/config"
)

// GracefulServer serves until it is told to stop, then closes the open
// transaction streams before draining the remaining requests. Streams poll
// until their request context ends, so http.Server.Shutdown alone would wait
// on them until the timeout.
type GracefulServer struct {
	server       *http.Server
	logger       *slog.Logger
	timeout      time.Duration
	closeStreams context.CancelFunc

	mu    sync.Mutex
	hooks []func(ctx context.Context) error
}

// NewGracefulServer takes over srv.BaseContext so every request context can
// be cancelled on shutdown.
func NewGracefulServer(srv *http.Server, logger *slog.Logger, cfg config.ServerConfig) *GracefulServer {
	streams, closeStreams := context.WithCancel(context.Background())
	srv.BaseContext = func(net.Listener) context.Context { return streams }
	return &GracefulServer{
		server:       srv,
		logger:       logger,
		timeout:      cfg.ShutdownTimeout,
		closeStreams: closeStreams,
	}
}

// RegisterShutdownHook adds fn to run after the server has stopped. Hooks run
// in registration order.
func (gs *GracefulServer) RegisterShutdownHook(fn func(ctx context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, fn)
}

// ListenAndServe serves on the configured address until SIGINT or SIGTERM.
func (gs *GracefulServer) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", gs.server.Addr, err)
	}
	return gs.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done and then shuts down.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	serverErrors := make(chan error, 1)
	go func() {
		gs.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"read_timeout", gs.server.ReadTimeout,
			"write_timeout", gs.server.WriteTimeout,
		)
		serverErrors <- gs.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		gs.closeStreams()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		gs.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gs.timeout)
		defer cancel()
		return gs.Shutdown(shutdownCtx)
	}
}

// Shutdown closes the transaction streams, waits for the other requests to
// finish and then runs the hooks. Every failure is reported.
func (gs *GracefulServer) Shutdown(ctx context.Context) error {
	gs.logger.Info("starting graceful shutdown", "timeout", gs.timeout)

	gs.logger.Info("closing transaction streams")
	gs.closeStreams()

	var errs []error
	if err := gs.server.Shutdown(ctx); err != nil {
		gs.logger.Error("HTTP server shutdown failed", "error", err)
		errs = append(errs, fmt.Errorf("HTTP server shutdown failed: %w", err))
	} else {
		gs.logger.Info("HTTP server stopped gracefully")
	}

	gs.mu.Lock()
	hooks := append([]func(context.Context) error(nil), gs.hooks...)
	gs.mu.Unlock()

	for i, hook := range hooks {
		if err := hook(ctx); err != nil {
			gs.logger.Error("shutdown hook failed", "hook_index", i, "error", err)
			errs = append(errs, fmt.Errorf("shutdown hook %d failed: %w", i, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	gs.logger.Info("graceful shutdown completed")
	return nil
}
