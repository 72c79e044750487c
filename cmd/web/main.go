package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"retail-dashboard/internal/backend"
	"retail-dashboard/internal/config"
	"retail-dashboard/internal/handlers"
	"retail-dashboard/internal/middleware"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/server"
	"retail-dashboard/internal/services"
)

var version = "dev"

// newHandler wires the backend client, the dashboard and the middleware chain.
func newHandler(cfg *config.Config, logger *slog.Logger) (http.Handler, *services.Dashboard, error) {
	client, err := backend.NewClient(cfg.Backend, logger)
	if err != nil {
		return nil, nil, err
	}
	dashboard := services.NewDashboard(client, services.NewTransactions(cfg.Backend.SnapshotRetention, logger), logger)

	srv := server.NewServer(handlers.Deps{
		Dashboard:    dashboard,
		Backend:      client,
		Display:      cfg.Display,
		PollInterval: cfg.Backend.PollInterval,
		Version:      version,
		Logger:       logger,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv), dashboard, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"backend_url", cfg.Backend.BaseURL,
		"poll_interval", cfg.Backend.PollInterval,
	)

	handler, dashboard, err := newHandler(cfg, logger)
	if err != nil {
		logger.Error("failed to build backend client", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("final snapshot stats", "stats", dashboard.Store().Stats())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
