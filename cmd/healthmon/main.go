// Command healthmon watches the readings table and reports whether the
// collection pipeline is still landing data. It exposes /healthz, /readyz,
// and /metrics; /readyz goes 503 when fewer than MIN_READINGS observations
// arrived within FRESHNESS_WINDOW.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/mkarls/aqi-ops/internal/adapter/http"
	"github.com/mkarls/aqi-ops/internal/adapter/postgres"
	"github.com/mkarls/aqi-ops/internal/config"
	"github.com/mkarls/aqi-ops/internal/maintenance"
	"github.com/mkarls/aqi-ops/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireDatabase(); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	checker := maintenance.NewHealthChecker(
		store, clockwork.NewRealClock(),
		cfg.ProbeInterval, cfg.FreshnessWindow, cfg.MinReadings,
		logger, metrics,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, checker, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := checker.Run(ctx); err != nil {
			logger.Error("health monitor error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
