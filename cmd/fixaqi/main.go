// Command fixaqi recomputes stored AQI values from raw PM2.5/PM10
// concentrations and rewrites the rows whose stored index disagrees.
// Re-running it is a no-op once the table is consistent.
//
// Usage:
//
//	DATABASE_URL=postgres://... fixaqi [-notify]
//
// With KAFKA_BROKERS set, every applied correction is also published to the
// corrections topic as an audit event. With PUSHGATEWAY_URL set, run counters
// are pushed on completion. -notify emails a summary when SMTP is configured
// and at least one row was rewritten.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	kafkaadapter "github.com/mkarls/aqi-ops/internal/adapter/kafka"
	"github.com/mkarls/aqi-ops/internal/adapter/mail"
	"github.com/mkarls/aqi-ops/internal/adapter/postgres"
	"github.com/mkarls/aqi-ops/internal/config"
	"github.com/mkarls/aqi-ops/internal/maintenance"
	"github.com/mkarls/aqi-ops/internal/observability"
)

func main() {
	notify := flag.Bool("notify", false, "email a summary when corrections were applied")
	flag.Parse()

	if err := run(*notify); err != nil {
		slog.Error("fixaqi failed", "error", err)
		os.Exit(1)
	}
}

func run(notify bool) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	var publisher maintenance.CorrectionPublisher
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer writer.Close() //nolint:errcheck // process is exiting
		publisher = writer
		logger.Info("correction audit publishing enabled", "topic", cfg.KafkaCorrectionsTopic)
	}

	fixer := maintenance.NewFixer(store, store, publisher, logger, metrics, cfg.BatchSize)

	summary, err := fixer.Run(ctx)
	if err != nil {
		return fmt.Errorf("correction run: %w", err)
	}

	if cfg.PushgatewayURL != "" {
		if err := observability.PushToGateway(cfg.PushgatewayURL, "fixaqi"); err != nil {
			logger.Warn("metrics push failed", "error", err)
		}
	}

	if notify && cfg.MailEnabled && summary.Corrected > 0 {
		mailer := mail.New(cfg, logger)
		subject := fmt.Sprintf("AQI corrections: %d readings rewritten", summary.Corrected)
		if err := mailer.Notify(ctx, subject, summary.EmailBody()); err != nil {
			logger.Warn("notification failed", "error", err)
		}
	}

	return nil
}
