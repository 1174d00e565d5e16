// Command exportcsv dumps stored readings as CSV for downstream analysis.
//
// Usage:
//
//	exportcsv [-out readings.csv] [-station s3] [-since 2026-08-01T00:00:00Z] [-until 2026-08-15T00:00:00Z]
//
// With no -out, the CSV is written to stdout. -since and -until take RFC 3339
// timestamps; -until is exclusive.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkarls/aqi-ops/internal/adapter/postgres"
	"github.com/mkarls/aqi-ops/internal/config"
	"github.com/mkarls/aqi-ops/internal/export"
	"github.com/mkarls/aqi-ops/internal/observability"
)

func main() {
	out := flag.String("out", "", "output file (default stdout)")
	station := flag.String("station", "", "only export readings from this station")
	since := flag.String("since", "", "only export readings observed at or after this RFC 3339 time")
	until := flag.String("until", "", "only export readings observed before this RFC 3339 time")
	flag.Parse()

	if err := run(*out, *station, *since, *until); err != nil {
		slog.Error("exportcsv failed", "error", err)
		os.Exit(1)
	}
}

func run(out, station, since, until string) error {
	filter := export.Filter{Station: station}

	var err error
	if since != "" {
		if filter.Since, err = time.Parse(time.RFC3339, since); err != nil {
			return fmt.Errorf("invalid -since: %w", err)
		}
	}
	if until != "" {
		if filter.Until, err = time.Parse(time.RFC3339, until); err != nil {
			return fmt.Errorf("invalid -until: %w", err)
		}
	}

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

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // closed explicitly below on success
		w = f
	}

	exporter := export.NewExporter(store, logger, metrics)
	rows, err := exporter.WriteCSV(ctx, filter, w)
	if err != nil {
		return err
	}

	if f, ok := w.(*os.File); ok && f != os.Stdout {
		if err := f.Close(); err != nil {
			return fmt.Errorf("close output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %d readings to %s\n", rows, out)
	}
	return nil
}
