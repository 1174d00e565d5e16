// Command dbmaint runs one-off maintenance against the readings database.
//
// Usage:
//
//	dbmaint -tables            list tables with row estimates
//	dbmaint -prune             delete readings older than RETENTION_DAYS
//	dbmaint -reset -yes        drop and recreate the readings schema
//
// -reset refuses to run without -yes.
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
	"github.com/jonboulle/clockwork"

	"github.com/mkarls/aqi-ops/internal/adapter/postgres"
	"github.com/mkarls/aqi-ops/internal/config"
	"github.com/mkarls/aqi-ops/internal/maintenance"
	"github.com/mkarls/aqi-ops/internal/observability"
)

func main() {
	tables := flag.Bool("tables", false, "list tables with row estimates")
	prune := flag.Bool("prune", false, "delete readings older than the retention window")
	reset := flag.Bool("reset", false, "drop and recreate the readings schema")
	yes := flag.Bool("yes", false, "confirm destructive operations")
	flag.Parse()

	if err := run(*tables, *prune, *reset, *yes); err != nil {
		slog.Error("dbmaint failed", "error", err)
		os.Exit(1)
	}
}

func run(tables, prune, reset, yes bool) error {
	if !tables && !prune && !reset {
		return fmt.Errorf("nothing to do: pass -tables, -prune, or -reset")
	}
	if reset && !yes {
		return fmt.Errorf("-reset is destructive: re-run with -yes to confirm")
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

	if tables {
		if err := printTables(ctx, store); err != nil {
			return err
		}
	}

	if prune {
		pruner := maintenance.NewPruner(store, clockwork.NewRealClock(), cfg.RetentionDays, logger, metrics)
		deleted, err := pruner.Prune(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d readings older than %d days\n", deleted, cfg.RetentionDays)
	}

	if reset {
		if err := store.ResetSchema(ctx); err != nil {
			return err
		}
		fmt.Println("readings schema dropped and recreated")
	}

	if cfg.PushgatewayURL != "" {
		if err := observability.PushToGateway(cfg.PushgatewayURL, "dbmaint"); err != nil {
			logger.Warn("metrics push failed", "error", err)
		}
	}

	return nil
}

func printTables(ctx context.Context, store *postgres.Store) error {
	infos, err := store.ListTables(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no tables found")
		return nil
	}
	fmt.Printf("%-32s %12s\n", "TABLE", "ROWS (EST)")
	for _, t := range infos {
		fmt.Printf("%-32s %12d\n", t.Name, t.RowsEst)
	}
	return nil
}
