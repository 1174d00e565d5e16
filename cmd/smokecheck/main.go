// Command smokecheck probes a deployed readings API and verifies that the
// indexes it serves agree with the raw concentrations in the same payload.
// Exit status is non-zero when any check fails, so it can gate deploys.
//
// Usage:
//
//	smokecheck [-base-url https://aqi.example.net]
//
// Without -base-url, API_BASE_URL from the environment is used.
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

	"github.com/mkarls/aqi-ops/internal/adapter/apicheck"
	"github.com/mkarls/aqi-ops/internal/config"
	"github.com/mkarls/aqi-ops/internal/observability"
)

func main() {
	baseURL := flag.String("base-url", "", "readings API base URL (default API_BASE_URL)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	target := cfg.APIBaseURL
	if *baseURL != "" {
		target = *baseURL
	}
	if target == "" {
		slog.Error("no API to check: pass -base-url or set API_BASE_URL")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apicheck.NewClient(target, cfg.APITimeout, logger)
	results := client.Run(ctx)

	failed := 0
	for _, r := range results {
		if r.Passed() {
			fmt.Printf("PASS  %s\n", r.Name)
		} else {
			fmt.Printf("FAIL  %s: %v\n", r.Name, r.Err)
			failed++
		}
	}

	fmt.Printf("\n%d/%d checks passed against %s\n", len(results)-failed, len(results), target)
	if failed > 0 {
		os.Exit(1)
	}
}
