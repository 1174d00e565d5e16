package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mkarls/aqi-ops/internal/observability"
)

// CollectionStats summarizes recent collection activity.
type CollectionStats struct {
	Count            int64
	LatestObservedAt time.Time
}

// StatsSource reports collection activity since a point in time.
type StatsSource interface {
	CollectionStats(ctx context.Context, since time.Time) (CollectionStats, error)
}

// HealthChecker periodically probes the store and tracks whether the
// collection pipeline is still landing readings. It implements the HTTP
// server's ReadinessChecker.
type HealthChecker struct {
	source      StatsSource
	clock       clockwork.Clock
	interval    time.Duration
	window      time.Duration
	minReadings int
	logger      *slog.Logger
	metrics     *observability.Metrics

	mu      sync.Mutex
	probed  bool
	lastErr error
}

// NewHealthChecker creates a checker that expects at least minReadings
// observations within the trailing window.
func NewHealthChecker(source StatsSource, clock clockwork.Clock, interval, window time.Duration,
	minReadings int, logger *slog.Logger, metrics *observability.Metrics) *HealthChecker {
	return &HealthChecker{
		source:      source,
		clock:       clock,
		interval:    interval,
		window:      window,
		minReadings: minReadings,
		logger:      logger,
		metrics:     metrics,
	}
}

// Probe runs one health check and records the result.
func (h *HealthChecker) Probe(ctx context.Context) error {
	since := h.clock.Now().Add(-h.window)

	stats, err := h.source.CollectionStats(ctx, since)
	if err != nil {
		err = fmt.Errorf("collection stats: %w", err)
		h.metrics.HealthProbes.WithLabelValues("error").Inc()
		h.metrics.CollectionHealthy.Set(0)
		h.record(err)
		return err
	}

	h.metrics.ReadingsInWindow.Set(float64(stats.Count))

	if stats.Count < int64(h.minReadings) {
		err = fmt.Errorf("collection stale: %d readings since %s, want at least %d",
			stats.Count, since.Format(time.RFC3339), h.minReadings)
		h.metrics.HealthProbes.WithLabelValues("stale").Inc()
		h.metrics.CollectionHealthy.Set(0)
		h.record(err)
		return err
	}

	h.metrics.HealthProbes.WithLabelValues("healthy").Inc()
	h.metrics.CollectionHealthy.Set(1)
	h.record(nil)
	h.logger.Debug("collection healthy",
		"count", stats.Count,
		"latest_observed_at", stats.LatestObservedAt,
	)
	return nil
}

// Run probes immediately and then on every interval tick until the context
// is cancelled. Probe failures are logged, not fatal.
func (h *HealthChecker) Run(ctx context.Context) error {
	h.logger.Info("health monitor started",
		"interval", h.interval,
		"window", h.window,
		"min_readings", h.minReadings,
	)

	if err := h.Probe(ctx); err != nil {
		h.logger.Warn("health probe failed", "error", err)
	}

	ticker := h.clock.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("health monitor stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if err := h.Probe(ctx); err != nil {
				h.logger.Warn("health probe failed", "error", err)
			}
		}
	}
}

// CheckReadiness returns nil when the most recent probe found the collection
// fresh, or the probe's error otherwise.
func (h *HealthChecker) CheckReadiness(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.probed {
		return errors.New("no health probe has completed yet")
	}
	return h.lastErr
}

func (h *HealthChecker) record(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probed = true
	h.lastErr = err
}
