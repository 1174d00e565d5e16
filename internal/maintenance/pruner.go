package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mkarls/aqi-ops/internal/observability"
)

// RetentionStore deletes readings observed before a cutoff.
type RetentionStore interface {
	DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pruner enforces the retention window on stored readings.
type Pruner struct {
	store     RetentionStore
	clock     clockwork.Clock
	retention time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewPruner creates a Pruner keeping retentionDays of readings.
func NewPruner(store RetentionStore, clock clockwork.Clock, retentionDays int,
	logger *slog.Logger, metrics *observability.Metrics) *Pruner {
	return &Pruner{
		store:     store,
		clock:     clock,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger,
		metrics:   metrics,
	}
}

// Prune deletes readings older than the retention window and returns the
// number of rows removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	cutoff := p.clock.Now().Add(-p.retention)

	deleted, err := p.store.DeleteReadingsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune readings: %w", err)
	}

	p.metrics.RowsPruned.Add(float64(deleted))
	p.logger.Info("retention prune complete",
		"cutoff", cutoff.Format(time.RFC3339),
		"deleted", deleted,
	)
	return deleted, nil
}
