package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mkarls/aqi-ops/internal/domain"
	"github.com/mkarls/aqi-ops/internal/observability"
)

// ReadingSource pages through stored readings in ascending id order.
type ReadingSource interface {
	FetchBatch(ctx context.Context, afterID int64, limit int) ([]domain.Reading, error)
}

// IndexWriter rewrites stored AQI values.
type IndexWriter interface {
	UpdateIndexes(ctx context.Context, updates []domain.IndexUpdate) error
}

// CorrectionPublisher emits audit events for applied corrections.
type CorrectionPublisher interface {
	PublishCorrections(ctx context.Context, corrections []domain.Correction) error
}

// Summary reports what a correction run did.
type Summary struct {
	Scanned   int
	Corrected int
	Published int
	Duration  time.Duration
}

// EmailBody renders the summary as the plain-text notification body.
func (s Summary) EmailBody() string {
	return fmt.Sprintf(
		"AQI correction run finished in %s.\n\nReadings scanned:   %d\nIndexes corrected:  %d\nAudit events sent:  %d\n",
		s.Duration.Round(time.Millisecond), s.Scanned, s.Corrected, s.Published,
	)
}

// Fixer pages through stored readings, recomputes each AQI from its raw
// concentrations, and rewrites only the rows whose stored value disagrees.
type Fixer struct {
	source    ReadingSource
	writer    IndexWriter
	publisher CorrectionPublisher // nil disables audit publishing
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	batchSize int
}

// NewFixer creates a Fixer. Pass a nil publisher to skip audit events.
func NewFixer(source ReadingSource, writer IndexWriter, publisher CorrectionPublisher,
	logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Fixer {
	return &Fixer{
		source:    source,
		writer:    writer,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
		batchSize: batchSize,
	}
}

// SetClock swaps the time source, for deterministic tests.
func (f *Fixer) SetClock(c clockwork.Clock) { f.clock = c }

// Run executes the full correction pass. It stops early only on context
// cancellation or when a batch keeps failing after retries.
func (f *Fixer) Run(ctx context.Context) (Summary, error) {
	start := f.clock.Now()
	f.logger.Info("correction run started", "batch_size", f.batchSize)

	var summary Summary
	var afterID int64

	for {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		var batch []domain.Reading
		err := f.withRetry(ctx, "fetch batch", func() error {
			var ferr error
			batch, ferr = f.source.FetchBatch(ctx, afterID, f.batchSize)
			return ferr
		})
		if err != nil {
			return summary, err
		}
		if len(batch) == 0 {
			break
		}

		summary.Scanned += len(batch)
		f.metrics.ReadingsScanned.Add(float64(len(batch)))
		afterID = batch[len(batch)-1].ID

		updates, corrections := recalculateBatch(batch)
		if len(updates) == 0 {
			continue
		}

		err = f.withRetry(ctx, "write corrections", func() error {
			return f.writer.UpdateIndexes(ctx, updates)
		})
		if err != nil {
			return summary, err
		}

		summary.Corrected += len(updates)
		f.metrics.IndexesCorrected.Add(float64(len(updates)))

		summary.Published += f.publish(ctx, corrections)
	}

	summary.Duration = f.clock.Since(start)
	f.metrics.FixDuration.Observe(summary.Duration.Seconds())
	f.logger.Info("correction run finished",
		"scanned", summary.Scanned,
		"corrected", summary.Corrected,
		"published", summary.Published,
		"duration", summary.Duration,
	)
	return summary, nil
}

// recalculateBatch recomputes every reading in the batch and collects the
// rewrites plus their audit records. Unchanged readings produce nothing.
func recalculateBatch(batch []domain.Reading) ([]domain.IndexUpdate, []domain.Correction) {
	var updates []domain.IndexUpdate
	var corrections []domain.Correction
	for _, r := range batch {
		index, changed := domain.Recalculate(r)
		if !changed {
			continue
		}
		updates = append(updates, domain.IndexUpdate{ReadingID: r.ID, NewIndex: index})
		corrections = append(corrections, domain.NewCorrection(r, index))
	}
	return updates, corrections
}

// publish sends audit events best-effort: a Kafka outage must not abort the
// correction run, the database is already consistent at this point.
func (f *Fixer) publish(ctx context.Context, corrections []domain.Correction) int {
	if f.publisher == nil || len(corrections) == 0 {
		return 0
	}
	if err := f.publisher.PublishCorrections(ctx, corrections); err != nil {
		f.logger.Warn("publish corrections failed", "error", err, "count", len(corrections))
		f.metrics.FixErrors.Inc()
		return 0
	}
	f.metrics.CorrectionsPublished.Add(float64(len(corrections)))
	return len(corrections)
}

const (
	maxAttempts    = 5
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// withRetry runs fn up to maxAttempts times with capped exponential backoff.
func (f *Fixer) withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.metrics.FixErrors.Inc()
		if attempt == maxAttempts {
			return fmt.Errorf("%s: %w", op, err)
		}
		f.logger.Warn("retrying after failure", "op", op, "attempt", attempt, "error", err)
		if !f.sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func (f *Fixer) sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-f.clock.After(d):
		return true
	}
}

func nextBackoff(current, maxB time.Duration) time.Duration {
	next := current * 2
	if next > maxB {
		return maxB
	}
	return next
}
