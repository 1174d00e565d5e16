// Package export writes stored readings as RFC-4180 CSV for downstream
// analysis, one row per reading with raw concentrations and the stored index.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/mkarls/aqi-ops/internal/domain"
	"github.com/mkarls/aqi-ops/internal/observability"
)

// Filter bounds an export. Zero values mean unbounded.
type Filter struct {
	Station string
	Since   time.Time
	Until   time.Time
}

// RowSource streams readings matching a filter in ascending id order.
type RowSource interface {
	StreamReadings(ctx context.Context, filter Filter, fn func(domain.Reading) error) error
}

var header = []string{"id", "station_id", "observed_at", "pm25", "pm10", "aqi"}

// Exporter streams readings from a source into CSV.
type Exporter struct {
	source  RowSource
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewExporter creates an Exporter over the given source.
func NewExporter(source RowSource, logger *slog.Logger, metrics *observability.Metrics) *Exporter {
	return &Exporter{source: source, logger: logger, metrics: metrics}
}

// WriteCSV streams matching readings to w and returns the row count
// (excluding the header).
func (e *Exporter) WriteCSV(ctx context.Context, filter Filter, w io.Writer) (int64, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	var rows int64
	err := e.source.StreamReadings(ctx, filter, func(r domain.Reading) error {
		if err := cw.Write(record(r)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
		rows++
		return nil
	})
	if err != nil {
		return rows, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush csv: %w", err)
	}

	e.metrics.RowsExported.Add(float64(rows))
	e.logger.Info("export complete", "rows", rows)
	return rows, nil
}

func record(r domain.Reading) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.StationID,
		r.ObservedAt.UTC().Format(time.RFC3339),
		formatConcentration(r.PM25),
		formatConcentration(r.PM10),
		strconv.Itoa(r.AQI),
	}
}

// formatConcentration renders a concentration, or an empty field when the
// station did not report the species.
func formatConcentration(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
