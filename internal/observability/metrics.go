package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the Prometheus counters, histograms, and gauges shared by the
// pipeline maintenance tools.
type Metrics struct {
	ReadingsScanned      prometheus.Counter
	IndexesCorrected     prometheus.Counter
	CorrectionsPublished prometheus.Counter
	FixErrors            prometheus.Counter
	FixDuration          prometheus.Histogram

	// Collection health monitor.
	HealthProbes      *prometheus.CounterVec // labels: outcome={healthy,stale,error}
	ReadingsInWindow  prometheus.Gauge
	CollectionHealthy prometheus.Gauge

	// Maintenance and export.
	RowsPruned   prometheus.Counter
	RowsExported prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReadingsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_ops",
			Name:      "readings_scanned_total",
			Help:      "Total readings examined by the correction job.",
		}),
		IndexesCorrected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_ops",
			Name:      "indexes_corrected_total",
			Help:      "Total stored AQI values rewritten.",
		}),
		CorrectionsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_ops",
			Name:      "corrections_published_total",
			Help:      "Total correction audit events published to Kafka.",
		}),
		FixErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_ops",
			Name:      "fix_errors_total",
			Help:      "Total transient failures during the correction job.",
		}),
		FixDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqi_ops",
			Name:      "fix_duration_seconds",
			Help:      "Duration of a complete correction run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
		HealthProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi_ops",
			Name:      "health_probes_total",
			Help:      "Collection health probes by outcome.",
		}, []string{"outcome"}),
		ReadingsInWindow: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aqi_ops",
			Name:      "readings_in_window",
			Help:      "Readings observed within the freshness window at the last probe.",
		}),
		CollectionHealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aqi_ops",
			Name:      "collection_healthy",
			Help:      "1 when the last probe found the collection fresh, 0 otherwise.",
		}),
		RowsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_ops",
			Name:      "rows_pruned_total",
			Help:      "Total readings deleted by retention pruning.",
		}),
		RowsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_ops",
			Name:      "rows_exported_total",
			Help:      "Total readings written to CSV exports.",
		}),
	}

	prometheus.MustRegister(
		m.ReadingsScanned,
		m.IndexesCorrected,
		m.CorrectionsPublished,
		m.FixErrors,
		m.FixDuration,
		m.HealthProbes,
		m.ReadingsInWindow,
		m.CollectionHealthy,
		m.RowsPruned,
		m.RowsExported,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReadingsScanned:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqi_ops", Name: "readings_scanned_total"}),
		IndexesCorrected:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqi_ops", Name: "indexes_corrected_total"}),
		CorrectionsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqi_ops", Name: "corrections_published_total"}),
		FixErrors:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqi_ops", Name: "fix_errors_total"}),
		FixDuration:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "aqi_ops", Name: "fix_duration_seconds"}),
		HealthProbes:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "aqi_ops", Name: "health_probes_total"}, []string{"outcome"}),
		ReadingsInWindow:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "aqi_ops", Name: "readings_in_window"}),
		CollectionHealthy:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "aqi_ops", Name: "collection_healthy"}),
		RowsPruned:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqi_ops", Name: "rows_pruned_total"}),
		RowsExported:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "aqi_ops", Name: "rows_exported_total"}),
	}
}

// PushToGateway sends the default registry's metrics to a Prometheus
// Pushgateway. The one-shot jobs call this on completion so their counters
// survive process exit.
func PushToGateway(gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
