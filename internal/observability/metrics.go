package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ufo_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Archive loading.
	ArchiveLoads        *prometheus.CounterVec // labels: outcome={success,error}
	ArchiveRows         prometheus.Gauge
	ArchiveSkippedLines prometheus.Counter
	ArchiveLoadDuration prometheus.Histogram
	ArchiveCache        *prometheus.CounterVec // labels: result={hit,miss}

	// Grid aggregation.
	Aggregations        prometheus.Counter
	InvalidGridSizes    prometheus.Counter
	AggregationDuration prometheus.Histogram
	Bins                prometheus.Gauge

	// Hotspot geocoding.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Archive export.
	MessagesProduced    prometheus.Counter
	ExportBatchErrors   prometheus.Counter
	ExportBatchDuration prometheus.Histogram
	ExportRunning       prometheus.Gauge
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.ArchiveLoads.WithLabelValues("success")
	m.ArchiveLoads.WithLabelValues("error")

	prometheus.MustRegister(
		m.ArchiveLoads,
		m.ArchiveRows,
		m.ArchiveSkippedLines,
		m.ArchiveLoadDuration,
		m.ArchiveCache,
		m.Aggregations,
		m.InvalidGridSizes,
		m.AggregationDuration,
		m.Bins,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.MessagesProduced,
		m.ExportBatchErrors,
		m.ExportBatchDuration,
		m.ExportRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ArchiveLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_loads_total",
			Help:      "Archive load attempts by outcome.",
		}, []string{"outcome"}),
		ArchiveRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "archive_rows",
			Help:      "Number of sighting records in the most recently loaded archive.",
		}),
		ArchiveSkippedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_skipped_lines_total",
			Help:      "Malformed archive lines skipped while loading.",
		}),
		ArchiveLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_load_duration_seconds",
			Help:      "Duration of reading and normalizing the archive.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ArchiveCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_cache_total",
			Help:      "Archive cache lookups by result.",
		}, []string{"result"}),
		Aggregations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "Total grid aggregations computed.",
		}),
		InvalidGridSizes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_grid_sizes_total",
			Help:      "Grid size inputs rejected before aggregation.",
		}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of a grid aggregation over the archive.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		Bins: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bins",
			Help:      "Number of occupied grid bins in the most recent aggregation.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Hotspot reverse geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when hotspot geocoding is enabled, 0 otherwise.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_messages_produced_total",
			Help:      "Total sightings published to the export topic.",
		}),
		ExportBatchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_batch_errors_total",
			Help:      "Failed export batch writes, including retried ones.",
		}),
		ExportBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_batch_duration_seconds",
			Help:      "Duration of writing one export batch.",
			Buckets:   prometheus.DefBuckets,
		}),
		ExportRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "export_running",
			Help:      "1 while an archive export is in progress.",
		}),
	}
}
