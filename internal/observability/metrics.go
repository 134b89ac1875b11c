package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dashboard service.
type Metrics struct {
	QueriesTotal    *prometheus.CounterVec // labels: outcome={success,error}
	QueryDuration   prometheus.Histogram
	RowsReturned    prometheus.Histogram
	AdvisoriesTotal *prometheus.CounterVec // labels: code

	// Snapshot store metrics.
	SnapshotRefreshes *prometheus.CounterVec // labels: table={readings,metadata}, outcome={success,error}
	SnapshotRows      *prometheus.GaugeVec   // labels: table
	SnapshotLoadedAt  *prometheus.GaugeVec   // labels: table
	StoreReady        prometheus.Gauge

	// CSV loader metrics.
	RowsSkipped  *prometheus.CounterVec // labels: table, reason
	RowsDegraded *prometheus.CounterVec // labels: table, field
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensor_dash",
			Name:      "queries_total",
			Help:      "Dashboard queries answered, by outcome.",
		}, []string{"outcome"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sensor_dash",
			Name:      "query_duration_seconds",
			Help:      "Duration of a complete filter-aggregate-join-sort query.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		RowsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sensor_dash",
			Name:      "rows_returned",
			Help:      "Aggregated rows per query result.",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000},
		}),
		AdvisoriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensor_dash",
			Name:      "advisories_total",
			Help:      "Advisories attached to query results, by code.",
		}, []string{"code"}),
		SnapshotRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensor_dash",
			Name:      "snapshot_refreshes_total",
			Help:      "Table snapshot load attempts, by table and outcome.",
		}, []string{"table", "outcome"}),
		SnapshotRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sensor_dash",
			Name:      "snapshot_rows",
			Help:      "Rows in the current snapshot of each table.",
		}, []string{"table"}),
		SnapshotLoadedAt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sensor_dash",
			Name:      "snapshot_loaded_timestamp_seconds",
			Help:      "Unix time when each table's snapshot last loaded successfully.",
		}, []string{"table"}),
		StoreReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sensor_dash",
			Name:      "store_ready",
			Help:      "1 once a readings snapshot has loaded, 0 before.",
		}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensor_dash",
			Name:      "rows_skipped_total",
			Help:      "CSV rows dropped during load, by table and reason.",
		}, []string{"table", "reason"}),
		RowsDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensor_dash",
			Name:      "rows_degraded_total",
			Help:      "CSV rows kept with a defaulted field, by table and field.",
		}, []string{"table", "field"}),
	}

	prometheus.MustRegister(
		m.QueriesTotal,
		m.QueryDuration,
		m.RowsReturned,
		m.AdvisoriesTotal,
		m.SnapshotRefreshes,
		m.SnapshotRows,
		m.SnapshotLoadedAt,
		m.StoreReady,
		m.RowsSkipped,
		m.RowsDegraded,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		QueriesTotal:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sensor_dash", Name: "queries_total"}, []string{"outcome"}),
		QueryDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sensor_dash", Name: "query_duration_seconds"}),
		RowsReturned:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sensor_dash", Name: "rows_returned"}),
		AdvisoriesTotal:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sensor_dash", Name: "advisories_total"}, []string{"code"}),
		SnapshotRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sensor_dash", Name: "snapshot_refreshes_total"}, []string{"table", "outcome"}),
		SnapshotRows:      prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "sensor_dash", Name: "snapshot_rows"}, []string{"table"}),
		SnapshotLoadedAt:  prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "sensor_dash", Name: "snapshot_loaded_timestamp_seconds"}, []string{"table"}),
		StoreReady:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "sensor_dash", Name: "store_ready"}),
		RowsSkipped:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sensor_dash", Name: "rows_skipped_total"}, []string{"table", "reason"}),
		RowsDegraded:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sensor_dash", Name: "rows_degraded_total"}, []string{"table", "field"}),
	}
}
