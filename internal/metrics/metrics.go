package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the pipeline's prometheus collectors behind a private
// registry so tests can construct isolated instances.
type Registry struct {
	reg               *prometheus.Registry
	RunsTotal         prometheus.Counter
	RunFailures       prometheus.Counter
	RecordsProcessed  prometheus.Counter
	RecordsFailed     prometheus.Counter
	DuplicatesDropped prometheus.Counter
	RunDurationSec    prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "etl_runs_total",
		Help: "Total number of pipeline runs started.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "etl_run_failures_total",
		Help: "Total number of pipeline runs that failed and rolled back.",
	})
	processed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "etl_records_processed_total",
		Help: "Total raw records moved to the processed status.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "etl_records_failed_total",
		Help: "Total raw records rejected with a failure reason.",
	})
	dupes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "etl_duplicates_dropped_total",
		Help: "Total raw records dropped as exact order duplicates.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "etl_run_duration_seconds",
		Help:    "Wall-clock duration of pipeline runs.",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(runs, failures, processed, failed, dupes, duration)

	return &Registry{
		reg:               r,
		RunsTotal:         runs,
		RunFailures:       failures,
		RecordsProcessed:  processed,
		RecordsFailed:     failed,
		DuplicatesDropped: dupes,
		RunDurationSec:    duration,
	}
}

// Handler returns the scrape endpoint for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
