package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the counters of one scraper invocation
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched   *prometheus.CounterVec
	ReviewsKept    *prometheus.CounterVec
	RecordsSkipped *prometheus.CounterVec
	Runs           *prometheus.CounterVec
	RunDuration    *prometheus.GaugeVec
	LastSuccess    *prometheus.GaugeVec
}

// New creates the scraper metrics in a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PagesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "review_scraper", Name: "pages_fetched_total", Help: "Pages fetched."},
			[]string{"source"},
		),
		ReviewsKept: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "review_scraper", Name: "reviews_kept_total", Help: "Reviews inside the date range."},
			[]string{"source"},
		),
		RecordsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "review_scraper", Name: "records_skipped_total", Help: "Records dropped for bad dates or empty bodies."},
			[]string{"source"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "review_scraper", Name: "runs_total", Help: "Runs by outcome."},
			[]string{"source", "outcome"}, // outcome: done|empty|failed
		),
		RunDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: "review_scraper", Name: "run_duration_seconds", Help: "Duration of the last run."},
			[]string{"source"},
		),
		LastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: "review_scraper", Name: "last_success_timestamp_seconds", Help: "Unix time of the last successful run."},
			[]string{"source"},
		),
	}
	m.registry.MustRegister(m.PagesFetched, m.ReviewsKept, m.RecordsSkipped, m.Runs, m.RunDuration, m.LastSuccess)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
