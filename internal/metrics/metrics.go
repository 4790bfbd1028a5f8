package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "swupdate"

// Resolution outcome labels that are not update.Outcome values.
const (
	OutcomeAmbiguous    = "ambiguous"
	OutcomeCatalogError = "catalog_error"
	OutcomeBadRequest   = "bad_request"
)

// Metrics groups the collectors recorded by the resolver and the HTTP layer.
type Metrics struct {
	// Resolutions counts resolutions by outcome label.
	Resolutions *prometheus.CounterVec
	// ResolutionDuration observes the time spent listing and deciding.
	ResolutionDuration prometheus.Histogram
	// SkippedEntries counts catalog entries whose names could not be parsed.
	SkippedEntries prometheus.Counter
	// HTTPRequests counts served HTTP requests.
	HTTPRequests *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors and registers them, plus Go runtime collectors, in a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of update resolutions by outcome.",
			},
			[]string{"outcome"},
		),
		ResolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Time spent listing the catalog and deciding on an update.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		SkippedEntries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_skipped_entries_total",
				Help:      "Total number of catalog entries skipped because their names could not be parsed.",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.Resolutions,
		m.ResolutionDuration,
		m.SkippedEntries,
		m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveResolution records one resolution outcome and its duration.
func (m *Metrics) ObserveResolution(outcome string, started time.Time) {
	m.Resolutions.WithLabelValues(outcome).Inc()
	m.ResolutionDuration.Observe(time.Since(started).Seconds())
}

// AddSkipped records catalog entries that were skipped as malformed.
func (m *Metrics) AddSkipped(n int) {
	if n > 0 {
		m.SkippedEntries.Add(float64(n))
	}
}

// IncrementRequest records a served HTTP request.
func (m *Metrics) IncrementRequest(method, route string, status int) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
