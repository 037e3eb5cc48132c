// Package observability carries the service's structured logging setup and
// its Prometheus collectors.
//
// Metrics are exposed on a dedicated listener (see cmd/emojify) so the
// public listener keeps only the emojify routes.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for Requests. They match the error buckets of the service.
const (
	OutcomeOK         = "ok"
	OutcomeMissingURL = "missing_url"
	OutcomeFetchError = "fetch_error"
	OutcomeReplaceErr = "replace_error"
)

// Metrics groups the service collectors.
type Metrics struct {
	Requests      *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	FetchedBytes  prometheus.Histogram
	Replacements  prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates the collectors and registers them on a fresh registry
// alongside the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emojify_requests_total",
				Help: "Emojify requests by transport and outcome",
			},
			[]string{"transport", "outcome"},
		),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "emojify_fetch_duration_seconds",
			Help:    "Duration of outbound page fetches",
			Buckets: prometheus.DefBuckets,
		}),
		FetchedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "emojify_fetched_bytes",
			Help:    "Size of fetched page bodies",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		Replacements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emojify_replacements_total",
			Help: "Six-letter words that received an emoji",
		}),
		registry: reg,
	}
	reg.MustRegister(
		m.Requests, m.FetchDuration, m.FetchedBytes, m.Replacements,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest counts one finished request.
func (m *Metrics) ObserveRequest(transport, outcome string) {
	m.Requests.WithLabelValues(transport, outcome).Inc()
}

// ObserveFetch records a successful fetch.
func (m *Metrics) ObserveFetch(d time.Duration, size int) {
	m.FetchDuration.Observe(d.Seconds())
	m.FetchedBytes.Observe(float64(size))
}

// AddReplacements counts emoji handed out for one document.
func (m *Metrics) AddReplacements(n int) {
	m.Replacements.Add(float64(n))
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
