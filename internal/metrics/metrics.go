// Package metrics defines the Prometheus collectors of a run and writes them
// to a node_exporter textfile when the run ends.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Record outcomes.
const (
	OutcomeEmitted      = "emitted"
	OutcomeParseFailed  = "parse_failed"
	OutcomeEnrichFailed = "enrich_failed"
)

// Metrics holds all collectors of a run in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RecordsTotal           *prometheus.CounterVec
	AudioRequestsTotal     *prometheus.CounterVec
	ProviderRequestSeconds *prometheus.HistogramVec
	RunDurationSeconds     prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worldly_records_total",
				Help: "Input rows by outcome (emitted, parse_failed, enrich_failed).",
			},
			[]string{"outcome"},
		),
		AudioRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worldly_audio_requests_total",
				Help: "Audio cache lookups by role (country, capital) and result (hit, miss).",
			},
			[]string{"role", "result"},
		),
		ProviderRequestSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worldly_provider_request_seconds",
				Help:    "Latency of remote provider requests in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),
		RunDurationSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "worldly_run_duration_seconds",
				Help: "Wall clock duration of the last run.",
			},
		),
	}

	m.registry.MustRegister(
		m.RecordsTotal,
		m.AudioRequestsTotal,
		m.ProviderRequestSeconds,
		m.RunDurationSeconds,
	)
	return m
}

// Record counts one input row.
func (m *Metrics) Record(outcome string) {
	m.RecordsTotal.WithLabelValues(outcome).Inc()
}

// AudioLookup counts one cache lookup. The role is the suffix of a logical
// key such as "FR-capital".
func (m *Metrics) AudioLookup(logicalKey string, hit bool) {
	role := logicalKey
	if i := strings.LastIndex(logicalKey, "-"); i >= 0 {
		role = logicalKey[i+1:]
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.AudioRequestsTotal.WithLabelValues(role, result).Inc()
}

// ObserveProvider returns a latency callback for provider.
func (m *Metrics) ObserveProvider(provider string) func(time.Duration) {
	h := m.ProviderRequestSeconds.WithLabelValues(provider)
	return func(d time.Duration) {
		h.Observe(d.Seconds())
	}
}

// WriteTextfile writes all collectors to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
