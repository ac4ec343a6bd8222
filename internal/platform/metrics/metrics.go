package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the desk. Methods are nil-safe so
// packages can be exercised without a registry.
type Metrics struct {
	Registrations      *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	BackendLatency     *prometheus.HistogramVec
	BackendRetries     *prometheus.CounterVec
	SearchCache        *prometheus.CounterVec
	FollowUpFailures   *prometheus.CounterVec
	HTTPLatency        *prometheus.HistogramVec
	RecognizerOpen     prometheus.Gauge
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers on reg. Tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regdesk_registrations_total",
			Help: "Registration submissions by category and outcome",
		}, []string{"category", "outcome"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regdesk_validation_failures_total",
			Help: "Wizard sections that failed validation",
		}, []string{"category", "section"}),
		BackendLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regdesk_backend_request_duration_seconds",
			Help:    "Latency of registry backend calls including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation", "outcome"}),
		BackendRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regdesk_backend_retries_total",
			Help: "Retried registry backend calls",
		}, []string{"operation"}),
		SearchCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regdesk_search_cache_lookups_total",
			Help: "Search cache lookups by result",
		}, []string{"scope", "result"}),
		FollowUpFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regdesk_followup_failures_total",
			Help: "Best-effort post-registration tasks that failed",
		}, []string{"task"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regdesk_http_request_duration_seconds",
			Help:    "Latency of desk HTTP endpoints",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RecognizerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "regdesk_recognizer_circuit_open",
			Help: "1 while face verification follow-ups are suspended",
		}),
	}
}

func (m *Metrics) IncrementRegistration(category, outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(category, outcome).Inc()
}

func (m *Metrics) IncrementValidationFailure(category string, section int) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(category, strconv.Itoa(section)).Inc()
}

func (m *Metrics) ObserveBackend(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendLatency.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

func (m *Metrics) IncrementBackendRetry(operation string) {
	if m == nil {
		return
	}
	m.BackendRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementSearchCache(scope string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.SearchCache.WithLabelValues(scope, result).Inc()
}

func (m *Metrics) IncrementFollowUpFailure(task string) {
	if m == nil {
		return
	}
	m.FollowUpFailures.WithLabelValues(task).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) SetRecognizerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.RecognizerOpen.Set(1)
		return
	}
	m.RecognizerOpen.Set(0)
}
