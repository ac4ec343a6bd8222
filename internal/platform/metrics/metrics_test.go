package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.IncrementRegistration("man", "success")
	m.IncrementRegistration("man", "success")
	m.IncrementValidationFailure("child", 2)
	m.IncrementSearchCache("adults", true)
	m.IncrementSearchCache("adults", false)
	m.SetRecognizerOpen(true)
	m.ObserveBackend("register", "ok", 120*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Registrations.WithLabelValues("man", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("child", "2")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SearchCache.WithLabelValues("adults", "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RecognizerOpen), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementRegistration("man", "success")
		m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
		m.SetRecognizerOpen(false)
	})
}
