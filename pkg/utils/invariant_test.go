package utils

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestRaiseInvariant(t *testing.T) {
	invariantsMetric.Reset() // Reset the metric to ensure a clean state for the test
	RaiseInvariant("invariant", "test", "This is a test invariant violation")
	RaiseInvariant("invariant", "test", "This is another test invariant violation", "attempt", 2)
	assert.Equal(t, 2, GetMetricValue("invariant" /*module*/, "test" /*invariantType*/))
	assert.Zero(t, GetMetricValue("invariant" /*module*/, "other" /*invariantType*/))
}

func TestMetricValues(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter_total", Help: "Test counter."})
	counter.Add(3)
	assert.Equal(t, 3.0, CounterValue(counter))

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "Test gauge."})
	gauge.Set(7)
	gauge.Dec()
	assert.Equal(t, 6.0, GaugeValue(gauge))
}
