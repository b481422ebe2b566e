package memoize

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var callsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "memoize_calls_total",
	Help: "Total number of calls to memoized functions.",
}, []string{"func", "result" /* hit | miss | error | uncached */})

type callMetrics struct {
	hits, misses, errors, uncached prometheus.Counter
}

func newCallMetrics(name string) callMetrics {
	return callMetrics{
		hits:     callsMetric.WithLabelValues(name, "hit"),
		misses:   callsMetric.WithLabelValues(name, "miss"),
		errors:   callsMetric.WithLabelValues(name, "error"),
		uncached: callsMetric.WithLabelValues(name, "uncached"),
	}
}
