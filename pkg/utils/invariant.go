// Package utils holds the small pieces every other package leans on: logging setup, build info, invariants and
// metric helpers.
//
// Invariants are conditions in code that must be true; otherwise, there is a bug in code.
// Think of what you'd `panic()` on, but you don't want to take the process down because of it. A cache is an
// optional-correctness structure: losing cached entries is acceptable, crashing every caller is not. If an invariant
// is violated, a log error is recorded and a monitoring counter is incremented that will trigger an alert.
// It is still up to the caller to handle the erroneous case, e.g. clamp the value or do an early return.
//
// Do not use invariants for conditions that depend on external factors; a memoized function returning an error is not
// an invariant violation. A non-positive TTL handed to a cache constructor is.

package utils

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var invariantsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "invariants_total",
	Help: "The total number of invariant violations",
}, []string{
	"module", // The module in which this invariant occurred.
	"type",   // The type of the invariant that occurred.
})

// RaiseInvariant records a violated invariant. It only panics in test-mode builds.
func RaiseInvariant(module, invariantType, msg string, args ...any) {
	invariantsMetric.WithLabelValues(module, invariantType).Inc()
	slog.With("invariant", invariantType, "module", module).Error(msg, args...)
	if IsTestMode {
		panic("invariant violated: " + invariantType)
	}
}

// GetMetricValue returns the current value of invariant metric with labels `module` and `invariantType`.
func GetMetricValue(module, invariantType string) int {
	return int(CounterValue(invariantsMetric.WithLabelValues(module, invariantType)))
}
