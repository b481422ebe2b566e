package utils

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	promclient "github.com/prometheus/client_model/go"
)

// CounterValue reads the current value of a single counter series.
func CounterValue(counter prometheus.Counter) float64 {
	var metric = &promclient.Metric{}
	if err := counter.Write(metric); err != nil {
		slog.Error("Failed to read counter.", "error", err)
		return 0
	}
	return metric.GetCounter().GetValue()
}

// GaugeValue reads the current value of a single gauge series.
func GaugeValue(gauge prometheus.Gauge) float64 {
	var metric = &promclient.Metric{}
	if err := gauge.Write(metric); err != nil {
		slog.Error("Failed to read gauge.", "error", err)
		return 0
	}
	return metric.GetGauge().GetValue()
}
