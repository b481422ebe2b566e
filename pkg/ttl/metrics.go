package ttl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ttl_cache_lookups_total",
		Help: "Total number of ttl cache lookups.",
	}, []string{"cache", "status" /* hit | miss | expired */})
	insertsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ttl_cache_inserts_total",
		Help: "Total number of ttl cache inserts, overwrites included.",
	}, []string{"cache"})
	reapedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ttl_cache_reaped_entries_total",
		Help: "Total number of expired entries removed by the reaper.",
	}, []string{"cache"})
	sweepsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ttl_cache_sweeps_total",
		Help: "Total number of reaper sweeps.",
	}, []string{"cache", "result" /* completed | skipped */})
	mapResetsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ttl_cache_map_resets_total",
		Help: "Total number of times a cache dropped all entries after a panic under its lock.",
	}, []string{"cache"})
	entriesMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ttl_cache_entries",
		Help: "Number of entries held by the cache, expired but not yet reaped entries included.",
	}, []string{"cache"})
)

// storeMetrics caches the labelled series of one store so hot paths skip the label lookup.
type storeMetrics struct {
	hits, misses, expired          prometheus.Counter
	inserts, reaped, mapResets     prometheus.Counter
	sweepsCompleted, sweepsSkipped prometheus.Counter
	entries                        prometheus.Gauge
}

func newStoreMetrics(name string) storeMetrics {
	return storeMetrics{
		hits:            lookupsMetric.WithLabelValues(name, "hit"),
		misses:          lookupsMetric.WithLabelValues(name, "miss"),
		expired:         lookupsMetric.WithLabelValues(name, "expired"),
		inserts:         insertsMetric.WithLabelValues(name),
		reaped:          reapedMetric.WithLabelValues(name),
		mapResets:       mapResetsMetric.WithLabelValues(name),
		sweepsCompleted: sweepsMetric.WithLabelValues(name, "completed"),
		sweepsSkipped:   sweepsMetric.WithLabelValues(name, "skipped"),
		entries:         entriesMetric.WithLabelValues(name),
	}
}
