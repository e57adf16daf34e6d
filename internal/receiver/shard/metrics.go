package shard

import (
	"segtransport/internal/metrics"
	"sync/atomic"
	"time"
)

type MetricStorage struct {
	Bytes            atomic.Uint64 // Current buffered segment bytes
	Records          atomic.Uint64 // Current number of live groups
	MergeCount       atomic.Uint64 // Segments merged (or attempted) in the interval
	Duplicates       atomic.Uint64 // Segments already present when merged
	IntegrityFaults  atomic.Uint64 // Segments or bitmaps disagreeing with their group shape
	RejectedFull     atomic.Uint64 // New groups refused by the memory guard
	Completions      atomic.Uint64 // Groups completed from cached segments
	Invalidated      atomic.Uint64 // Groups handed out for failure notification
	EvictedAged      atomic.Uint64 // Groups removed for exceeding retention
	EvictedExhausted atomic.Uint64 // Groups removed for running out of retries
	SilentEvictions  atomic.Uint64 // Aged out without a failure notification
}

func (cache *Cache) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	gauge := func(name, description, unit string, value uint64) metrics.Metric {
		return metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   cache.Namespace,
			Value:       metrics.MetricValue{Raw: value, Unit: unit, Interval: interval},
			Type:        metrics.Gauge,
			Timestamp:   recordTime,
		}
	}
	counter := func(name, description string, source *atomic.Uint64) metrics.Metric {
		return metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   cache.Namespace,
			Value:       metrics.MetricValue{Raw: source.Swap(0), Unit: "count", Interval: interval},
			Type:        metrics.Counter,
			Timestamp:   recordTime,
		}
	}

	collection = []metrics.Metric{
		gauge("buffered_bytes", "Bytes held by incomplete groups", "bytes", cache.Metrics.Bytes.Load()),
		gauge("groups", "Incomplete groups currently cached", "count", cache.Metrics.Records.Load()),
		counter("merge_ctn", "Segments merged into the cache in the interval", &cache.Metrics.MergeCount),
		counter("duplicate_segments", "Segments that were already cached", &cache.Metrics.Duplicates),
		counter("integrity_faults", "Segments rejected for disagreeing with their group", &cache.Metrics.IntegrityFaults),
		counter("rejected_full", "New groups refused because the cache hit its memory budget", &cache.Metrics.RejectedFull),
		counter("cache_completions", "Groups completed using cached segments", &cache.Metrics.Completions),
		counter("invalidated_groups", "Groups reported as failed on their last pass", &cache.Metrics.Invalidated),
		counter("evicted_aged", "Groups removed after the retention window", &cache.Metrics.EvictedAged),
		counter("evicted_exhausted", "Groups removed after reaching the retry maximum", &cache.Metrics.EvictedExhausted),
		counter("silent_evictions", "Groups aged out without a failure notification", &cache.Metrics.SilentEvictions),
	}
	return
}
