package assembler

import (
	"segtransport/internal/metrics"
	"sync/atomic"
	"time"
)

type MetricStorage struct {
	Passes          atomic.Uint64 // completed passes
	Segments        atomic.Uint64 // segments seen in batches
	Completed       atomic.Uint64 // groups reassembled
	Failed          atomic.Uint64 // failure markers emitted
	Dropped         atomic.Uint64 // groups ignored because they were exhausted
	IntegrityFaults atomic.Uint64 // groups aborted for the pass
	SumNs           atomic.Uint64 // sum of pass durations
	MaxNs           atomic.Uint64 // max observed pass duration
}

func (engine *Engine) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	passes := engine.Metrics.Passes.Swap(0)
	sumNs := engine.Metrics.SumNs.Swap(0)
	maxNs := engine.Metrics.MaxNs.Swap(0)

	var avgNs uint64
	if passes > 0 {
		avgNs = sumNs / passes
	}

	recordTime := time.Now()
	add := func(name, description, unit string, t metrics.MetricType, raw uint64) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   engine.Namespace,
			Value:       metrics.MetricValue{Raw: raw, Unit: unit, Interval: interval},
			Type:        t,
			Timestamp:   recordTime,
		})
	}

	add("passes", "Reassembly passes finished in the interval", "count", metrics.Counter, passes)
	add("segments", "Segments received in batches in the interval", "count", metrics.Counter, engine.Metrics.Segments.Swap(0))
	add("completed_groups", "Groups reassembled in the interval", "count", metrics.Counter, engine.Metrics.Completed.Swap(0))
	add("failed_groups", "Failure markers emitted for groups out of retries", "count", metrics.Counter, engine.Metrics.Failed.Swap(0))
	add("dropped_groups", "Batch groups ignored because their group was exhausted", "count", metrics.Counter, engine.Metrics.Dropped.Swap(0))
	add("integrity_faults", "Groups aborted for a pass due to inconsistent segments", "count", metrics.Counter, engine.Metrics.IntegrityFaults.Swap(0))
	add("elapsed_time_sum_ns", "Total time spent in passes in the interval", "ns", metrics.Counter, sumNs)
	add("elapsed_time_avg_ns", "Average pass duration in the interval", "ns", metrics.Summary, avgNs)
	add("elapsed_time_max_ns", "Longest pass in the interval", "ns", metrics.Summary, maxNs)
	return
}
