package mpmc

import (
	"segtransport/internal/metrics"
	"sync/atomic"
	"time"
)

type MetricStorage struct {
	Depth atomic.Uint64 // Current items in queue
	Bytes atomic.Uint64 // Current byte size in queue (just data)

	PushAttempts   atomic.Uint64 // every Push call
	PushSuccess    atomic.Uint64 // CAS success
	PushCASRetries atomic.Uint64 // CAS failed (seq==pos but CAS failed)
	PushFull       atomic.Uint64 // rejected, queue full

	PopAttempts   atomic.Uint64 // every Pop loop iteration
	PopSuccess    atomic.Uint64 // CAS success
	PopCASRetries atomic.Uint64 // CAS failed
	PopEmpty      atomic.Uint64 // waits on an empty queue
}

func (container *Queue[T]) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	queues := []*QueueInst[T]{container.ActiveWrite.Load()}
	if readQueue := container.ActiveRead.Load(); readQueue != queues[0] {
		queues = append(queues, readQueue)
	}

	var agg struct {
		depth, bytes                              uint64
		pushAttempts, pushSuccess, pushCAS, full  uint64
		popAttempts, popSuccess, popCAS, popEmpty uint64
	}
	for _, q := range queues {
		agg.depth += q.Metrics.Depth.Load()
		agg.bytes += q.Metrics.Bytes.Load()
		agg.pushAttempts += q.Metrics.PushAttempts.Swap(0)
		agg.pushSuccess += q.Metrics.PushSuccess.Swap(0)
		agg.pushCAS += q.Metrics.PushCASRetries.Swap(0)
		agg.full += q.Metrics.PushFull.Swap(0)
		agg.popAttempts += q.Metrics.PopAttempts.Swap(0)
		agg.popSuccess += q.Metrics.PopSuccess.Swap(0)
		agg.popCAS += q.Metrics.PopCASRetries.Swap(0)
		agg.popEmpty += q.Metrics.PopEmpty.Swap(0)
	}

	recordTime := time.Now()
	add := func(name string, raw uint64, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   queues[0].Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	add("depth", agg.depth, "count", metrics.Gauge, "Current number of items in the queue")
	add("byte_sum", agg.bytes, "bytes", metrics.Gauge, "Byte sum of all items in the queue")
	add("capacity", uint64(queues[0].Size), "count", metrics.Gauge, "Capacity of the queue accepting writes")
	add("push_attempts", agg.pushAttempts, "count", metrics.Counter, "Total push attempts in the interval")
	add("push_success", agg.pushSuccess, "count", metrics.Counter, "Total push attempts that succeeded in the interval")
	add("push_cas_retries", agg.pushCAS, "count", metrics.Counter, "Sum of retries to push in the interval")
	add("push_full", agg.full, "count", metrics.Counter, "Pushes rejected because the queue was full")
	add("pop_attempts", agg.popAttempts, "count", metrics.Counter, "Total pop attempts in the interval")
	add("pop_success", agg.popSuccess, "count", metrics.Counter, "Total pop attempts that succeeded in the interval")
	add("pop_cas_retries", agg.popCAS, "count", metrics.Counter, "Sum of retries to pop in the interval")
	add("pop_empty", agg.popEmpty, "count", metrics.Counter, "Pops that waited on an empty queue")
	return
}
