package listener

import (
	"segtransport/internal/metrics"
	"sync/atomic"
	"time"
)

type MetricStorage struct {
	Batches         atomic.Uint64 // Batches dispatched
	EmptyBatches    atomic.Uint64 // Batches dispatched without segments
	Segments        atomic.Uint64 // Segments collected
	TransportFaults atomic.Uint64 // Records that could not be decoded into segments
	PollErrors      atomic.Uint64 // Failed polls
	Throttled       atomic.Uint64 // Dispatches that waited for a pass slot
	Inflight        atomic.Int64  // Passes currently running
}

func (collector *Collector) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	counter := func(name, description string, source *atomic.Uint64) metrics.Metric {
		return metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   collector.Namespace,
			Value:       metrics.MetricValue{Raw: source.Swap(0), Unit: "count", Interval: interval},
			Type:        metrics.Counter,
			Timestamp:   recordTime,
		}
	}

	inflight := collector.Metrics.Inflight.Load()
	if inflight < 0 {
		inflight = 0
	}

	collection = []metrics.Metric{
		counter("batches", "Batches handed to reassembly", &collector.Metrics.Batches),
		counter("empty_batches", "Batches dispatched with no segments", &collector.Metrics.EmptyBatches),
		counter("segments", "Segments collected from the transport", &collector.Metrics.Segments),
		counter("transport_faults", "Records skipped because they were not valid segments", &collector.Metrics.TransportFaults),
		counter("poll_errors", "Polls that failed", &collector.Metrics.PollErrors),
		counter("throttled_dispatches", "Dispatches that waited for a free pass slot", &collector.Metrics.Throttled),
		{
			Name:        "inflight_passes",
			Description: "Reassembly passes currently running",
			Namespace:   collector.Namespace,
			Value:       metrics.MetricValue{Raw: uint64(inflight), Unit: "count", Interval: interval},
			Type:        metrics.Gauge,
			Timestamp:   recordTime,
		},
	}
	return
}
