package output

import (
	"segtransport/internal/metrics"
	"sync/atomic"
	"time"
)

func (instance *Instance) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()
	counter := func(name, description string, source *atomic.Uint64) metrics.Metric {
		return metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   instance.Namespace,
			Value:       metrics.MetricValue{Raw: source.Swap(0), Unit: "count", Interval: interval},
			Type:        metrics.Counter,
			Timestamp:   recordTime,
		}
	}

	collection = []metrics.Metric{
		counter("received_messages", "Messages taken from the output queue", &instance.Metrics.Received),
		counter("delivered_messages", "Messages accepted by the receiving service", &instance.Metrics.Delivered),
		counter("failed_deliveries", "Messages the receiving service did not accept", &instance.Metrics.FailedDelivery),
		counter("failure_markers", "Failure notifications for groups that never completed", &instance.Metrics.FailureMarkers),
		counter("decode_errors", "Payloads that did not decode with the configured encoding", &instance.Metrics.DecodeErrors),
		counter("success_sink_writes", "Entries written to beats, journald and file outputs", &instance.Metrics.SinkWrites),
		counter("failed_sink_writes", "Failed writes to beats, journald and file outputs", &instance.Metrics.SinkErrors),
	}
	return
}
