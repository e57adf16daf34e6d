package assembler

import (
	"segtransport/internal/metrics"
	"time"
)

func (instance *Instance) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	// Read and clear
	totalMsgs := instance.Metrics.TotalMessages.Swap(0)
	totalMsgSize := instance.Metrics.TotalMsgSizeBytes.Swap(0)
	maxMsgSize := instance.Metrics.MaxMsgSizeBytes.Swap(0)
	totalSegments := instance.Metrics.TotalSegmentCtn.Swap(0)
	maxSegments := instance.Metrics.MaxSegmentCtn.Swap(0)
	failed := instance.Metrics.FailedMessages.Swap(0)

	var avgMsgSize, avgSegments uint64
	if totalMsgs > 0 {
		avgMsgSize = totalMsgSize / totalMsgs
		avgSegments = totalSegments / totalMsgs
	}

	recordTime := time.Now()
	add := func(name, description, unit string, t metrics.MetricType, raw uint64) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   instance.Namespace,
			Value:       metrics.MetricValue{Raw: raw, Unit: unit, Interval: interval},
			Type:        t,
			Timestamp:   recordTime,
		})
	}

	add("total_messages", "Messages segmented in the interval", "count", metrics.Counter, totalMsgs)
	add("failed_messages", "Messages that were not fully forwarded", "count", metrics.Counter, failed)
	add("total_segments", "Segments forwarded in the interval", "count", metrics.Counter, totalSegments)
	add("avg_message_size", "Average payload size", "bytes", metrics.Summary, avgMsgSize)
	add("max_message_size", "Largest payload seen", "bytes", metrics.Summary, maxMsgSize)
	add("avg_segment_count", "Average segments per message", "count", metrics.Summary, avgSegments)
	add("max_segment_count", "Most segments produced for one message", "count", metrics.Summary, maxSegments)
	return
}
