package kafka

import (
	"segtransport/internal/metrics"
	"sync/atomic"
	"time"
)

func (producer *Producer) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	collection = producer.Metrics.collect(producer.Namespace, interval, "published")
	return
}

func (consumer *Consumer) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	collection = consumer.Metrics.collect(consumer.Namespace, interval, "consumed")
	collection = append(collection, metrics.Metric{
		Name:        "decode_errors",
		Description: "Records that could not be decoded into segments",
		Namespace:   consumer.Namespace,
		Value:       metrics.MetricValue{Raw: consumer.Metrics.DecodeErrors.Swap(0), Unit: "count", Interval: interval},
		Type:        metrics.Counter,
		Timestamp:   time.Now(),
	})
	return
}

func (storage *MetricStorage) collect(namespace []string, interval time.Duration, verb string) (collection []metrics.Metric) {
	recordTime := time.Now()
	counter := func(name, description, unit string, source *atomic.Uint64) metrics.Metric {
		return metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   namespace,
			Value:       metrics.MetricValue{Raw: source.Swap(0), Unit: unit, Interval: interval},
			Type:        metrics.Counter,
			Timestamp:   recordTime,
		}
	}

	collection = []metrics.Metric{
		counter(verb+"_records", "Broker records "+verb+" in the interval", "count", &storage.Records),
		counter(verb+"_bytes", "Segment bytes "+verb+" in the interval", "bytes", &storage.Bytes),
		counter("broker_errors", "Failed broker operations", "count", &storage.Errors),
	}
	return
}
