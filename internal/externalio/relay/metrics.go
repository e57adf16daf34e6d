package relay

import (
	"segtransport/internal/metrics"
	"sync/atomic"
	"time"
)

func (client *Client) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()
	counter := func(name, description, unit string, source *atomic.Uint64) metrics.Metric {
		return metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   client.Namespace,
			Value:       metrics.MetricValue{Raw: source.Swap(0), Unit: unit, Interval: interval},
			Type:        metrics.Counter,
			Timestamp:   recordTime,
		}
	}

	collection = []metrics.Metric{
		counter("posts", "Requests accepted by "+client.target, "count", &client.Metrics.Requests),
		counter("post_failures", "Requests that failed or were rejected", "count", &client.Metrics.Failures),
		counter("post_bytes", "Request body bytes sent", "bytes", &client.Metrics.Bytes),
	}
	return
}
