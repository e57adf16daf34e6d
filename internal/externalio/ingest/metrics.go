package ingest

import (
	"segtransport/internal/metrics"
	"sync/atomic"
	"time"
)

func (server *Server) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()
	counter := func(name, description, unit string, source *atomic.Uint64) metrics.Metric {
		return metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   server.Namespace,
			Value:       metrics.MetricValue{Raw: source.Swap(0), Unit: unit, Interval: interval},
			Type:        metrics.Counter,
			Timestamp:   recordTime,
		}
	}

	collection = []metrics.Metric{
		counter("accepted_requests", "Requests handled successfully", "count", &server.Metrics.Accepted),
		counter("malformed_requests", "Requests with undecodable bodies", "count", &server.Metrics.Malformed),
		counter("failed_requests", "Requests answered with an error", "count", &server.Metrics.Failed),
		counter("request_bytes", "Request body bytes read", "bytes", &server.Metrics.Bytes),
	}
	return
}
