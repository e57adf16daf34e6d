package metrics

import (
	"sync"
	"time"
)

type Registry struct {
	mu      sync.RWMutex
	metrics map[time.Time]map[string]map[string]Metric // key0=timestamp, key1=namespace, key2=name
}

type MetricType string

const (
	Counter MetricType = "counter" // reset every interval
	Gauge   MetricType = "gauge"   // can go up/down
	Summary MetricType = "summary" // avg/min/max
)

// Container for a metric and associated data
type Metric struct {
	Name        string // e.g. buffered_bytes, depth
	Description string
	Namespace   []string // e.g. "Consume/Collector"
	Value       MetricValue
	Type        MetricType
	Timestamp   time.Time // time when the metric was recorded
}

// Specific value of a metric
type MetricValue struct {
	Raw      any           // uint64, float64
	Unit     string        // e.g., "ns", "bytes", "count"
	Interval time.Duration // measurement window
}

// JSON version
type JMetric struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Namespace   string       `json:"namespace"`
	Value       JMetricValue `json:"value"`
	Type        string       `json:"type"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type JMetricValue struct {
	Raw      string `json:"raw,omitempty"`
	Unit     string `json:"unit"`
	Interval string `json:"interval,omitempty"`
}

// Anything that can report its metrics for one interval
type Collector interface {
	CollectMetrics(interval time.Duration) []Metric
}

// Adapter for plain functions
type CollectorFunc func(interval time.Duration) []Metric

func (fn CollectorFunc) CollectMetrics(interval time.Duration) []Metric {
	return fn(interval)
}

// Periodically collects from every collector into the registry
type Gatherer struct {
	Interval   time.Duration // Polling interval to gather metrics at
	Retention  time.Duration // Maximum time to maintain metrics for
	Registry   *Registry
	collectors func() []Collector
}
