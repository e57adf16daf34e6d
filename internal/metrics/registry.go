// Central registry for storing time-sliced metrics and their associated data
package metrics

import (
	"fmt"
	"strings"
	"time"
)

// Creates new metric registry storage
func New() (new *Registry) {
	new = &Registry{
		metrics: make(map[time.Time]map[string]map[string]Metric),
	}
	return
}

// Setup metrics map for the interval containing now
func (registry *Registry) NewTimeSlice(now time.Time, interval time.Duration) (timeSlice time.Time) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	timeSlice = now
	if interval > 0 {
		timeSlice = now.Truncate(interval)
	}
	if registry.metrics[timeSlice] == nil {
		registry.metrics[timeSlice] = make(map[string]map[string]Metric)
	}
	return
}

// Adds batch of metrics to an existing time slice
func (registry *Registry) Add(timeSlice time.Time, batch []Metric) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	slice := registry.metrics[timeSlice]
	if slice == nil {
		return
	}

	for _, metric := range batch {
		namespace := strings.Join(metric.Namespace, "/")
		if slice[namespace] == nil {
			slice[namespace] = make(map[string]Metric)
		}
		slice[namespace][metric.Name] = metric
	}
}

// Deletes time slices older than maxAge relative to currentTime
func (registry *Registry) Prune(currentTime time.Time, maxAge time.Duration) (removed int) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	for timeSlice := range registry.metrics {
		if currentTime.Sub(timeSlice) > maxAge {
			delete(registry.metrics, timeSlice)
			removed++
		}
	}
	return
}

// Converts internal metric type to export (JSON) metric
func (inMetric Metric) Convert() (outMetric JMetric) {
	outMetric = JMetric{
		Name:        inMetric.Name,
		Description: inMetric.Description,
		Namespace:   strings.Join(inMetric.Namespace, "/"),
		Type:        string(inMetric.Type),
		Value: JMetricValue{
			Unit: inMetric.Value.Unit,
		},
	}
	if !inMetric.Timestamp.IsZero() {
		outMetric.Timestamp = inMetric.Timestamp.Format(time.RFC3339Nano)
	}
	if inMetric.Value.Raw != nil {
		outMetric.Value.Raw = fmt.Sprintf("%v", inMetric.Value.Raw)
	}
	if inMetric.Value.Interval > 0 {
		outMetric.Value.Interval = inMetric.Value.Interval.String()
	}
	return
}
