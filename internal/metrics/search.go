package metrics

import (
	"slices"
	"strings"
	"time"
)

// Supports exact match or prefix match. Empty query matches all.
func matchesNamespace(metricNS, queryNS []string) (matches bool) {
	if len(metricNS) < len(queryNS) {
		return
	}
	for i := range queryNS {
		if metricNS[i] != queryNS[i] {
			return
		}
	}
	matches = true
	return
}

// Returns metrics matching name (empty = all) under namespacePrefix,
// oldest slice first. Zero start/end leave that side of the window open.
func (registry *Registry) Search(name string, namespacePrefix []string, start, end time.Time) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	var timestamps []time.Time
	for ts := range registry.metrics {
		if !start.IsZero() && ts.Before(start) {
			continue
		}
		if !end.IsZero() && ts.After(end) {
			continue
		}
		timestamps = append(timestamps, ts)
	}
	slices.SortFunc(timestamps, func(a, b time.Time) int { return a.Compare(b) })

	for _, ts := range timestamps {
		for nsStr, metricsMap := range registry.metrics[ts] {
			if !matchesNamespace(strings.Split(nsStr, "/"), namespacePrefix) {
				continue
			}
			for metricName, metric := range metricsMap {
				if name == "" || metricName == name {
					results = append(results, metric)
				}
			}
		}
	}
	return
}

// Lists distinct metric kinds matching the filters, without values or timestamps
func (registry *Registry) Discover(name, description string, namespacePrefix []string, unit string, metricType MetricType) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	seen := make(map[string]Metric)
	for _, nsMap := range registry.metrics {
		for nsStr, metricsMap := range nsMap {
			if !matchesNamespace(strings.Split(nsStr, "/"), namespacePrefix) {
				continue
			}

			for _, metric := range metricsMap {
				switch {
				case name != "" && !strings.Contains(metric.Name, name),
					description != "" && !strings.Contains(metric.Description, description),
					unit != "" && metric.Value.Unit != unit,
					metricType != "" && metric.Type != metricType:
					continue
				}

				key := nsStr + "|" + metric.Name + "|" + string(metric.Type) + "|" + metric.Value.Unit
				if _, exists := seen[key]; exists {
					continue
				}
				seen[key] = Metric{
					Name:        metric.Name,
					Description: metric.Description,
					Namespace:   metric.Namespace,
					Type:        metric.Type,
					Value:       MetricValue{Unit: metric.Value.Unit},
				}
			}
		}
	}

	results = make([]Metric, 0, len(seen))
	for _, metric := range seen {
		results = append(results, metric)
	}
	slices.SortFunc(results, func(a, b Metric) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(strings.Join(a.Namespace, "/"), strings.Join(b.Namespace, "/"))
	})
	return
}
