package server

import (
	"context"
	"net/http"
	"segtransport/internal/metrics"
	"strings"
)

// Handles metric discovery (sample metric per kind, no data)
func handleDiscovery(baseCtx context.Context, discover Discoverer, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	rawType := clientRequest.FormValue("type")

	var reqType metrics.MetricType
	switch metrics.MetricType(strings.ToLower(rawType)) {
	case metrics.Counter:
		reqType = metrics.Counter
	case metrics.Gauge:
		reqType = metrics.Gauge
	case metrics.Summary:
		reqType = metrics.Summary
	default:
		// Empty is valid
		if rawType != "" {
			serverResponder.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	rawResults := discover(
		clientRequest.FormValue("name"),
		clientRequest.FormValue("description"),
		pathNamespace(clientRequest),
		clientRequest.FormValue("unit"),
		reqType,
	)
	respondMetrics(baseCtx, serverResponder, rawResults)
}
