package server

import (
	"context"
	"net/http"
	"segtransport/internal/metrics"
	"time"
)

// Handles metric search requests based on time for data
func handleData(baseCtx context.Context, search DataSearcher, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	now := time.Now()

	start, ok := parseStart(clientRequest.FormValue("starttime"), now)
	if !ok {
		serverResponder.WriteHeader(http.StatusBadRequest)
		return
	}
	end, ok := parseEnd(clientRequest.FormValue("endtime"), now)
	if !ok {
		serverResponder.WriteHeader(http.StatusBadRequest)
		return
	}

	rawResults := search(clientRequest.FormValue("name"), pathNamespace(clientRequest), start, end)
	respondMetrics(baseCtx, serverResponder, rawResults)
}

// Absolute RFC3339 or relative (-5m) start. Unparseable relative values fall back to one minute ago.
func parseStart(raw string, now time.Time) (start time.Time, ok bool) {
	ok = true
	start = now.Add(-time.Minute)
	switch {
	case raw == "":
	case raw[0] == '-' || raw[0] == '+':
		if dur, err := time.ParseDuration(raw); err == nil {
			start = now.Add(dur)
		}
	default:
		var err error
		start, err = time.Parse(time.RFC3339Nano, raw)
		ok = err == nil
	}
	return
}

func parseEnd(raw string, now time.Time) (end time.Time, ok bool) {
	ok = true
	end = now
	if raw == "" || raw == "now" {
		return
	}
	var err error
	end, err = time.Parse(time.RFC3339Nano, raw)
	ok = err == nil
	return
}

func respondMetrics(ctx context.Context, serverResponder http.ResponseWriter, rawResults []metrics.Metric) {
	if len(rawResults) == 0 {
		jResp(ctx, serverResponder, Jerror{Msg: "Search returned no results"})
		return
	}

	results := make([]metrics.JMetric, 0, len(rawResults))
	for _, rawResult := range rawResults {
		results = append(results, rawResult.Convert())
	}
	jResp(ctx, serverResponder, results)
}
