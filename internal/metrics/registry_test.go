package metrics

import (
	"context"
	"segtransport/internal/global"
	"testing"
	"time"
)

func setupRegistry(t *testing.T) (registry *Registry, base time.Time) {
	t.Helper()

	registry = New()
	base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	interval := time.Minute

	for i := 0; i < 3; i++ {
		ts := registry.NewTimeSlice(base.Add(time.Duration(i)*time.Minute+time.Second), interval)
		registry.Add(ts, []Metric{
			{
				Name:        "groups",
				Description: "cached groups",
				Namespace:   []string{"Consume", "Cache"},
				Type:        Gauge,
				Timestamp:   ts,
				Value:       MetricValue{Raw: uint64(i), Unit: "count", Interval: interval},
			},
			{
				Name:        "depth",
				Description: "queue depth",
				Namespace:   []string{"Consume", "Output", "Queue"},
				Type:        Gauge,
				Timestamp:   ts,
				Value:       MetricValue{Raw: uint64(i * 2), Unit: "count", Interval: interval},
			},
		})
	}
	return
}

func TestNewTimeSliceTruncates(t *testing.T) {
	registry := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := registry.NewTimeSlice(base.Add(42*time.Second), time.Minute); !got.Equal(base) {
		t.Fatalf("slice %v, want %v", got, base)
	}
	now := base.Add(3 * time.Second)
	if got := registry.NewTimeSlice(now, 0); !got.Equal(now) {
		t.Fatalf("zero interval should keep time, got %v", got)
	}

	// Add to unknown slice is ignored
	registry.Add(base.Add(time.Hour), []Metric{{Name: "x"}})
	if len(registry.Search("x", nil, time.Time{}, time.Time{})) != 0 {
		t.Fatal("metric added to nonexistent slice")
	}
}

func TestSearch(t *testing.T) {
	registry, base := setupRegistry(t)

	tests := []struct {
		name      string
		metric    string
		namespace []string
		start     time.Time
		end       time.Time
		expect    int
	}{
		{"all", "", nil, time.Time{}, time.Time{}, 6},
		{"by name", "groups", nil, time.Time{}, time.Time{}, 3},
		{"by namespace prefix", "", []string{"Consume", "Output"}, time.Time{}, time.Time{}, 3},
		{"namespace longer than metric", "", []string{"Consume", "Cache", "Extra"}, time.Time{}, time.Time{}, 0},
		{"time window", "groups", nil, base.Add(time.Minute), base.Add(time.Minute), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := registry.Search(tt.metric, tt.namespace, tt.start, tt.end)
			if len(got) != tt.expect {
				t.Fatalf("got %d results, want %d", len(got), tt.expect)
			}
		})
	}

	ordered := registry.Search("groups", nil, time.Time{}, time.Time{})
	for i, metric := range ordered {
		if metric.Value.Raw.(uint64) != uint64(i) {
			t.Fatalf("results not oldest first: %v", ordered)
		}
	}
}

func TestDiscover(t *testing.T) {
	registry, _ := setupRegistry(t)

	all := registry.Discover("", "", nil, "", "")
	if len(all) != 2 {
		t.Fatalf("expected 2 distinct metrics, got %d", len(all))
	}
	if all[0].Name != "depth" || all[1].Name != "groups" {
		t.Fatalf("unexpected order %v", all)
	}
	if all[0].Value.Raw != nil || !all[0].Timestamp.IsZero() {
		t.Fatal("discovery must strip values and timestamps")
	}

	if got := registry.Discover("", "queue", nil, "", Gauge); len(got) != 1 {
		t.Fatalf("description filter returned %d", len(got))
	}
	if got := registry.Discover("", "", nil, "", Counter); len(got) != 0 {
		t.Fatalf("type filter returned %d", len(got))
	}
}

func TestPrune(t *testing.T) {
	registry, base := setupRegistry(t)
	if removed := registry.Prune(base.Add(2*time.Minute), 90*time.Second); removed != 1 {
		t.Fatalf("removed %d slices, want 1", removed)
	}
	if got := registry.Search("groups", nil, time.Time{}, time.Time{}); len(got) != 2 {
		t.Fatalf("expected 2 remaining, got %d", len(got))
	}
}

func TestConvert(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := Metric{
		Name:      "depth",
		Namespace: []string{"Consume", "Queue"},
		Type:      Gauge,
		Timestamp: ts,
		Value:     MetricValue{Raw: uint64(3), Unit: "count", Interval: time.Minute},
	}.Convert()

	if out.Namespace != "Consume/Queue" || out.Value.Raw != "3" || out.Value.Interval != "1m0s" || out.Type != "gauge" {
		t.Fatalf("unexpected conversion %+v", out)
	}
	if out.Timestamp != "2026-01-01T00:00:00Z" {
		t.Fatalf("unexpected timestamp %q", out.Timestamp)
	}
}

func TestGathererCollect(t *testing.T) {
	calls := 0
	collector := CollectorFunc(func(interval time.Duration) []Metric {
		calls++
		return []Metric{{Name: "ticks", Namespace: []string{global.NSTest}, Value: MetricValue{Raw: uint64(calls)}}}
	})
	panicky := CollectorFunc(func(time.Duration) []Metric { panic("boom") })

	gatherer := NewGatherer(func() []Collector { return []Collector{collector, nil} }, time.Minute, time.Hour)
	gatherer.Collect(context.Background(), time.Now())
	if got := gatherer.Registry.Search("ticks", nil, time.Time{}, time.Time{}); len(got) != 1 {
		t.Fatalf("expected collected metric, got %d", len(got))
	}

	// Panics are contained
	broken := NewGatherer(func() []Collector { return []Collector{panicky} }, time.Minute, time.Hour)
	broken.Collect(context.Background(), time.Now())
}
