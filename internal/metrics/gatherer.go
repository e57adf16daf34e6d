package metrics

import (
	"context"
	"runtime/debug"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"time"
)

// collectors is called every interval so instances created later are included
func NewGatherer(collectors func() []Collector, interval time.Duration, maximumMetricAge time.Duration) (new *Gatherer) {
	new = &Gatherer{
		Registry:   New(),
		Interval:   interval,
		Retention:  maximumMetricAge,
		collectors: collectors,
	}
	return
}

func (gatherer *Gatherer) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSMetric)

	ticker := time.NewTicker(gatherer.Interval)
	defer ticker.Stop()

	var tickCount int
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			gatherer.Collect(ctx, now)

			// Old metric cleanup
			tickCount++
			if tickCount >= 30 {
				gatherer.Registry.Prune(now, gatherer.Retention)
				tickCount = 0
			}
		}
	}
}

// Runs one collection round into the slice for now
func (gatherer *Gatherer) Collect(ctx context.Context, now time.Time) {
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in metric collector thread: %v\n%s", fatalError, stack)
		}
	}()

	timeSlice := gatherer.Registry.NewTimeSlice(now, gatherer.Interval)
	for _, collector := range gatherer.collectors() {
		if collector == nil {
			continue
		}
		gatherer.Registry.Add(timeSlice, collector.CollectMetrics(gatherer.Interval))
	}
}
