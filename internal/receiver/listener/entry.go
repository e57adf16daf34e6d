// Pulls segments from the transport and cuts them into time-windowed batches
package listener

import (
	"context"
	"errors"
	"runtime/debug"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"segtransport/pkg/protocol"
	"time"

	"golang.org/x/sync/semaphore"
)

// maxInflight of 0 leaves concurrent passes unbounded
func New(namespace []string, source Source, handler Handler, window time.Duration, pollTimeout time.Duration, maxInflight int) (new *Collector) {
	if window <= 0 {
		window = global.DefaultCollectWindow
	}
	if pollTimeout <= 0 {
		pollTimeout = global.DefaultPollTimeout
	}

	new = &Collector{
		Namespace:   append(append([]string(nil), namespace...), global.NSListen),
		source:      source,
		handler:     handler,
		window:      window,
		pollTimeout: pollTimeout,
		Metrics:     &MetricStorage{},
	}
	if maxInflight > 0 {
		new.inflight = semaphore.NewWeighted(int64(maxInflight))
	}
	return
}

// Collects and dispatches batches until ctx is cancelled. The batch being
// collected at cancellation is still dispatched.
func (collector *Collector) Run(ctx context.Context) {
	for {
		batch := collector.Collect(ctx)
		collector.dispatch(ctx, batch)

		if ctx.Err() != nil {
			return
		}
	}
}

// Accumulates segments for one window. Returns early only on cancellation.
func (collector *Collector) Collect(ctx context.Context) (batch []protocol.Segment) {
	deadline := time.Now().Add(collector.window)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 || ctx.Err() != nil {
			return
		}

		timeout := min(collector.pollTimeout, remaining)
		segments, err := collector.poll(ctx, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			if errors.Is(err, protocol.ErrTransport) {
				collector.Metrics.TransportFaults.Add(1)
				logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
					"Skipping undecodable record: %v\n", err)
				continue
			}

			collector.Metrics.PollErrors.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"Failed polling transport: %v\n", err)

			// Transport is unhealthy, wait out the poll slot instead of spinning
			select {
			case <-ctx.Done():
				return
			case <-time.After(timeout):
			}
			continue
		}

		batch = append(batch, segments...)
	}
}

func (collector *Collector) poll(ctx context.Context, timeout time.Duration) (segments []protocol.Segment, err error) {
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic while polling transport: %v\n%s", fatalError, stack)
			segments = nil
			err = nil
		}
	}()

	segments, err = collector.source.Poll(ctx, timeout)
	return
}

// Hands batch to a new pass goroutine, waiting for a slot when passes are bounded
func (collector *Collector) dispatch(ctx context.Context, batch []protocol.Segment) {
	collector.Metrics.Batches.Add(1)
	collector.Metrics.Segments.Add(uint64(len(batch)))
	if len(batch) == 0 {
		collector.Metrics.EmptyBatches.Add(1)
	}

	logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
		"Dispatching batch of %d segments\n", len(batch))

	acquired := collector.acquire(ctx)

	collector.passes.Add(1)
	collector.Metrics.Inflight.Add(1)
	go func() {
		defer func() {
			if fatalError := recover(); fatalError != nil {
				stack := debug.Stack()
				logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
					"panic in reassembly pass: %v\n%s", fatalError, stack)
			}
			collector.Metrics.Inflight.Add(-1)
			if acquired {
				collector.inflight.Release(1)
			}
			collector.passes.Done()
		}()

		collector.handler(ctx, batch)
	}()
}

// Reports whether a slot was taken. On cancellation the pass runs without one.
func (collector *Collector) acquire(ctx context.Context) (acquired bool) {
	if collector.inflight == nil {
		return
	}
	if collector.inflight.TryAcquire(1) {
		acquired = true
		return
	}

	collector.Metrics.Throttled.Add(1)
	logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
		"All reassembly pass slots busy, waiting before dispatch\n")

	err := collector.inflight.Acquire(ctx, 1)
	acquired = err == nil
	return
}

// Blocks until dispatched passes finish or timeout elapses
func (collector *Collector) Wait(timeout time.Duration) (finished bool) {
	done := make(chan struct{})
	go func() {
		collector.passes.Wait()
		close(done)
	}()

	select {
	case <-done:
		finished = true
	case <-time.After(timeout):
	}
	return
}
