package listener

import (
	"context"
	"segtransport/pkg/protocol"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Transport the collector pulls segments from. Poll returns what arrived
// within timeout; an empty result with a nil error means nothing arrived.
type Source interface {
	Poll(ctx context.Context, timeout time.Duration) ([]protocol.Segment, error)
}

// Receives one batch per collection window
type Handler func(ctx context.Context, batch []protocol.Segment)

type Collector struct {
	Namespace   []string
	source      Source
	handler     Handler
	window      time.Duration
	pollTimeout time.Duration
	inflight    *semaphore.Weighted // nil when passes are unbounded
	passes      sync.WaitGroup
	Metrics     *MetricStorage
}
