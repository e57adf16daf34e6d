package output

import (
	"context"
	"segtransport/internal/queue/mpmc"
	"segtransport/pkg/protocol"
	"sync/atomic"
)

// Destination of delivery bodies (HTTP relay)
type Deliverer interface {
	Post(ctx context.Context, body any) error
}

// Secondary destination written alongside delivery (beats, journald, file)
type Sink interface {
	Name() string
	Write(ctx context.Context, msg protocol.Message, text string) (int, error)
}

type Instance struct {
	Namespace []string
	Inbox     *mpmc.Queue[protocol.Message]
	relay     Deliverer
	sinks     []Sink
	encoding  string
	pending   *atomic.Uint64 // Messages queued or in delivery, shared by all workers
	Metrics   *MetricStorage
}

type MetricStorage struct {
	Received       atomic.Uint64
	Delivered      atomic.Uint64
	FailedDelivery atomic.Uint64
	FailureMarkers atomic.Uint64
	DecodeErrors   atomic.Uint64
	SinkWrites     atomic.Uint64
	SinkErrors     atomic.Uint64
}
