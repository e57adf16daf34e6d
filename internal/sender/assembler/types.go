package assembler

import (
	"context"
	"segtransport/pkg/protocol"
	"sync/atomic"
)

// Next hop for segments (produce service relay or broker)
type Forwarder interface {
	Publish(ctx context.Context, segment protocol.Segment) error
}

type Instance struct {
	Namespace     []string
	forwarder     Forwarder
	chunkByteSize int
	Metrics       *MetricStorage
}

type MetricStorage struct {
	TotalMessages     atomic.Uint64 // Total of all messages segmented
	TotalMsgSizeBytes atomic.Uint64 // Total of all payload sizes
	MaxMsgSizeBytes   atomic.Uint64 // Maximum seen payload size
	TotalSegmentCtn   atomic.Uint64 // Total of all segments forwarded
	MaxSegmentCtn     atomic.Uint64 // Maximum seen segment count for a given message
	FailedMessages    atomic.Uint64 // Messages not fully forwarded
}
