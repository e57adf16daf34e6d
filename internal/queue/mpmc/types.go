package mpmc

import (
	"sync"
	"sync/atomic"
)

type cell[T any] struct {
	seq  atomic.Uint64
	data T
	size uint64 // byte size recorded by the producer
}

type QueueInst[T any] struct {
	Namespace []string
	Size      int
	mask      uint64
	buf       []cell[T]
	head      atomic.Uint64
	tail      atomic.Uint64
	notEmpty  chan struct{}
	draining  atomic.Bool // Gates producers from writing to this queue
	Metrics   *MetricStorage
}

// Container for split read/write views.
// ActiveWrite is the queue currently accepting writes, ActiveRead the one
// currently serving reads. They differ only while a resize is migrating.
type Queue[T any] struct {
	ActiveWrite atomic.Pointer[QueueInst[T]]
	ActiveRead  atomic.Pointer[QueueInst[T]]
	minimumSize int
	maximumSize int

	samplesMu sync.Mutex
	samples   []uint64 // utilization percent per scaling check since the last resize
}
