package shard

import (
	"errors"
	"segtransport/pkg/protocol"
	"sync"
	"time"
)

var (
	// Segment disagrees with the stored shape of its group
	ErrIntegrity = errors.New("integrity fault")
	// Buffered bytes would exceed the configured share of free memory
	ErrCacheFull = errors.New("reassembly cache full")
)

// What Settle did with a batch's view of a group
type Resolution int

const (
	Stored    Resolution = iota // incomplete, batch segments buffered
	Completed                   // batch plus cache cover every segment, record removed
	Exhausted                   // group has no passes left, batch ignored
)

// Partial state for one group
type Record struct {
	segments  map[uint64]protocol.Segment // keyed by segment number
	bitmap    []bool                      // length fixed from the first segment seen
	retry     int                         // passes this group stayed incomplete
	createdAt time.Time                   // taken from the group key when parseable
	notified  bool                        // failure already handed out by DrainInvalidated
	bytes     int
}

type Cache struct {
	Namespace []string
	mu        sync.RWMutex
	records   map[protocol.GroupKey]*Record
	maxRetry  int
	memoryPct int    // share of free system memory usable for buffering (0 disables)
	byteLimit uint64 // derived from memoryPct, refreshed every pass
	Metrics   *MetricStorage
}
