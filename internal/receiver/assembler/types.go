package assembler

import (
	"segtransport/internal/receiver/shard"
	"segtransport/pkg/protocol"
	"time"
)

type Engine struct {
	Namespace []string
	cache     *shard.Cache
	retention time.Duration
	now       func() time.Time
	Metrics   *MetricStorage
}

// Outcome counts of one pass
type PassReport struct {
	Segments         int
	Groups           int
	Completed        int
	FromCache        int // completions that needed cached segments
	Cached           int // groups left waiting in the cache
	Dropped          int // groups already out of retries
	IntegrityFaults  int
	Invalidated      int
	EvictedAged      int
	EvictedExhausted int
	Elapsed          time.Duration
}

// Segments of one group within a batch, in arrival order
type group struct {
	key      protocol.GroupKey
	segments []protocol.Segment
}

type groupOutcome int

const (
	outcomeCached groupOutcome = iota
	outcomeCompleted
	outcomeDropped
	outcomeFault
)
