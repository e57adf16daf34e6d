// Reassembles segment groups from a batch plus cached state from earlier passes
package assembler

import (
	"context"
	"fmt"
	"runtime/debug"
	"segtransport/internal/atomics"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"segtransport/internal/receiver/shard"
	"segtransport/pkg/protocol"
	"time"
)

func New(namespace []string, cache *shard.Cache, retention time.Duration) (new *Engine) {
	new = &Engine{
		Namespace: append(append([]string(nil), namespace...), global.NSAssm),
		cache:     cache,
		retention: retention,
		now:       time.Now,
		Metrics:   &MetricStorage{},
	}
	return
}

// Runs one pass over batch. Successful messages come first, followed by
// failure markers for groups on their final pass. Faults stay local to their group.
func (engine *Engine) Process(ctx context.Context, batch []protocol.Segment) (messages []protocol.Message, report PassReport) {
	ctx = logctx.AppendCtxTag(ctx, global.NSPass)
	start := time.Now()

	groups := partition(batch)
	report.Segments = len(batch)
	report.Groups = len(groups)

	for _, grp := range groups {
		msg, outcome, fromCache := engine.processGroup(ctx, grp)
		switch outcome {
		case outcomeCompleted:
			report.Completed++
			if fromCache {
				report.FromCache++
			}
			messages = append(messages, msg)
		case outcomeCached:
			report.Cached++
		case outcomeDropped:
			report.Dropped++
		case outcomeFault:
			report.IntegrityFaults++
		}
	}

	// Aging happens once per pass, after the failure drain
	for _, key := range engine.cache.DrainInvalidated() {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
			"Group %s did not complete within retry limit\n", key)
		messages = append(messages, protocol.Message{
			HasError: true,
			Sender:   key.Sender,
			SendTime: key.SendTime,
		})
		report.Invalidated++
	}
	engine.cache.AdvanceAge()
	report.EvictedAged, report.EvictedExhausted = engine.cache.Evict(engine.now(), engine.retention)

	report.Elapsed = time.Since(start)
	engine.record(report)

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Pass finished: %d segments, %d groups, %d completed, %d cached, %d dropped, %d faults, %d failed, %d evicted\n",
		report.Segments, report.Groups, report.Completed, report.Cached, report.Dropped,
		report.IntegrityFaults, report.Invalidated, report.EvictedAged+report.EvictedExhausted)
	return
}

// Handles one group. Panics are converted into a fault for this group only.
func (engine *Engine) processGroup(ctx context.Context, grp group) (msg protocol.Message, outcome groupOutcome, fromCache bool) {
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic while reassembling group %s: %v\n%s", grp.key, fatalError, stack)
			outcome = outcomeFault
		}
	}()

	if sent, parsed := grp.key.Time(); parsed && engine.now().Sub(sent) > engine.retention {
		logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
			"Dropping %d segments of group %s older than retention\n", len(grp.segments), grp.key)
		outcome = outcomeDropped
		return
	}

	localBitmap, unique, err := buildBitmap(grp.segments)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"Integrity fault in group %s: %v\n", grp.key, err)
		outcome = outcomeFault
		return
	}

	// Completion check, merge and removal happen under one cache lock
	cached, resolution, discarded, err := engine.cache.Settle(grp.key, unique, localBitmap)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"Integrity fault in group %s: %v\n", grp.key, err)
		outcome = outcomeFault
		return
	}
	if discarded > 0 {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Discarding %d segments of group %s: %v\n", discarded, grp.key, shard.ErrCacheFull)
	}

	switch resolution {
	case shard.Exhausted:
		logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
			"Dropping %d segments of exhausted group %s\n", len(grp.segments), grp.key)
		outcome = outcomeDropped
		return
	case shard.Stored:
		outcome = outcomeCached
		return
	}

	fromCache = len(cached) > 0
	payload := protocol.Join(append(unique, cached...))

	msg = protocol.Message{
		Payload:  payload,
		Sender:   grp.key.Sender,
		SendTime: grp.key.SendTime,
	}
	outcome = outcomeCompleted

	logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
		"Reassembled group %s (%d segments, %d bytes)\n", grp.key, len(localBitmap), len(payload))
	return
}

// Groups segments by key, keeping first-seen order of groups
func partition(batch []protocol.Segment) (groups []group) {
	index := make(map[protocol.GroupKey]int)
	for _, segment := range batch {
		key := segment.Key()
		position, ok := index[key]
		if !ok {
			position = len(groups)
			index[key] = position
			groups = append(groups, group{key: key})
		}
		groups[position].segments = append(groups[position].segments, segment)
	}
	return
}

// Local bitmap sized by the first segment. Duplicate numbers are collapsed.
func buildBitmap(segments []protocol.Segment) (bitmap []bool, unique []protocol.Segment, err error) {
	count := segments[0].SegCount
	for _, segment := range segments {
		if segment.SegCount != count {
			err = fmt.Errorf("%w: segment %d claims %d segments, group started with %d",
				shard.ErrIntegrity, segment.SegNum, segment.SegCount, count)
			return
		}
		if err = segment.Validate(); err != nil {
			err = fmt.Errorf("%w: %v", shard.ErrIntegrity, err)
			return
		}
	}

	bitmap = make([]bool, count)
	unique = make([]protocol.Segment, 0, len(segments))
	for _, segment := range segments {
		if bitmap[segment.SegNum] {
			continue
		}
		bitmap[segment.SegNum] = true
		unique = append(unique, segment)
	}
	return
}

func (engine *Engine) record(report PassReport) {
	engine.Metrics.Passes.Add(1)
	engine.Metrics.Segments.Add(uint64(report.Segments))
	engine.Metrics.Completed.Add(uint64(report.Completed))
	engine.Metrics.Failed.Add(uint64(report.Invalidated))
	engine.Metrics.Dropped.Add(uint64(report.Dropped))
	engine.Metrics.IntegrityFaults.Add(uint64(report.IntegrityFaults))
	engine.Metrics.SumNs.Add(uint64(report.Elapsed))
	atomics.StoreMax(&engine.Metrics.MaxNs, uint64(report.Elapsed))
}
