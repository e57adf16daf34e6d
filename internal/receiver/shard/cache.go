// Reassembly cache: buffers segments of incomplete groups between passes,
// ages them once per pass and evicts expired or retry-exhausted groups.
package shard

import (
	"errors"
	"fmt"
	"segtransport/internal/atomics"
	"segtransport/internal/global"
	"segtransport/pkg/protocol"
	"time"
)

// Create new cache. memoryPct of 0 disables the memory guard.
func New(namespace []string, maxRetry int, memoryPct int) (new *Cache) {
	if maxRetry < 1 {
		maxRetry = 1
	}
	new = &Cache{
		Namespace: append(append([]string(nil), namespace...), global.NSCache),
		records:   make(map[protocol.GroupKey]*Record),
		maxRetry:  maxRetry,
		memoryPct: memoryPct,
		Metrics:   &MetricStorage{},
	}
	new.byteLimit = byteLimit(memoryPct)
	return
}

// Adds segment to its group, creating the record on first arrival.
// Re-merging an already observed segment number changes nothing.
func (cache *Cache) Merge(segment protocol.Segment) (err error) {
	if err = segment.Validate(); err != nil {
		cache.Metrics.IntegrityFaults.Add(1)
		err = fmt.Errorf("%w: %v", ErrIntegrity, err)
		return
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()

	err = cache.merge(segment)
	return
}

// Caller must hold the write lock and have validated segment
func (cache *Cache) merge(segment protocol.Segment) (err error) {
	key := segment.Key()
	size := segment.Size()

	cache.Metrics.MergeCount.Add(1)

	record, ok := cache.records[key]
	if !ok {
		limit := cache.byteLimit
		if limit > 0 && cache.Metrics.Bytes.Load()+uint64(size) > limit {
			cache.Metrics.RejectedFull.Add(1)
			err = fmt.Errorf("%w: group %s needs %d bytes, limit %d", ErrCacheFull, key, size, limit)
			return
		}

		createdAt, parsed := key.Time()
		if !parsed {
			createdAt = time.Now()
		}
		record = &Record{
			segments:  make(map[uint64]protocol.Segment),
			bitmap:    make([]bool, segment.SegCount),
			createdAt: createdAt,
		}
		cache.records[key] = record
		cache.Metrics.Records.Add(1)
	} else if uint64(len(record.bitmap)) != segment.SegCount {
		cache.Metrics.IntegrityFaults.Add(1)
		err = fmt.Errorf("%w: group %s stores %d segments, segment %d claims %d",
			ErrIntegrity, key, len(record.bitmap), segment.SegNum, segment.SegCount)
		return
	}

	if record.bitmap[segment.SegNum] {
		cache.Metrics.Duplicates.Add(1)
		return
	}

	record.bitmap[segment.SegNum] = true
	record.segments[segment.SegNum] = segment
	record.bytes += size
	cache.Metrics.Bytes.Add(uint64(size))
	return
}

// Resolves one batch's view of a group in a single critical section.
// segments are the validated, de-duplicated batch segments and localBitmap
// marks their numbers. When batch and cache together cover the group the
// record is removed and missing holds the cached segments the batch lacked.
// Otherwise the batch segments are stored for a later pass. Segments refused
// by the memory guard are counted in discarded; the group still counts as stored.
func (cache *Cache) Settle(key protocol.GroupKey, segments []protocol.Segment, localBitmap []bool) (missing []protocol.Segment, resolution Resolution, discarded int, err error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	record, ok := cache.records[key]
	if ok && (record.notified || record.retry >= cache.maxRetry) {
		resolution = Exhausted
		return
	}

	if ok && len(record.bitmap) != len(localBitmap) {
		cache.Metrics.IntegrityFaults.Add(1)
		err = fmt.Errorf("%w: group %s stores %d segments, batch has %d",
			ErrIntegrity, key, len(record.bitmap), len(localBitmap))
		return
	}

	complete := true
	for index, local := range localBitmap {
		if local || (ok && record.bitmap[index]) {
			continue
		}
		complete = false
		break
	}

	if complete {
		resolution = Completed
		if !ok {
			return
		}
		for index, stored := range record.bitmap {
			if stored && !localBitmap[index] {
				missing = append(missing, record.segments[uint64(index)])
			}
		}
		if len(missing) > 0 {
			cache.Metrics.Completions.Add(1)
		}
		cache.delete(key, record)
		return
	}

	resolution = Stored
	for _, segment := range segments {
		mergeErr := cache.merge(segment)
		switch {
		case mergeErr == nil:
		case errors.Is(mergeErr, ErrCacheFull):
			discarded++
		default:
			err = mergeErr
			return
		}
	}
	return
}

// True if the group is unknown or has passes left
func (cache *Cache) IsRetryAvailable(key protocol.GroupKey) (available bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	record, ok := cache.records[key]
	available = !ok || record.retry < cache.maxRetry
	return
}

// Returns the stored segments missing from localBitmap when together they
// cover the whole group. complete is false when the group cannot finish yet.
func (cache *Cache) CompleteWithCache(key protocol.GroupKey, localBitmap []bool) (segments []protocol.Segment, complete bool, err error) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	record, ok := cache.records[key]
	if !ok {
		return
	}

	if len(record.bitmap) != len(localBitmap) {
		cache.Metrics.IntegrityFaults.Add(1)
		err = fmt.Errorf("%w: group %s stores %d segments, batch has %d",
			ErrIntegrity, key, len(record.bitmap), len(localBitmap))
		return
	}

	for index, stored := range record.bitmap {
		if !stored && !localBitmap[index] {
			return
		}
	}

	for index, stored := range record.bitmap {
		if stored && !localBitmap[index] {
			segments = append(segments, record.segments[uint64(index)])
		}
	}
	complete = true
	cache.Metrics.Completions.Add(1)
	return
}

// Ages every present record by one pass, saturating at the retry maximum
func (cache *Cache) AdvanceAge() {
	limit := byteLimit(cache.memoryPct)

	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.byteLimit = limit
	for _, record := range cache.records {
		if record.retry < cache.maxRetry {
			record.retry++
		}
	}
}

// Groups on their last pass before exhaustion. Each group is returned once.
func (cache *Cache) DrainInvalidated() (keys []protocol.GroupKey) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	for key, record := range cache.records {
		if record.notified || record.retry != cache.maxRetry-1 {
			continue
		}
		record.notified = true
		keys = append(keys, key)
	}
	cache.Metrics.Invalidated.Add(uint64(len(keys)))
	return
}

// Removes records older than retention and records out of retries
func (cache *Cache) Evict(now time.Time, retention time.Duration) (aged int, exhausted int) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	for key, record := range cache.records {
		switch {
		case now.Sub(record.createdAt) > retention:
			aged++
			if !record.notified {
				cache.Metrics.SilentEvictions.Add(1)
			}
		case record.retry >= cache.maxRetry:
			exhausted++
		default:
			continue
		}
		cache.delete(key, record)
	}

	cache.Metrics.EvictedAged.Add(uint64(aged))
	cache.Metrics.EvictedExhausted.Add(uint64(exhausted))
	return
}

// Drops a group (completed elsewhere). Reports whether it existed.
func (cache *Cache) Remove(key protocol.GroupKey) (existed bool) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	record, existed := cache.records[key]
	if existed {
		cache.delete(key, record)
	}
	return
}

// Number of live groups
func (cache *Cache) Len() (count int) {
	cache.mu.RLock()
	count = len(cache.records)
	cache.mu.RUnlock()
	return
}

// Retry count of a group, ok false when absent
func (cache *Cache) Retry(key protocol.GroupKey) (retry int, ok bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	record, ok := cache.records[key]
	if ok {
		retry = record.retry
	}
	return
}

func (cache *Cache) MaxRetry() int {
	return cache.maxRetry
}

// Caller must hold the write lock
func (cache *Cache) delete(key protocol.GroupKey, record *Record) {
	delete(cache.records, key)
	atomics.Subtract(&cache.Metrics.Bytes, uint64(record.bytes), 1)
	atomics.Subtract(&cache.Metrics.Records, 1, 1)
}
