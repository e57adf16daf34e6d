// Multi-producer multi-consumer lock-free ring buffer with power-of-two capacity
package mpmc

import (
	"context"
	"fmt"
	"runtime"
	"segtransport/internal/atomics"
	"segtransport/internal/global"
	"time"
)

// Bounded consumer wait, lets consumers notice a finished migration
const popWaitInterval = 50 * time.Millisecond

// Creates a new queue
func New[T any](namespace []string, initialCapacity uint64, minCapacity, maxCapacity int) (new *Queue[T], err error) {
	qInst, err := newQueueInst[T](namespace, initialCapacity)
	if err != nil {
		return
	}

	new = &Queue[T]{
		minimumSize: minCapacity,
		maximumSize: maxCapacity,
	}
	new.ActiveRead.Store(qInst)
	new.ActiveWrite.Store(qInst)
	return
}

// Creates new queue instance (no container A/B - Write/Read)
func newQueueInst[T any](namespace []string, capacity uint64) (new *QueueInst[T], err error) {
	if capacity < 2 {
		err = fmt.Errorf("capacity must be greater than or equal to 2")
		return
	}
	if (capacity & (capacity - 1)) != 0 {
		err = fmt.Errorf("capacity must be a power of two")
		return
	}

	buf := make([]cell[T], capacity)
	for i := uint64(0); i < capacity; i++ {
		buf[i].seq.Store(i)
	}

	new = &QueueInst[T]{
		Namespace: append(append([]string(nil), namespace...), global.NSQueue),
		Size:      int(capacity),
		mask:      capacity - 1,
		buf:       buf,
		notEmpty:  make(chan struct{}, 1),
		Metrics:   &MetricStorage{},
	}
	return
}

// Retries Push until it succeeds or ctx ends
func (container *Queue[T]) PushBlocking(ctx context.Context, value T, size int) (success bool) {
	for {
		if container.Push(value, size) {
			success = true
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Attempts to write an element (non success = queue full)
func (container *Queue[T]) Push(value T, size int) (success bool) {
	var queue *QueueInst[T]
	for {
		queue = container.ActiveWrite.Load()
		if !queue.draining.Load() {
			break
		}
		// Pointer swap in progress
		runtime.Gosched()
	}

	queue.Metrics.PushAttempts.Add(1)

	var pos uint64
	var slot *cell[T]
	for {
		pos = queue.tail.Load()
		slot = &queue.buf[pos&queue.mask]
		seq := slot.seq.Load()

		if seq == pos {
			if queue.tail.CompareAndSwap(pos, pos+1) {
				break
			}
			queue.Metrics.PushCASRetries.Add(1)
		} else if seq < pos {
			queue.Metrics.PushFull.Add(1)
			return
		} else {
			runtime.Gosched()
		}
	}

	slot.data = value
	slot.size = uint64(size)
	slot.seq.Store(pos + 1)

	queue.Metrics.PushSuccess.Add(1)
	queue.Metrics.Depth.Add(1)
	queue.Metrics.Bytes.Add(uint64(size))

	select {
	case queue.notEmpty <- struct{}{}:
	default:
	}

	success = true
	return
}

// Reads an element, blocking until one is available or ctx ends
func (container *Queue[T]) Pop(ctx context.Context) (out T, success bool) {
	var zero T
	var drainSeen *QueueInst[T]

	for {
		queue := container.ActiveRead.Load()
		queue.Metrics.PopAttempts.Add(1)

		pos := queue.head.Load()
		slot := &queue.buf[pos&queue.mask]
		seq := slot.seq.Load()
		readySeq := pos + 1

		if seq == readySeq {
			if !queue.head.CompareAndSwap(pos, pos+1) {
				queue.Metrics.PopCASRetries.Add(1)
				continue
			}
			out = slot.data
			size := slot.size
			slot.data = zero
			slot.seq.Store(pos + queue.mask + 1)

			queue.Metrics.PopSuccess.Add(1)
			atomics.Subtract(&queue.Metrics.Depth, 1, 4)
			atomics.Subtract(&queue.Metrics.Bytes, size, 4)
			success = true
			return
		}

		if seq > readySeq {
			// another consumer ahead, retry
			continue
		}

		// Empty. A draining queue found empty on two consecutive waits hands
		// reads over to the new one (covers producers that loaded the old pointer).
		if queue.draining.Load() && queue.head.Load() == queue.tail.Load() {
			if drainSeen == queue {
				container.ActiveRead.CompareAndSwap(queue, container.ActiveWrite.Load())
				continue
			}
			drainSeen = queue
		}

		queue.Metrics.PopEmpty.Add(1)
		select {
		case <-ctx.Done():
			return
		case <-queue.notEmpty:
		case <-time.After(popWaitInterval):
		}
	}
}

// Items currently queued across both views
func (container *Queue[T]) Len() (depth uint64) {
	write := container.ActiveWrite.Load()
	depth = write.Metrics.Depth.Load()
	if read := container.ActiveRead.Load(); read != write {
		depth += read.Metrics.Depth.Load()
	}
	return
}

// Bytes currently queued across both views
func (container *Queue[T]) Bytes() (total uint64) {
	write := container.ActiveWrite.Load()
	total = write.Metrics.Bytes.Load()
	if read := container.ActiveRead.Load(); read != write {
		total += read.Metrics.Bytes.Load()
	}
	return
}
