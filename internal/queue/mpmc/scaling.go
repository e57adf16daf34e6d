package mpmc

import (
	"context"
	"segtransport/internal/calc"
	"segtransport/internal/global"
	"segtransport/internal/logctx"

	"github.com/pbnjay/memory"
)

const (
	scaleSampleWindow int     = 8
	scaleTrimPercent  float64 = 0.10
)

// Resizes queue if nearing capacity limit or heavily unused.
// Decisions use the trimmed mean utilization of recent checks.
func (container *Queue[T]) ScaleCapacity(ctx context.Context) {
	// Previous migration still draining
	if container.ActiveRead.Load() != container.ActiveWrite.Load() {
		return
	}

	activeQueue := container.ActiveWrite.Load()
	currentCapacity := activeQueue.Size
	currentDepth := activeQueue.Metrics.Depth.Load()
	utilization := container.smoothedUtilization(currentDepth * 100 / uint64(currentCapacity))

	var newCapacity int
	switch {
	case utilization >= 90 && currentCapacity < container.maximumSize:
		newCapacity = nextPowerOfTwo(currentCapacity + 1)

		// No scaling up when near system memory limit
		perItem := activeQueue.Metrics.Bytes.Load() / max(currentDepth, 1)
		availMem := memory.FreeMemory()
		if availMem > 0 && uint64(newCapacity)*perItem > availMem {
			logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
				"Not scaling queue past %d items, insufficient free memory\n", currentCapacity)
			return
		}
	case utilization <= 2 && currentCapacity > container.minimumSize:
		newCapacity = prevPowerOfTwo(currentCapacity)
	default:
		return
	}

	err := container.mutateSize(uint64(newCapacity))
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"Failed to scale queue capacity: %v\n", err)
		return
	}
	container.samplesMu.Lock()
	container.samples = container.samples[:0]
	container.samplesMu.Unlock()

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Scaled queue from %d to %d capacity\n", currentCapacity, newCapacity)
}

// Records a utilization sample and returns the trimmed mean of the window
func (container *Queue[T]) smoothedUtilization(sample uint64) (utilization uint64) {
	container.samplesMu.Lock()
	defer container.samplesMu.Unlock()

	container.samples = append(container.samples, sample)
	if len(container.samples) > scaleSampleWindow {
		container.samples = container.samples[len(container.samples)-scaleSampleWindow:]
	}
	utilization = calc.TrimmedMeanUint64(container.samples, scaleTrimPercent)
	return
}

// Allocates new capacity queue. Consumers finish the migration once the old one is empty.
func (container *Queue[T]) mutateSize(newCapacity uint64) (err error) {
	old := container.ActiveWrite.Load()

	qInst, err := newQueueInst[T](nil, newCapacity)
	if err != nil {
		return
	}
	qInst.Namespace = old.Namespace

	old.draining.Store(true)
	container.ActiveWrite.Store(qInst)
	return
}

func nextPowerOfTwo(start int) (next int) {
	if start <= 1 {
		next = 1
		return
	}
	start--
	start |= start >> 1
	start |= start >> 2
	start |= start >> 4
	start |= start >> 8
	start |= start >> 16
	start |= start >> 32
	next = start + 1
	return
}

func prevPowerOfTwo(start int) (prev int) {
	if start == 0 {
		return
	}
	prev = nextPowerOfTwo(start) >> 1
	return
}
