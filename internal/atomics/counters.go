// Helper functions for atomic counters shared between workers
package atomics

import (
	"sync/atomic"
	"time"
)

// Subtracts value from source, clamping at 0. Retries CAS contention up to
// maxRetries times with exponential backoff.
func Subtract(source *atomic.Uint64, value uint64, maxRetries int) (success bool) {
	retryInterval := 10 * time.Microsecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		current := source.Load()
		if current == 0 {
			success = true
			return
		}

		newValue := uint64(0)
		if value < current {
			newValue = current - value
		}
		if source.CompareAndSwap(current, newValue) {
			success = true
			return
		}

		time.Sleep(retryInterval)
		retryInterval *= 2
	}
	return
}

// Raises target to candidate if candidate is larger
func StoreMax(target *atomic.Uint64, candidate uint64) {
	for {
		current := target.Load()
		if candidate <= current || target.CompareAndSwap(current, candidate) {
			return
		}
	}
}

// Waits until value reads 0 three consecutive times, or timeout elapses
func WaitUntilZero(value *atomic.Uint64, timeout time.Duration) (reachedZero bool, lastValue uint64) {
	const successfulStreakCount = 3
	const maxBackoff = time.Second

	backoff := 50 * time.Millisecond
	deadline := time.Now().Add(timeout)
	zeroStreak := 0

	for {
		lastValue = value.Load()
		if lastValue == 0 {
			zeroStreak++
			if zeroStreak >= successfulStreakCount {
				reachedZero = true
				return
			}
		} else {
			zeroStreak = 0
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		time.Sleep(min(backoff, remaining))
		backoff = min(backoff*2, maxBackoff)
	}
}
