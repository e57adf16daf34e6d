package logctx

import (
	"fmt"
	"io"
	"time"
)

const (
	dedupWindow      = 5 * time.Second
	dedupMinRepeats  = 10
	suppressCooldown = 1 * time.Minute
)

// Hold main thread exit until logger is finished its work
func (logger *Logger) Wait() {
	logger.wg.Wait()
}

// Wake signals/broadcasts to any goroutines waiting on the condition variable
func (logger *Logger) Wake() {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.cond.Broadcast()
}

// Starts a go routine that reads events and writes formatted output to io.Writer.
// Stops once logger.Done is closed and the queue is empty.
func StartWatcher(logger *Logger, output io.Writer) {
	logger.wg.Add(1)

	go func() {
		defer logger.wg.Done()

		var dedup dedupState
		for {
			event, ok := logger.next()
			if !ok {
				return
			}

			skip, summary := dedup.observe(event, time.Now())
			if summary != "" {
				fmt.Fprint(output, summary)
			}
			if skip {
				continue
			}
			fmt.Fprint(output, event.Format())
		}
	}()
}

// Blocks for the next queued event. Returns false when done with nothing left.
func (logger *Logger) next() (event Event, ok bool) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	for len(logger.queue) == 0 {
		select {
		case <-logger.Done:
			return
		default:
		}
		logger.cond.Wait()
	}

	event = logger.queue[0]
	logger.queue = logger.queue[1:]
	ok = true
	return
}

// Records event and reports whether it repeats the previous message within
// the dedup window. summary is set at most once per cooldown.
func (dedup *dedupState) observe(event Event, now time.Time) (skip bool, summary string) {
	if event.Message == "" || event.Message != dedup.lastMsg || now.Sub(event.Timestamp) > dedupWindow {
		dedup.lastMsg = event.Message
		dedup.repeatCount = 1
		return
	}

	skip = true
	dedup.repeatCount++
	if dedup.repeatCount >= dedupMinRepeats && now.Sub(dedup.lastSuppressTime) >= suppressCooldown {
		summary = suppressionLine(event, dedup.repeatCount, dedup.lastMsg)
		dedup.lastSuppressTime = now
		dedup.repeatCount = 0
	}
	return
}
