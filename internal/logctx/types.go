package logctx

import (
	"sync"
	"time"
)

// Single log record as queued by LogEvent
type Event struct {
	Timestamp time.Time
	Severity  string
	Tags      []string
	Message   string
}

// Context-carried event buffer drained by one or more watchers
type Logger struct {
	ID         string
	CreatedAt  time.Time
	Done       <-chan struct{}
	PrintLevel int // Highest verbosity that is still recorded

	queue []Event
	mutex sync.Mutex
	cond  *sync.Cond      // signalled on every queued event
	wg    *sync.WaitGroup // held by watchers until the queue is flushed
}

// Tracks runs of identical messages for the watcher
type dedupState struct {
	lastMsg          string
	repeatCount      int
	lastSuppressTime time.Time
}
