// Central logging system. Events are buffered on a context-carried logger
// and written out by watcher goroutines.
package logctx

import (
	"context"
	"fmt"
	"segtransport/internal/global"
	"strings"
	"sync"
	"time"
)

// Creates a logger, attaches it to the context and tags it with the given namespace
func New(baseCtx context.Context, namespace string, logLevel int, done <-chan struct{}) (ctx context.Context) {
	logger := NewLogger(namespace, logLevel, done)
	ctx = WithLogger(baseCtx, logger)
	ctx = AppendCtxTag(ctx, namespace)
	return
}

// Logger Constructor
func NewLogger(id string, logLevel int, done <-chan struct{}) (logger *Logger) {
	logger = &Logger{
		ID:         id,
		CreatedAt:  time.Now(),
		queue:      make([]Event, 0),
		Done:       done,
		PrintLevel: logLevel,
		wg:         &sync.WaitGroup{},
	}
	logger.cond = sync.NewCond(&logger.mutex)
	return
}

// Attach the logger to context
func WithLogger(ctx context.Context, logger *Logger) (ctxLogger context.Context) {
	ctxLogger = context.WithValue(ctx, global.LoggerKey, logger)
	return
}

// Extracts Logger from context or returns nil
func GetLogger(ctx context.Context) (logger *Logger) {
	logger, _ = ctx.Value(global.LoggerKey).(*Logger)
	return
}

// Change the loggers level
func SetLogLevel(ctx context.Context, newLevel int) {
	logger := GetLogger(ctx)
	if logger == nil {
		return
	}
	logger.mutex.Lock()
	logger.PrintLevel = newLevel
	logger.mutex.Unlock()
}

// Entry for logging events
func LogEvent(ctx context.Context, eventLevel int, severity string, message string, vars ...any) {
	logger := GetLogger(ctx)
	if logger == nil {
		return
	}

	text := message
	if len(vars) > 0 && strings.Contains(message, "%") {
		text = fmt.Sprintf(message, vars...)
	}
	logger.log(eventLevel, severity, GetTagList(ctx), text)
}

// Queues one event if its level passes the current filter. Errors always pass.
func (logger *Logger) log(eventLevel int, severity string, tags []string, message string) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	if eventLevel > logger.PrintLevel && severity != global.ErrorLog {
		return
	}

	logger.queue = append(logger.queue, Event{
		Timestamp: time.Now(),
		Tags:      tags,
		Severity:  severity,
		Message:   message,
	})
	logger.cond.Signal()
}

// Number of events not yet written by a watcher
func (logger *Logger) Pending() (count int) {
	logger.mutex.Lock()
	count = len(logger.queue)
	logger.mutex.Unlock()
	return
}
