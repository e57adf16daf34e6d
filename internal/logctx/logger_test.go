package logctx

import (
	"context"
	"segtransport/internal/global"
	"testing"
	"time"
)

func TestLogEvent(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	ctx := New(context.Background(), global.NSTest, 2, done)
	logger := GetLogger(ctx)
	if logger == nil {
		t.Fatalf("expected logger creation, got nil logger")
	}

	tests := []struct {
		name          string
		logLevel      int
		eventLevel    int
		severity      string
		message       string
		vars          []any
		expectEvents  int
		expectMessage string
	}{
		{
			name:          "event level within print level",
			logLevel:      2,
			eventLevel:    1,
			severity:      global.InfoLog,
			message:       "hello world",
			expectEvents:  1,
			expectMessage: "hello world",
		},
		{
			name:         "event level above print level",
			logLevel:     1,
			eventLevel:   3,
			severity:     global.InfoLog,
			message:      "should not appear",
			expectEvents: 0,
		},
		{
			name:          "errors ignore level filter",
			logLevel:      0,
			eventLevel:    5,
			severity:      global.ErrorLog,
			message:       "fatal error",
			expectEvents:  1,
			expectMessage: "fatal error",
		},
		{
			name:          "formatted with vars",
			logLevel:      3,
			eventLevel:    2,
			severity:      global.InfoLog,
			message:       "segments=%d",
			vars:          []any{42},
			expectEvents:  1,
			expectMessage: "segments=42",
		},
		{
			name:          "verb without vars left as is",
			logLevel:      3,
			eventLevel:    2,
			severity:      global.WarnLog,
			message:       "raw %d",
			expectEvents:  1,
			expectMessage: "raw %d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger.mutex.Lock()
			logger.queue = nil
			logger.mutex.Unlock()

			SetLogLevel(ctx, tt.logLevel)
			LogEvent(ctx, tt.eventLevel, tt.severity, tt.message, tt.vars...)

			if got := logger.Pending(); got != tt.expectEvents {
				t.Fatalf("expected %d events, got %d", tt.expectEvents, got)
			}
			if tt.expectEvents == 0 {
				return
			}

			logger.mutex.Lock()
			ev := logger.queue[0]
			logger.mutex.Unlock()

			if ev.Severity != tt.severity {
				t.Errorf("severity mismatch: got %q want %q", ev.Severity, tt.severity)
			}
			if ev.Message != tt.expectMessage {
				t.Errorf("message mismatch: got %q want %q", ev.Message, tt.expectMessage)
			}
			if len(ev.Tags) != 1 || ev.Tags[0] != global.NSTest {
				t.Errorf("expected namespace tag, got %v", ev.Tags)
			}
			if time.Since(ev.Timestamp) > time.Second {
				t.Errorf("event timestamp too old: %v", ev.Timestamp)
			}
		})
	}
}

func TestLogEventWithoutLogger(t *testing.T) {
	// Must be a no-op
	LogEvent(context.Background(), 1, global.ErrorLog, "nowhere\n")
	SetLogLevel(context.Background(), 3)
}

func TestTagging(t *testing.T) {
	base := AppendCtxTag(context.Background(), "a")
	child := AppendCtxTag(base, "b")
	sibling := AppendCtxTag(base, "c")

	if got := GetTagList(child); len(got) != 2 || got[1] != "b" {
		t.Fatalf("unexpected child tags %v", got)
	}
	if got := GetTagList(sibling); len(got) != 2 || got[1] != "c" {
		t.Fatalf("sibling append leaked into child: %v", got)
	}

	popped := RemoveLastCtxTag(child)
	if got := GetTagList(popped); len(got) != 1 || got[0] != "a" {
		t.Fatalf("unexpected tags after pop %v", got)
	}
	if got := GetTagList(RemoveLastCtxTag(context.Background())); len(got) != 0 {
		t.Fatalf("pop on empty list should stay empty, got %v", got)
	}

	list := []string{"x", "y"}
	over := OverwriteCtxTag(child, list)
	list[0] = "mutated"
	if got := GetTagList(over); got[0] != "x" {
		t.Fatalf("overwrite shares caller slice: %v", got)
	}

	returned := GetTagList(child)
	returned[0] = "mutated"
	if got := GetTagList(child); got[0] != "a" {
		t.Fatalf("returned list shares context storage: %v", got)
	}

	if got := GetTagList(context.WithValue(context.Background(), global.LogTagsKey, "nope")); len(got) != 0 {
		t.Fatalf("wrong stored type should give empty list, got %v", got)
	}
}
