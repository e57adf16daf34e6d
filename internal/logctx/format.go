package logctx

import (
	"fmt"
	"strings"
	"time"
)

// Stringify full event, omitting empty parts.
// No newline is added, message creator determines newlines.
func (event Event) Format() (text string) {
	var parts []string
	if !event.Timestamp.IsZero() {
		parts = append(parts, "["+padTimestamp(event.Timestamp)+"]")
	}
	if len(event.Tags) > 0 {
		parts = append(parts, "["+strings.Join(event.Tags, "/")+"]")
	}
	if event.Severity != "" {
		parts = append(parts, "["+event.Severity+"]")
	}
	if event.Message != "" {
		parts = append(parts, event.Message)
	}
	text = strings.Join(parts, " ")
	return
}

// Fixed width RFC3339 timestamp (nanoseconds always 9 digits)
func padTimestamp(timestamp time.Time) (formatted string) {
	const layout = "2006-01-02T15:04:05.000000000Z07:00"
	formatted = timestamp.Format(layout)
	return
}

// Suppression notice for a run of repeated messages
func suppressionLine(event Event, count int, msg string) (line string) {
	line = fmt.Sprintf("[%s] [%s] [%s] Suppressed %d repeated messages: %s\n",
		padTimestamp(event.Timestamp),
		strings.Join(event.Tags, "/"),
		"Info",
		count,
		msg)
	return
}
