package file

import (
	"context"
	"segtransport/pkg/protocol"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Buffers message and associated metadata as one line, writing in batches
func (mod *OutModule) Write(ctx context.Context, msg protocol.Message, text string) (linesWritten int, err error) {
	if mod == nil {
		return
	}

	newLine := formatLine(msg, text)

	mod.mu.Lock()
	mod.batchBuffer = append(mod.batchBuffer, newLine)
	full := len(mod.batchBuffer) >= mod.batchSize
	mod.mu.Unlock()

	if full {
		linesWritten, err = mod.FlushBuffer()
	}
	return
}

// Writes buffered lines oldest first
func (mod *OutModule) FlushBuffer() (flushedCnt int, err error) {
	mod.mu.Lock()
	defer mod.mu.Unlock()

	if len(mod.batchBuffer) == 0 {
		return
	}

	sort.SliceStable(mod.batchBuffer, func(i, j int) bool {
		return mod.batchBuffer[i].timestamp < mod.batchBuffer[j].timestamp
	})

	for _, entry := range mod.batchBuffer {
		data := []byte(entry.text)
		for len(data) > 0 {
			var n int
			n, err = mod.sink.Write(data)
			if err != nil {
				// Keep what was not written for the next flush
				mod.batchBuffer = mod.batchBuffer[flushedCnt:]
				return
			}
			data = data[n:]
		}
		flushedCnt++
	}

	mod.batchBuffer = mod.batchBuffer[:0]
	return
}

// "<send time> <sender> <outcome> <text>" with newlines escaped
func formatLine(msg protocol.Message, text string) (entry line) {
	timestamp, err := protocol.ParseSendTime(msg.SendTime)
	if err != nil {
		timestamp = time.Now()
	}
	entry.timestamp = timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z")

	outcome := "success"
	if msg.HasError {
		outcome = "failure"
	}

	quoted := strconv.Quote(text)
	parts := []string{entry.timestamp, msg.Sender, outcome, quoted[1 : len(quoted)-1]}
	entry.text = strings.Join(parts, " ") + "\n"
	return
}
