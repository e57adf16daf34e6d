package journald

import (
	"context"
	"fmt"
	"os"
	"segtransport/internal/global"
	"segtransport/pkg/protocol"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Syslog priorities
const (
	priorityErr  string = "3"
	priorityInfo string = "6"
)

var bootID = sync.OnceValue(func() string {
	raw, err := os.ReadFile("/proc/sys/kernel/random/boot_id")
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(strings.TrimSpace(string(raw)), "-", "")
})

// Writes a reassembled message (or failure marker) as one journal entry
func (mod *OutModule) Write(ctx context.Context, msg protocol.Message, text string) (entriesWritten int, err error) {
	if mod == nil {
		return
	}

	fields := map[string]string{
		"__REALTIME_TIMESTAMP": strconv.FormatInt(time.Now().UnixMicro(), 10), // Required field
		"_BOOT_ID":             bootID(),                                      // Required field
		"MESSAGE":              text,                                          // Required field
		"PRIORITY":             priorityInfo,
		"SYSLOG_IDENTIFIER":    global.ProgBaseName,
		"_HOSTNAME":            global.Hostname,
		"SEGMENT_SENDER":       msg.Sender,
		"SEGMENT_SEND_TIME":    msg.SendTime,
		"SEGMENT_OUTCOME":      "success",
		"SEGMENT_BYTES":        strconv.Itoa(len(msg.Payload)),
	}
	if msg.HasError {
		fields["PRIORITY"] = priorityErr
		fields["SEGMENT_OUTCOME"] = "failure"
		fields["MESSAGE"] = fmt.Sprintf("Reassembly failed for message from %s sent at %s", msg.Sender, msg.SendTime)
	}
	if timestamp, parseErr := protocol.ParseSendTime(msg.SendTime); parseErr == nil {
		fields["SYSLOG_TIMESTAMP"] = timestamp.Format(time.RFC3339Nano)
	}

	err = sendJournalExport(ctx, mod.sink, mod.url, encodeEntry(fields))
	if err != nil {
		err = fmt.Errorf("%w (message: sender '%s', send time '%s')", err, msg.Sender, msg.SendTime)
		return
	}
	entriesWritten = 1
	return
}
