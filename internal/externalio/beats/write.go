package beats

import (
	"context"
	"os"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"segtransport/pkg/protocol"
	"time"
)

// Ships a reassembled message (or failure marker) with its decoded text
func (mod *OutModule) Write(ctx context.Context, msg protocol.Message, text string) (eventsSent int, err error) {
	if mod == nil {
		return
	}

	timestamp, parseErr := protocol.ParseSendTime(msg.SendTime)
	if parseErr != nil {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
			"Message from %s has unusable send time %q, using receive time\n", msg.Sender, msg.SendTime)
		timestamp = time.Now()
	}

	outcome := "success"
	if msg.HasError {
		outcome = "failure"
	}

	fields := map[string]interface{}{
		"@timestamp": timestamp,
		"message":    text,

		"host": map[string]interface{}{
			"name": msg.Sender,
		},
		"agent": map[string]interface{}{
			"program":  global.ProgBaseName,
			"version":  global.ProgVersion,
			"hostname": global.Hostname,
			"pid":      os.Getpid(),
		},
		"event": map[string]interface{}{
			"outcome": outcome,
			"id":      msg.SendTime,
		},
		"segtransport": map[string]interface{}{
			"sender":    msg.Sender,
			"send_time": msg.SendTime,
			"has_error": msg.HasError,
			"bytes":     len(msg.Payload),
		},
	}
	events := []interface{}{fields}

	eventsSent, err = mod.sink.Send(events)
	return
}
