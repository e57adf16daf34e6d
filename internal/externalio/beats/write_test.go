package beats

import (
	"context"
	"errors"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"segtransport/pkg/protocol"
	"testing"
	"time"
)

type recordingSink struct {
	events []interface{}
	err    error
	closed bool
}

func (sink *recordingSink) Send(data []interface{}) (int, error) {
	if sink.err != nil {
		return 0, sink.err
	}
	sink.events = append(sink.events, data...)
	return len(data), nil
}

func (sink *recordingSink) Close() error {
	sink.closed = true
	return nil
}

func TestWrite(t *testing.T) {
	ctx := logctx.New(context.Background(), global.NSTest, global.VerbosityNone, make(chan struct{}))
	sent := time.UnixMilli(1700000000123)

	tests := []struct {
		name          string
		msg           protocol.Message
		text          string
		expectOutcome string
		expectTime    time.Time
	}{
		{
			name:          "success",
			msg:           protocol.Message{Payload: []byte("hi"), Sender: "s1", SendTime: protocol.NewSendTime(sent)},
			text:          "hi",
			expectOutcome: "success",
			expectTime:    sent,
		},
		{
			name:          "failure marker",
			msg:           protocol.Message{HasError: true, Sender: "s1", SendTime: protocol.NewSendTime(sent)},
			expectOutcome: "failure",
			expectTime:    sent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			mod := &OutModule{sink: sink}

			count, err := mod.Write(ctx, tt.msg, tt.text)
			if err != nil || count != 1 {
				t.Fatalf("write returned %d, %v", count, err)
			}

			fields := sink.events[0].(map[string]interface{})
			if fields["message"] != tt.text {
				t.Errorf("message %v, want %q", fields["message"], tt.text)
			}
			event := fields["event"].(map[string]interface{})
			if event["outcome"] != tt.expectOutcome {
				t.Errorf("outcome %v, want %s", event["outcome"], tt.expectOutcome)
			}
			if !fields["@timestamp"].(time.Time).Equal(tt.expectTime) {
				t.Errorf("timestamp %v, want %v", fields["@timestamp"], tt.expectTime)
			}
		})
	}
}

func TestWriteErrorAndNilModule(t *testing.T) {
	ctx := context.Background()

	var nilMod *OutModule
	if count, err := nilMod.Write(ctx, protocol.Message{}, ""); count != 0 || err != nil {
		t.Errorf("nil module should be a no-op")
	}
	if err := nilMod.Shutdown(); err != nil {
		t.Errorf("nil shutdown errored: %v", err)
	}

	sink := &recordingSink{err: errors.New("connection reset")}
	mod := &OutModule{sink: sink}
	if _, err := mod.Write(ctx, protocol.Message{Sender: "s", SendTime: "1"}, "x"); err == nil {
		t.Errorf("sink error not returned")
	}
	mod.Shutdown()
	if !sink.closed {
		t.Errorf("shutdown did not close sink")
	}
}
