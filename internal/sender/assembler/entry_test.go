package assembler

import (
	"context"
	"errors"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"segtransport/pkg/protocol"
	"testing"
)

type recordingForwarder struct {
	segments []protocol.Segment
	failAt   int // fail the n-th publish (1-based), 0 never
}

func (forwarder *recordingForwarder) Publish(ctx context.Context, segment protocol.Segment) error {
	if forwarder.failAt > 0 && len(forwarder.segments)+1 == forwarder.failAt {
		return errors.New("produce service unavailable")
	}
	forwarder.segments = append(forwarder.segments, segment)
	return nil
}

func TestSend(t *testing.T) {
	ctx := logctx.New(context.Background(), global.NSTest, global.VerbosityNone, make(chan struct{}))

	tests := []struct {
		name          string
		msg           protocol.OutboundMessage
		chunk         int
		failAt        int
		expectErr     bool
		expectForward int
	}{
		{
			name:          "six bytes chunk two",
			msg:           protocol.OutboundMessage{Sender: "s1", SendTime: "1700000000000", Payload: []byte("abcdef")},
			chunk:         2,
			expectForward: 3,
		},
		{
			name:          "default chunk size",
			msg:           protocol.OutboundMessage{Sender: "s1", SendTime: "1700000000000", Payload: []byte("abcd")},
			expectForward: 2,
		},
		{
			name:          "empty payload forwards one segment",
			msg:           protocol.OutboundMessage{Sender: "s1", SendTime: "1700000000000"},
			chunk:         2,
			expectForward: 1,
		},
		{
			name:          "missing send time is stamped",
			msg:           protocol.OutboundMessage{Sender: "s1", Payload: []byte("ab")},
			chunk:         2,
			expectForward: 1,
		},
		{
			name:          "first failure aborts",
			msg:           protocol.OutboundMessage{Sender: "s1", SendTime: "1700000000000", Payload: []byte("abcdef")},
			chunk:         2,
			failAt:        2,
			expectErr:     true,
			expectForward: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forwarder := &recordingForwarder{failAt: tt.failAt}
			instance := New([]string{global.NSTest}, forwarder, tt.chunk)

			err := instance.Send(ctx, tt.msg)
			if (err != nil) != tt.expectErr {
				t.Fatalf("error = %v, expectErr %t", err, tt.expectErr)
			}
			if len(forwarder.segments) != tt.expectForward {
				t.Fatalf("forwarded %d segments, want %d", len(forwarder.segments), tt.expectForward)
			}
			for i, segment := range forwarder.segments {
				if segment.SegNum != uint64(i) {
					t.Errorf("segment %d forwarded out of order (num %d)", i, segment.SegNum)
				}
				if segment.SendTime == "" {
					t.Errorf("segment %d has no send time", i)
				}
			}
			if tt.expectErr && instance.Metrics.FailedMessages.Load() != 1 {
				t.Errorf("failure not counted")
			}
		})
	}
}
