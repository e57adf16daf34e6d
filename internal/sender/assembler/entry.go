// Splits inbound messages into segments and forwards them in order
package assembler

import (
	"context"
	"fmt"
	"segtransport/internal/atomics"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"segtransport/pkg/protocol"
	"time"
)

func New(namespace []string, forwarder Forwarder, chunkByteSize int) (new *Instance) {
	if chunkByteSize <= 0 {
		chunkByteSize = global.DefaultChunkByteSize
	}
	new = &Instance{
		Namespace:     append(append([]string(nil), namespace...), global.NSAssm),
		forwarder:     forwarder,
		chunkByteSize: chunkByteSize,
		Metrics:       &MetricStorage{},
	}
	return
}

// Segments msg and forwards every segment sequentially. The first failure
// aborts the message; segments already forwarded are not recalled.
// A missing send time is stamped with the current time.
func (instance *Instance) Send(ctx context.Context, msg protocol.OutboundMessage) (err error) {
	if msg.SendTime == "" {
		msg.SendTime = protocol.NewSendTime(time.Now())
	}

	segments, err := protocol.Split(msg, instance.chunkByteSize)
	if err != nil {
		instance.Metrics.FailedMessages.Add(1)
		err = fmt.Errorf("failed segmenting message: %w", err)
		return
	}

	msgLengthB := uint64(len(msg.Payload))
	segmentCount := uint64(len(segments))
	instance.Metrics.TotalMessages.Add(1)
	instance.Metrics.TotalMsgSizeBytes.Add(msgLengthB)
	atomics.StoreMax(&instance.Metrics.MaxMsgSizeBytes, msgLengthB)
	atomics.StoreMax(&instance.Metrics.MaxSegmentCtn, segmentCount)

	for _, segment := range segments {
		err = instance.forwarder.Publish(ctx, segment)
		if err != nil {
			instance.Metrics.FailedMessages.Add(1)
			err = fmt.Errorf("segment %d of %d: %w", segment.SegNum, segment.SegCount, err)
			return
		}
		instance.Metrics.TotalSegmentCtn.Add(1)
	}

	logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
		"Forwarded %d segments for %s@%s (%d bytes)\n", segmentCount, msg.Sender, msg.SendTime, msgLengthB)
	return
}
