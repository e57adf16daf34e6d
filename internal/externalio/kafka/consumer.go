// Broker consumption of segments
package kafka

import (
	"context"
	"errors"
	"fmt"
	"segtransport/internal/global"
	"segtransport/pkg/protocol"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Group member reading topic. Offsets are committed as records are read.
func NewConsumer(namespace []string, brokers []string, topic string, groupID string) (new *Consumer, err error) {
	if len(brokers) == 0 {
		err = fmt.Errorf("no brokers configured")
		return
	}
	if strings.TrimSpace(topic) == "" {
		err = fmt.Errorf("no topic configured")
		return
	}
	if groupID == "" {
		groupID = global.DefaultConsumerGroup
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		SessionTimeout: 6 * time.Second,
		StartOffset:    kafkago.FirstOffset,
		MaxWait:        global.DefaultPollTimeout,
		CommitInterval: time.Second,
	})

	new = newConsumer(namespace, topic, reader)
	return
}

func newConsumer(namespace []string, topic string, reader messageReader) (new *Consumer) {
	new = &Consumer{
		Namespace: append(append([]string(nil), namespace...), global.NSKafka),
		topic:     topic,
		reader:    reader,
		Metrics:   &MetricStorage{},
	}
	return
}

// Waits up to timeout for one record. A quiet topic yields no segments and
// no error. Undecodable records are returned as errors wrapping ErrTransport.
func (consumer *Consumer) Poll(ctx context.Context, timeout time.Duration) (segments []protocol.Segment, err error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := consumer.reader.ReadMessage(pollCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = nil
			return
		}
		if ctx.Err() == nil {
			consumer.Metrics.Errors.Add(1)
		}
		err = fmt.Errorf("failed reading from %s: %w", consumer.topic, err)
		return
	}

	headers := make([]protocol.Header, 0, len(msg.Headers))
	for _, header := range msg.Headers {
		headers = append(headers, protocol.Header{Key: header.Key, Value: header.Value})
	}

	segment, err := protocol.Decode(msg.Key, headers, msg.Value)
	if err != nil {
		consumer.Metrics.DecodeErrors.Add(1)
		err = fmt.Errorf("record at %s/%d offset %d: %w", msg.Topic, msg.Partition, msg.Offset, err)
		return
	}

	consumer.Metrics.Records.Add(1)
	consumer.Metrics.Bytes.Add(uint64(len(msg.Value)))
	segments = []protocol.Segment{segment}
	return
}

func (consumer *Consumer) Close() (err error) {
	err = consumer.reader.Close()
	return
}
