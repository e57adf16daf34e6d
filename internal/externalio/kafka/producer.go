// Broker publishing of segments
package kafka

import (
	"context"
	"fmt"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"segtransport/pkg/protocol"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
)

// Writer keyed by send time so every segment of a group lands on one partition
func NewProducer(namespace []string, brokers []string, topic string) (new *Producer, err error) {
	if len(brokers) == 0 {
		err = fmt.Errorf("no brokers configured")
		return
	}
	if strings.TrimSpace(topic) == "" {
		err = fmt.Errorf("no topic configured")
		return
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: global.ProduceMessageTimeout,
		BatchSize:    1,
	}

	new = newProducer(namespace, topic, writer)
	return
}

func newProducer(namespace []string, topic string, writer messageWriter) (new *Producer) {
	new = &Producer{
		Namespace: append(append([]string(nil), namespace...), global.NSKafka),
		topic:     topic,
		writer:    writer,
		Metrics:   &MetricStorage{},
	}
	return
}

// Publishes one segment, waiting for broker acknowledgement
func (producer *Producer) Publish(ctx context.Context, segment protocol.Segment) (err error) {
	key, headers, value := protocol.Encode(segment)

	msg := kafkago.Message{
		Key:     key,
		Value:   value,
		Headers: make([]kafkago.Header, 0, len(headers)),
	}
	for _, header := range headers {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: header.Key, Value: header.Value})
	}

	writeCtx, cancel := context.WithTimeout(ctx, global.ProduceMessageTimeout)
	defer cancel()

	err = producer.writer.WriteMessages(writeCtx, msg)
	if err != nil {
		producer.Metrics.Errors.Add(1)
		err = fmt.Errorf("failed publishing segment %d/%d of %s to %s: %w",
			segment.SegNum, segment.SegCount, segment.Key(), producer.topic, err)
		return
	}

	producer.Metrics.Records.Add(1)
	producer.Metrics.Bytes.Add(uint64(len(value)))
	logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
		"Published segment %d/%d of %s\n", segment.SegNum, segment.SegCount, segment.Key())
	return
}

func (producer *Producer) Close() (err error) {
	err = producer.writer.Close()
	return
}
