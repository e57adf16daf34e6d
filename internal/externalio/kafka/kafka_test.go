package kafka

import (
	"context"
	"errors"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"segtransport/pkg/protocol"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// In-memory topic shared by the fake writer and reader
type fakeTopic struct {
	mu       sync.Mutex
	messages []kafkago.Message
	writeErr error
	notify   chan struct{}
	closed   bool
}

func newFakeTopic() *fakeTopic {
	return &fakeTopic{notify: make(chan struct{}, 64)}
}

func (topic *fakeTopic) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	if topic.writeErr != nil {
		return topic.writeErr
	}
	topic.mu.Lock()
	topic.messages = append(topic.messages, msgs...)
	topic.mu.Unlock()
	for range msgs {
		topic.notify <- struct{}{}
	}
	return nil
}

func (topic *fakeTopic) ReadMessage(ctx context.Context) (msg kafkago.Message, err error) {
	select {
	case <-ctx.Done():
		err = ctx.Err()
		return
	case <-topic.notify:
	}
	topic.mu.Lock()
	msg = topic.messages[0]
	topic.messages = topic.messages[1:]
	topic.mu.Unlock()
	return
}

func (topic *fakeTopic) Close() error {
	topic.closed = true
	return nil
}

func testCtx() (ctx context.Context) {
	ctx = logctx.New(context.Background(), global.NSTest, global.VerbosityNone, make(chan struct{}))
	return
}

func TestPublishThenPoll(t *testing.T) {
	topic := newFakeTopic()
	producer := newProducer([]string{global.NSTest}, "segments", topic)
	consumer := newConsumer([]string{global.NSTest}, "segments", topic)

	segments, err := protocol.Split(protocol.OutboundMessage{
		Sender:   "s1",
		SendTime: protocol.NewSendTime(time.Now()),
		Payload:  []byte("abcdef"),
	}, 2)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}

	for _, segment := range segments {
		if err := producer.Publish(testCtx(), segment); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	topic.mu.Lock()
	first := topic.messages[0]
	topic.mu.Unlock()
	if string(first.Key) != segments[0].SendTime {
		t.Errorf("record key %q, want send time %q", first.Key, segments[0].SendTime)
	}
	if len(first.Headers) != 3 {
		t.Errorf("expected 3 headers, got %d", len(first.Headers))
	}

	for i, want := range segments {
		got, err := consumer.Poll(testCtx(), time.Second)
		if err != nil {
			t.Fatalf("poll %d failed: %v", i, err)
		}
		if len(got) != 1 {
			t.Fatalf("poll %d returned %d segments", i, len(got))
		}
		if got[0].SegNum != want.SegNum || got[0].SegCount != want.SegCount ||
			got[0].Sender != want.Sender || string(got[0].Payload) != string(want.Payload) {
			t.Errorf("poll %d: got %+v, want %+v", i, got[0], want)
		}
	}

	if producer.Metrics.Records.Load() != 3 || consumer.Metrics.Records.Load() != 3 {
		t.Errorf("record counters not updated")
	}
}

func TestPollIdleTopic(t *testing.T) {
	consumer := newConsumer([]string{global.NSTest}, "segments", newFakeTopic())

	start := time.Now()
	segments, err := consumer.Poll(testCtx(), 30*time.Millisecond)
	if err != nil {
		t.Fatalf("idle poll must not error: %v", err)
	}
	if len(segments) != 0 {
		t.Errorf("expected no segments")
	}
	if time.Since(start) > time.Second {
		t.Errorf("poll exceeded its timeout")
	}
}

func TestPollCancelled(t *testing.T) {
	consumer := newConsumer([]string{global.NSTest}, "segments", newFakeTopic())

	ctx, cancel := context.WithCancel(testCtx())
	cancel()
	_, err := consumer.Poll(ctx, time.Second)
	if err == nil {
		t.Fatalf("expected error on cancelled context")
	}
	if consumer.Metrics.Errors.Load() != 0 {
		t.Errorf("cancellation should not count as a broker error")
	}
}

func TestPollMalformedRecord(t *testing.T) {
	topic := newFakeTopic()
	consumer := newConsumer([]string{global.NSTest}, "segments", topic)

	topic.WriteMessages(context.Background(), kafkago.Message{
		Key:   []byte("1700000000000"),
		Value: []byte("ab"),
		Headers: []kafkago.Header{
			{Key: protocol.HeaderSegCount, Value: []byte{0, 1}},
		},
	})

	_, err := consumer.Poll(testCtx(), time.Second)
	if !errors.Is(err, protocol.ErrTransport) {
		t.Fatalf("expected transport fault, got %v", err)
	}
	if consumer.Metrics.DecodeErrors.Load() != 1 {
		t.Errorf("decode error not counted")
	}
}

func TestPublishFailure(t *testing.T) {
	topic := newFakeTopic()
	topic.writeErr = errors.New("leader not available")
	producer := newProducer([]string{global.NSTest}, "segments", topic)

	err := producer.Publish(testCtx(), protocol.Segment{SegCount: 1, Sender: "s", SendTime: "1"})
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if !errors.Is(err, topic.writeErr) {
		t.Errorf("broker error not wrapped: %v", err)
	}
	if producer.Metrics.Errors.Load() != 1 {
		t.Errorf("error not counted")
	}
}

func TestNewRequiresBrokersAndTopic(t *testing.T) {
	if _, err := NewProducer(nil, nil, "t"); err == nil {
		t.Errorf("producer without brokers accepted")
	}
	if _, err := NewProducer(nil, []string{"localhost:9092"}, " "); err == nil {
		t.Errorf("producer without topic accepted")
	}
	if _, err := NewConsumer(nil, nil, "t", ""); err == nil {
		t.Errorf("consumer without brokers accepted")
	}
}
