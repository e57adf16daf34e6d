package kafka

import (
	"context"
	"sync/atomic"

	kafkago "github.com/segmentio/kafka-go"
)

// Subset of *kafkago.Writer used for publishing
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Subset of *kafkago.Reader used for consuming
type messageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

type Producer struct {
	Namespace []string
	topic     string
	writer    messageWriter
	Metrics   *MetricStorage
}

type Consumer struct {
	Namespace []string
	topic     string
	reader    messageReader
	Metrics   *MetricStorage
}

type MetricStorage struct {
	Records      atomic.Uint64 // Records written or read
	Bytes        atomic.Uint64 // Value bytes written or read
	Errors       atomic.Uint64 // Failed broker calls
	DecodeErrors atomic.Uint64 // Records that were not valid segments
}
