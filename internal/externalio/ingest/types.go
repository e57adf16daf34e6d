package ingest

import (
	"context"
	"segtransport/pkg/protocol"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
)

// Accepts one whole message for segmentation
type SendFunc func(ctx context.Context, msg protocol.OutboundMessage) error

// Accepts one segment for publishing
type TransferFunc func(ctx context.Context, segment protocol.Segment) error

type Server struct {
	Namespace []string
	ctx       context.Context
	router    chi.Router
	Metrics   *MetricStorage
}

type MetricStorage struct {
	Accepted  atomic.Uint64 // Requests handled successfully
	Malformed atomic.Uint64 // Bodies that could not be decoded
	Failed    atomic.Uint64 // Requests whose downstream handling failed
	Bytes     atomic.Uint64 // Request body bytes read
}

type httpLogWriter struct {
	ctx context.Context
}
