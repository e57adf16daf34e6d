package sender

import (
	"context"
	"net/http"
	"segtransport/internal/externalio/ingest"
	"segtransport/internal/externalio/kafka"
	"segtransport/internal/externalio/relay"
	metricGlb "segtransport/internal/metrics"
	"segtransport/internal/sender/assembler"
	"sync"
	"time"
)

// Service a sending daemon runs as
type Mode string

const (
	ModeSplit   Mode = "split"   // accepts whole messages on /send
	ModeProduce Mode = "produce" // accepts segments on /transfer
)

type JSONConfig struct {
	Listen         string `json:"listen"`
	ChunkByteSize  int    `json:"chunkByteSize,omitempty"`
	CodeServiceURL string `json:"codeServiceURL,omitempty"`
	CompressBodies bool   `json:"compressBodies,omitempty"`
	Kafka          struct {
		Brokers []string `json:"brokers,omitempty"`
		Topic   string   `json:"topic,omitempty"`
	} `json:"kafka"`
	Metrics struct {
		Interval          string `json:"collectionInterval"`
		MaxAge            string `json:"maximumRetention,omitempty"`
		EnableQueryServer bool   `json:"enableHTTPQueryServer"`
		QueryServerPort   int    `json:"HTTPQueryServerPort,omitempty"`
	} `json:"metrics"`
}

type Config struct {
	Mode Mode

	// Ingest
	ListenAddr string

	// Segmenting (split)
	ChunkByteSize  int
	CodeServiceURL string
	CompressBodies bool

	// Broker (produce, or split publishing directly)
	Brokers []string
	Topic   string

	// Metrics
	MetricQueryServerEnabled bool
	MetricQueryServerPort    int
	MetricCollectionInterval time.Duration
	MetricMaxAge             time.Duration
}

type Daemon struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup

	// Pipeline components (reverse order)
	producer   *kafka.Producer
	relay      *relay.Client
	segmenter  *assembler.Instance
	ingest     *ingest.Server
	HTTPServer *http.Server

	metricsCollector   *metricGlb.Gatherer
	MetricServer       *http.Server
	MetricDataSearcher func(name string, namespacePrefix []string, start, end time.Time) []metricGlb.Metric
	MetricDiscoverer   func(name, description string, namespacePrefix []string, unit string, metricType metricGlb.MetricType) []metricGlb.Metric
}
