package receiver

import (
	"context"
	"net/http"
	"segtransport/internal/externalio/beats"
	"segtransport/internal/externalio/file"
	"segtransport/internal/externalio/journald"
	"segtransport/internal/externalio/kafka"
	"segtransport/internal/externalio/relay"
	metricGlb "segtransport/internal/metrics"
	"segtransport/internal/queue/mpmc"
	"segtransport/internal/receiver/assembler"
	"segtransport/internal/receiver/listener"
	"segtransport/internal/receiver/output"
	"segtransport/internal/receiver/shard"
	"segtransport/pkg/protocol"
	"sync"
	"sync/atomic"
	"time"
)

type JSONConfig struct {
	Kafka struct {
		Brokers []string `json:"brokers"`
		Topic   string   `json:"topic"`
		GroupID string   `json:"groupID,omitempty"`
	} `json:"kafka"`
	Reassembly struct {
		CollectionWindow  string `json:"collectionWindow,omitempty"`
		PollTimeout       string `json:"pollTimeout,omitempty"`
		Retention         string `json:"retention,omitempty"`
		MaxRetry          int    `json:"maxRetry,omitempty"`
		MaxInflightPasses int    `json:"maxInflightPasses,omitempty"`
		CacheMemoryPct    int    `json:"cacheMemoryPercent,omitempty"`
	} `json:"reassembly"`
	Outputs struct {
		ReceiveURL      string `json:"receiveURL"`
		PayloadEncoding string `json:"payloadEncoding,omitempty"`
		CompressBodies  bool   `json:"compressBodies,omitempty"`
		BeatsAddress    string `json:"beatsAddress,omitempty"`
		JournaldURL     string `json:"journaldURL,omitempty"`
		FilePath        string `json:"filePath,omitempty"`
		Workers         int    `json:"workers,omitempty"`
		MinQueueSize    int    `json:"minQueueSize,omitempty"`
		MaxQueueSize    int    `json:"maxQueueSize,omitempty"`
	} `json:"outputs"`
	Metrics struct {
		Interval          string `json:"collectionInterval"`
		MaxAge            string `json:"maximumRetention,omitempty"`
		EnableQueryServer bool   `json:"enableHTTPQueryServer"`
		QueryServerPort   int    `json:"HTTPQueryServerPort,omitempty"`
	} `json:"metrics"`
	AutoScaling struct {
		Enabled      bool   `json:"enabled"`
		PollInterval string `json:"pollInterval,omitempty"`
	} `json:"autoscaling"`
}

type Config struct {
	// Transport
	Brokers []string
	Topic   string
	GroupID string

	// Reassembly
	CollectionWindow  time.Duration
	PollTimeout       time.Duration
	Retention         time.Duration
	MaxRetry          int
	MaxInflightPasses int
	CacheMemoryPct    int

	// Outputs
	ReceiveURL      string
	PayloadEncoding string
	CompressBodies  bool
	BeatsEndpoint   string
	JournaldURL     string
	FilePath        string
	OutputWorkers   int

	// Queue boundaries
	MinOutputQueueSize int
	MaxOutputQueueSize int

	// Scaling settings
	AutoscaleEnabled       bool
	AutoscaleCheckInterval time.Duration

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
	wg     sync.WaitGroup

	// Collection runs on its own context so it can stop before outputs drain
	collectCtx    context.Context
	collectCancel context.CancelFunc
	collectDone   chan struct{}

	consumer  *kafka.Consumer
	cache     *shard.Cache
	engine    *assembler.Engine
	collector *listener.Collector
	queue     *mpmc.Queue[protocol.Message]
	relay     *relay.Client
	beatsMod  *beats.OutModule
	jrnlMod   *journald.OutModule
	fileMod   *file.OutModule
	outputs   []*output.Instance
	pending   atomic.Uint64 // Messages handed to the output queue and not yet delivered

	metricsCollector   *metricGlb.Gatherer
	MetricServer       *http.Server
	MetricDataSearcher func(name string, namespacePrefix []string, start, end time.Time) []metricGlb.Metric
	MetricDiscoverer   func(name, description string, namespacePrefix []string, unit string, metricType metricGlb.MetricType) []metricGlb.Metric
}
