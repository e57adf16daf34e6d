package global

import "time"

const (
	// Descriptive Names for available verbosity levels
	VerbosityNone int = iota
	VerbosityStandard
	VerbosityProgress
	VerbosityData
	VerbosityFullData
	VerbosityDebug

	// Descriptive names for available severity levels
	ErrorLog string = "Error"
	WarnLog  string = "Warn"
	InfoLog  string = "Info"
)

const (
	ProgVersion  string = "v0.3.0"
	ProgBaseName string = "segtransport"

	// Context keys
	LoggerKey  CtxKey = "logger"  // Event queue (mostly for variable log verbosity handling)
	LogTagsKey CtxKey = "logtags" // List of tags in order of broad->specific appended/popped at various parts of the program

	DefaultConfigDir     string = "/etc/segtransport"
	DefaultConfigSplit   string = DefaultConfigDir + "/split.json"
	DefaultConfigProduce string = DefaultConfigDir + "/produce.json"
	DefaultConfigConsume string = DefaultConfigDir + "/consume.json"
	DefaultEnvFile       string = ".env"
	DefaultBinaryPath    string = "/usr/local/bin/segtransport"
	DefaultUnitDir       string = "/etc/systemd/system"

	// Service defaults (legacy service ports)
	DefaultSplitListen    string = "0.0.0.0:8000"
	DefaultProduceListen  string = "0.0.0.0:8002"
	DefaultCodeServiceURL string = "http://localhost:8080/code"
	DefaultBrokers        string = "localhost:9092"
	DefaultConsumerGroup  string = "segtransport-consumer"
	DefaultChunkByteSize  int    = 2
	DefaultReceiveURL     string = "http://localhost:8081/receive"

	// Reassembly defaults
	DefaultCollectWindow   time.Duration = 30 * time.Second
	DefaultPollTimeout     time.Duration = 500 * time.Millisecond
	DefaultRetention       time.Duration = 30 * time.Minute
	DefaultMaxRetry        int           = 3
	DefaultCacheMemoryPct  int           = 25
	DefaultPayloadEncoding string        = "utf16le"

	// Queue boundaries
	DefaultMinQueueSize int = 512
	DefaultMaxQueueSize int = 4096

	// Transport timeouts
	ProduceMessageTimeout time.Duration = 5 * time.Second
	DeliveryTimeout       time.Duration = 10 * time.Second

	// Timeout values
	ReceiveShutdownTimeout time.Duration = 20 * time.Second
	SendShutdownTimeout    time.Duration = 5 * time.Second
	DrainTimeout           time.Duration = 10 * time.Second

	// HTTP paths
	SendPath      string = "/send"
	TransferPath  string = "/transfer"
	HealthPath    string = "/healthz"
	DataPath      string = "/data/"
	DiscoveryPath string = "/discover/"

	// Metric HTTP server
	HTTPListenPortSplit   int           = 18000
	HTTPListenPortProduce int           = 18002
	HTTPListenPortConsume int           = 18004
	HTTPListenAddr        string        = "localhost" // Metric queries only exposed to local machine
	HTTPReadTimeout       time.Duration = 30 * time.Second
	HTTPWriteTimeout      time.Duration = 10 * time.Second
	HTTPIdleTimeout       time.Duration = 180 * time.Second

	// Namespacing Name Components
	NSMetric    string = "Metrics"
	NSMetricSrv string = "Server"
	NSTest      string = "Test"
	NSCLI       string = "CLI"
	NSSplit     string = "Split"
	NSProduce   string = "Produce"
	NSConsume   string = "Consume"
	NSAssm      string = "Assembler"
	NSCache     string = "Cache"
	NSOut       string = "Output"
	NSQueue     string = "Queue"
	NSListen    string = "Collector"
	NSWorker    string = "Worker"
	NSIngest    string = "Ingest"
	NSKafka     string = "Kafka"
	NSPass      string = "Pass"
)
