package receiver

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"segtransport/internal/global"
	"segtransport/pkg/protocol"
	"strings"
	"time"
)

// Environment overrides applied on top of the config file
const (
	EnvBrokers    string = "BROKERS"
	EnvTopic      string = "TOPIC"
	EnvReceiveURL string = "RECEIVE_URL"
)

// Loads JSON config from file
func LoadConfig(path string) (cfg JSONConfig, err error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read config file: %w", err)
		return
	}

	err = json.Unmarshal(configFile, &cfg)
	if err != nil {
		err = fmt.Errorf("invalid config syntax in '%s': %w", path, err)
		return
	}

	return
}

// Parses JSON config into daemon config
func (cfg JSONConfig) NewDaemonConf() (config Config, err error) {
	// Transport
	config.Brokers = cfg.Kafka.Brokers
	config.Topic = cfg.Kafka.Topic
	config.GroupID = cfg.Kafka.GroupID

	// Reassembly
	config.CollectionWindow, err = parseOptionalDuration(cfg.Reassembly.CollectionWindow)
	if err != nil {
		err = fmt.Errorf("failed to parse collection window: %w", err)
		return
	}
	config.PollTimeout, err = parseOptionalDuration(cfg.Reassembly.PollTimeout)
	if err != nil {
		err = fmt.Errorf("failed to parse poll timeout: %w", err)
		return
	}
	config.Retention, err = parseOptionalDuration(cfg.Reassembly.Retention)
	if err != nil {
		err = fmt.Errorf("failed to parse cache retention: %w", err)
		return
	}
	config.MaxRetry = cfg.Reassembly.MaxRetry
	config.MaxInflightPasses = cfg.Reassembly.MaxInflightPasses
	config.CacheMemoryPct = cfg.Reassembly.CacheMemoryPct

	// Outputs
	config.ReceiveURL = cfg.Outputs.ReceiveURL
	config.PayloadEncoding = cfg.Outputs.PayloadEncoding
	config.CompressBodies = cfg.Outputs.CompressBodies
	config.BeatsEndpoint = cfg.Outputs.BeatsAddress
	config.JournaldURL = cfg.Outputs.JournaldURL
	config.FilePath = cfg.Outputs.FilePath
	config.OutputWorkers = cfg.Outputs.Workers
	config.MinOutputQueueSize = cfg.Outputs.MinQueueSize
	config.MaxOutputQueueSize = cfg.Outputs.MaxQueueSize

	// Scaling settings
	config.AutoscaleEnabled = cfg.AutoScaling.Enabled
	config.AutoscaleCheckInterval, err = parseOptionalDuration(cfg.AutoScaling.PollInterval)
	if err != nil {
		err = fmt.Errorf("failed to parse autoscale check interval time: %w", err)
		return
	}

	// Metric settings
	config.MetricQueryServerEnabled = cfg.Metrics.EnableQueryServer
	config.MetricQueryServerPort = cfg.Metrics.QueryServerPort
	config.MetricMaxAge, err = parseOptionalDuration(cfg.Metrics.MaxAge)
	if err != nil {
		err = fmt.Errorf("failed to parse metric max age time: %w", err)
		return
	}
	config.MetricCollectionInterval, err = parseOptionalDuration(cfg.Metrics.Interval)
	if err != nil {
		err = fmt.Errorf("failed to parse metric collection interval time: %w", err)
		return
	}

	config.applyEnv()
	err = config.validate()
	return
}

// Overrides file values with environment variables when set
func (cfg *Config) applyEnv() {
	if value, ok := os.LookupEnv(EnvBrokers); ok && strings.TrimSpace(value) != "" {
		cfg.Brokers = nil
		for _, broker := range strings.Split(value, ",") {
			broker = strings.TrimSpace(broker)
			if broker != "" {
				cfg.Brokers = append(cfg.Brokers, broker)
			}
		}
	}
	if value, ok := os.LookupEnv(EnvTopic); ok && value != "" {
		cfg.Topic = value
	}
	if value, ok := os.LookupEnv(EnvReceiveURL); ok && value != "" {
		cfg.ReceiveURL = value
	}
}

func (cfg Config) validate() (err error) {
	if cfg.Topic == "" {
		err = fmt.Errorf("no topic configured (set kafka.topic or %s)", EnvTopic)
		return
	}
	if cfg.ReceiveURL == "" && cfg.BeatsEndpoint == "" && cfg.JournaldURL == "" && cfg.FilePath == "" {
		err = fmt.Errorf("no output configured (set outputs.receiveURL or %s)", EnvReceiveURL)
		return
	}
	if cfg.PayloadEncoding != "" && !protocol.ValidEncoding(cfg.PayloadEncoding) {
		err = fmt.Errorf("unknown payload encoding %q (expected %s, %s or %s)", cfg.PayloadEncoding,
			protocol.EncodingUTF16LE, protocol.EncodingUTF8, protocol.EncodingBase64)
		return
	}
	if cfg.MaxRetry < 0 {
		err = fmt.Errorf("maximum retry must not be negative")
		return
	}
	if cfg.CacheMemoryPct < 0 || cfg.CacheMemoryPct > 100 {
		err = fmt.Errorf("cache memory percent must be between 0 and 100")
		return
	}
	return
}

// Sets defaults for any missing/invalid values
func (cfg *Config) setDefaults() {
	// Transport
	if len(cfg.Brokers) == 0 {
		cfg.Brokers = []string{global.DefaultBrokers}
	}
	if cfg.GroupID == "" {
		cfg.GroupID = global.DefaultConsumerGroup
	}

	// Reassembly
	if cfg.CollectionWindow == 0 {
		cfg.CollectionWindow = global.DefaultCollectWindow
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = global.DefaultPollTimeout
	}
	if cfg.Retention == 0 {
		cfg.Retention = global.DefaultRetention
	}
	if cfg.MaxRetry == 0 {
		cfg.MaxRetry = global.DefaultMaxRetry
	}
	if cfg.CacheMemoryPct == 0 {
		cfg.CacheMemoryPct = global.DefaultCacheMemoryPct
	}

	// Outputs
	if cfg.PayloadEncoding == "" {
		cfg.PayloadEncoding = global.DefaultPayloadEncoding
	}
	if cfg.OutputWorkers == 0 {
		cfg.OutputWorkers = min(runtime.NumCPU(), 4)
	}

	// Queue
	if cfg.MinOutputQueueSize == 0 {
		cfg.MinOutputQueueSize = global.DefaultMinQueueSize
	}
	if cfg.MaxOutputQueueSize == 0 {
		cfg.MaxOutputQueueSize = global.DefaultMaxQueueSize
	}
	if cfg.MaxOutputQueueSize < cfg.MinOutputQueueSize {
		cfg.MaxOutputQueueSize = cfg.MinOutputQueueSize
	}

	// Scaling
	if cfg.AutoscaleCheckInterval == 0 {
		cfg.AutoscaleCheckInterval = 5 * time.Second
	}

	// Metrics
	if cfg.MetricMaxAge == 0 {
		cfg.MetricMaxAge = 1 * time.Hour
	}
	if cfg.MetricQueryServerPort == 0 {
		cfg.MetricQueryServerPort = global.HTTPListenPortConsume
	}
	if cfg.MetricCollectionInterval == 0 {
		cfg.MetricCollectionInterval = time.Duration(15 * time.Second)
	}
}

// Empty strings leave the value unset for setDefaults
func parseOptionalDuration(value string) (duration time.Duration, err error) {
	if value == "" {
		return
	}
	duration, err = time.ParseDuration(value)
	if err == nil && duration < 0 {
		err = fmt.Errorf("duration %q must not be negative", value)
	}
	return
}
