package sender

import (
	"encoding/json"
	"fmt"
	"os"
	"segtransport/internal/global"
	"strings"
	"time"
)

// Environment overrides applied on top of the config file
const (
	EnvListen  string = "LISTEN"
	EnvBrokers string = "BROKERS"
	EnvTopic   string = "TOPIC"
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

// Parses JSON config into daemon config for the given service
func (cfg JSONConfig) NewDaemonConf(mode Mode) (config Config, err error) {
	if mode != ModeSplit && mode != ModeProduce {
		err = fmt.Errorf("unknown service mode %q", mode)
		return
	}
	config.Mode = mode

	config.ListenAddr = cfg.Listen
	config.ChunkByteSize = cfg.ChunkByteSize
	config.CodeServiceURL = cfg.CodeServiceURL
	config.CompressBodies = cfg.CompressBodies
	config.Brokers = cfg.Kafka.Brokers
	config.Topic = cfg.Kafka.Topic

	// Metric settings
	config.MetricQueryServerEnabled = cfg.Metrics.EnableQueryServer
	config.MetricQueryServerPort = cfg.Metrics.QueryServerPort
	if cfg.Metrics.MaxAge != "" {
		config.MetricMaxAge, err = time.ParseDuration(cfg.Metrics.MaxAge)
		if err != nil {
			err = fmt.Errorf("failed to parse metric max age time: %w", err)
			return
		}
	}
	if cfg.Metrics.Interval != "" {
		config.MetricCollectionInterval, err = time.ParseDuration(cfg.Metrics.Interval)
		if err != nil {
			err = fmt.Errorf("failed to parse metric collection interval time: %w", err)
			return
		}
	}

	if config.ChunkByteSize < 0 {
		err = fmt.Errorf("chunk byte size must be positive")
		return
	}

	config.applyEnv()

	if mode == ModeProduce && config.Topic == "" {
		err = fmt.Errorf("no topic configured (set kafka.topic or %s)", EnvTopic)
		return
	}
	return
}

// Overrides file values with environment variables when set
func (cfg *Config) applyEnv() {
	if value, ok := os.LookupEnv(EnvListen); ok && value != "" {
		cfg.ListenAddr = value
	}
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
}

// Split publishes straight to the broker only when a topic is configured
func (cfg Config) publishesDirect() bool {
	return cfg.Mode == ModeProduce || cfg.Topic != ""
}

// Sets defaults for any missing/invalid values
func (cfg *Config) setDefaults() {
	if cfg.ListenAddr == "" {
		switch cfg.Mode {
		case ModeProduce:
			cfg.ListenAddr = global.DefaultProduceListen
		default:
			cfg.ListenAddr = global.DefaultSplitListen
		}
	}
	if cfg.ChunkByteSize == 0 {
		cfg.ChunkByteSize = global.DefaultChunkByteSize
	}
	if cfg.CodeServiceURL == "" {
		cfg.CodeServiceURL = global.DefaultCodeServiceURL
	}
	if len(cfg.Brokers) == 0 {
		cfg.Brokers = []string{global.DefaultBrokers}
	}

	// Metrics
	if cfg.MetricMaxAge == 0 {
		cfg.MetricMaxAge = 1 * time.Hour
	}
	if cfg.MetricQueryServerPort == 0 {
		switch cfg.Mode {
		case ModeProduce:
			cfg.MetricQueryServerPort = global.HTTPListenPortProduce
		default:
			cfg.MetricQueryServerPort = global.HTTPListenPortSplit
		}
	}
	if cfg.MetricCollectionInterval == 0 {
		cfg.MetricCollectionInterval = time.Duration(15 * time.Second)
	}
}
