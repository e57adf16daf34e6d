package receiver

import (
	"os"
	"path/filepath"
	"segtransport/internal/global"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) (path string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "consume.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return
}

func TestNewDaemonConf(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		env       map[string]string
		expectErr string
		check     func(t *testing.T, cfg Config)
	}{
		{
			name: "full config",
			body: `{
				"kafka": {"brokers": ["k1:9092","k2:9092"], "topic": "segments", "groupID": "g1"},
				"reassembly": {"collectionWindow": "10s", "pollTimeout": "250ms", "retention": "5m", "maxRetry": 5, "maxInflightPasses": 2},
				"outputs": {"receiveURL": "http://localhost:9000/receive", "payloadEncoding": "utf8"},
				"metrics": {"collectionInterval": "5s"}
			}`,
			check: func(t *testing.T, cfg Config) {
				if len(cfg.Brokers) != 2 || cfg.Topic != "segments" || cfg.GroupID != "g1" {
					t.Errorf("transport settings wrong: %+v", cfg)
				}
				if cfg.CollectionWindow != 10*time.Second || cfg.PollTimeout != 250*time.Millisecond ||
					cfg.Retention != 5*time.Minute || cfg.MaxRetry != 5 || cfg.MaxInflightPasses != 2 {
					t.Errorf("reassembly settings wrong: %+v", cfg)
				}
				if cfg.PayloadEncoding != "utf8" || cfg.MetricCollectionInterval != 5*time.Second {
					t.Errorf("output settings wrong: %+v", cfg)
				}
			},
		},
		{
			name: "local sinks without receiving service",
			body: `{"kafka": {"topic": "segments"}, "outputs": {"journaldURL": "http://localhost:19532", "filePath": "/var/log/segments.log"}}`,
			check: func(t *testing.T, cfg Config) {
				if cfg.ReceiveURL != "" || cfg.JournaldURL != "http://localhost:19532" || cfg.FilePath != "/var/log/segments.log" {
					t.Errorf("output settings wrong: %+v", cfg)
				}
			},
		},
		{
			name: "environment overrides file",
			body: `{"kafka": {"brokers": ["file:9092"], "topic": "file-topic"}, "outputs": {"receiveURL": "http://file/receive"}}`,
			env: map[string]string{
				EnvBrokers:    "env1:9092, env2:9092",
				EnvTopic:      "env-topic",
				EnvReceiveURL: "http://env/receive",
			},
			check: func(t *testing.T, cfg Config) {
				if strings.Join(cfg.Brokers, ",") != "env1:9092,env2:9092" {
					t.Errorf("brokers %v", cfg.Brokers)
				}
				if cfg.Topic != "env-topic" || cfg.ReceiveURL != "http://env/receive" {
					t.Errorf("overrides not applied: %+v", cfg)
				}
			},
		},
		{
			name:      "missing topic",
			body:      `{"outputs": {"receiveURL": "http://localhost/receive"}}`,
			expectErr: "no topic",
		},
		{
			name:      "missing output",
			body:      `{"kafka": {"topic": "segments"}}`,
			expectErr: "no output",
		},
		{
			name:      "bad duration",
			body:      `{"kafka": {"topic": "t"}, "outputs": {"receiveURL": "http://x/r"}, "reassembly": {"retention": "forever"}}`,
			expectErr: "retention",
		},
		{
			name:      "unknown encoding",
			body:      `{"kafka": {"topic": "t"}, "outputs": {"receiveURL": "http://x/r", "payloadEncoding": "latin1"}}`,
			expectErr: "encoding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, name := range []string{EnvBrokers, EnvTopic, EnvReceiveURL} {
				t.Setenv(name, tt.env[name])
			}

			jsonCfg, err := LoadConfig(writeConfig(t, tt.body))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			cfg, err := jsonCfg.NewDaemonConf()
			if tt.expectErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.expectErr) {
					t.Fatalf("expected error containing %q, got %v", tt.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestSetDefaults(t *testing.T) {
	var cfg Config
	cfg.setDefaults()

	if cfg.CollectionWindow != global.DefaultCollectWindow || cfg.PollTimeout != global.DefaultPollTimeout {
		t.Errorf("collection defaults wrong: %v %v", cfg.CollectionWindow, cfg.PollTimeout)
	}
	if cfg.Retention != 30*time.Minute || cfg.MaxRetry != 3 {
		t.Errorf("cache defaults wrong: %v %d", cfg.Retention, cfg.MaxRetry)
	}
	if cfg.PayloadEncoding != "utf16le" || cfg.GroupID != global.DefaultConsumerGroup {
		t.Errorf("output defaults wrong: %+v", cfg)
	}
	if cfg.OutputWorkers < 1 || cfg.MaxOutputQueueSize < cfg.MinOutputQueueSize {
		t.Errorf("worker defaults wrong: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("missing file accepted")
	}
	if _, err := LoadConfig(writeConfig(t, "{")); err == nil {
		t.Errorf("invalid json accepted")
	}
}
