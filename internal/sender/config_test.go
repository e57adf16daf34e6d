package sender

import (
	"os"
	"path/filepath"
	"segtransport/internal/global"
	"strings"
	"testing"
)

func TestNewDaemonConf(t *testing.T) {
	tests := []struct {
		name      string
		mode      Mode
		body      string
		env       map[string]string
		expectErr string
		check     func(t *testing.T, cfg Config)
	}{
		{
			name: "split relays by default",
			mode: ModeSplit,
			body: `{"listen": "127.0.0.1:9000", "chunkByteSize": 16, "codeServiceURL": "http://produce:8002/transfer"}`,
			check: func(t *testing.T, cfg Config) {
				if cfg.ListenAddr != "127.0.0.1:9000" || cfg.ChunkByteSize != 16 {
					t.Errorf("settings wrong: %+v", cfg)
				}
				if cfg.publishesDirect() {
					t.Errorf("split without topic should relay")
				}
			},
		},
		{
			name: "split with topic publishes directly",
			mode: ModeSplit,
			body: `{"kafka": {"brokers": ["k:9092"], "topic": "segments"}}`,
			check: func(t *testing.T, cfg Config) {
				if !cfg.publishesDirect() {
					t.Errorf("split with topic should publish")
				}
			},
		},
		{
			name: "environment overrides",
			mode: ModeProduce,
			body: `{"listen": "file:1", "kafka": {"topic": "file-topic"}}`,
			env:  map[string]string{EnvListen: "0.0.0.0:7000", EnvTopic: "env-topic", EnvBrokers: "a:1,b:2"},
			check: func(t *testing.T, cfg Config) {
				if cfg.ListenAddr != "0.0.0.0:7000" || cfg.Topic != "env-topic" || strings.Join(cfg.Brokers, ",") != "a:1,b:2" {
					t.Errorf("overrides not applied: %+v", cfg)
				}
			},
		},
		{
			name:      "produce requires topic",
			mode:      ModeProduce,
			body:      `{}`,
			expectErr: "no topic",
		},
		{
			name:      "unknown mode",
			mode:      Mode("relay"),
			body:      `{}`,
			expectErr: "unknown service mode",
		},
		{
			name:      "negative chunk size",
			mode:      ModeSplit,
			body:      `{"chunkByteSize": -1}`,
			expectErr: "chunk byte size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, name := range []string{EnvListen, EnvBrokers, EnvTopic} {
				t.Setenv(name, tt.env[name])
			}

			path := filepath.Join(t.TempDir(), "cfg.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			jsonCfg, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}

			cfg, err := jsonCfg.NewDaemonConf(tt.mode)
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

func TestSetDefaultsPerMode(t *testing.T) {
	split := Config{Mode: ModeSplit}
	split.setDefaults()
	if split.ListenAddr != global.DefaultSplitListen || split.MetricQueryServerPort != global.HTTPListenPortSplit {
		t.Errorf("split defaults wrong: %+v", split)
	}
	if split.ChunkByteSize != 2 || split.CodeServiceURL != global.DefaultCodeServiceURL {
		t.Errorf("segmenting defaults wrong: %+v", split)
	}

	produce := Config{Mode: ModeProduce}
	produce.setDefaults()
	if produce.ListenAddr != global.DefaultProduceListen || produce.MetricQueryServerPort != global.HTTPListenPortProduce {
		t.Errorf("produce defaults wrong: %+v", produce)
	}
}
