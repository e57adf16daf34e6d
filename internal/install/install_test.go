package install

import (
	"path/filepath"
	"segtransport/internal/global"
	"segtransport/internal/receiver"
	"segtransport/internal/sender"
	"strings"
	"testing"
)

func TestCreateTemplateConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		mode  string
		parse func(path string) error
	}{
		{
			mode: ModeSplit,
			parse: func(path string) error {
				cfg, err := sender.LoadConfig(path)
				if err != nil {
					return err
				}
				_, err = cfg.NewDaemonConf(sender.ModeSplit)
				return err
			},
		},
		{
			mode: ModeProduce,
			parse: func(path string) error {
				cfg, err := sender.LoadConfig(path)
				if err != nil {
					return err
				}
				_, err = cfg.NewDaemonConf(sender.ModeProduce)
				return err
			},
		},
		{
			mode: ModeConsume,
			parse: func(path string) error {
				cfg, err := receiver.LoadConfig(path)
				if err != nil {
					return err
				}
				_, err = cfg.NewDaemonConf()
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			path := filepath.Join(dir, tt.mode+".json")
			if err := CreateTemplateConfig(tt.mode, path); err != nil {
				t.Fatalf("create template: %v", err)
			}
			if err := tt.parse(path); err != nil {
				t.Fatalf("template does not load as a valid config: %v", err)
			}
		})
	}

	if err := CreateTemplateConfig("bogus", filepath.Join(dir, "x.json")); err == nil {
		t.Error("expected error for unknown mode")
	}
	if err := CreateTemplateConfig(ModeSplit, ""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestRenderUnit(t *testing.T) {
	unit, err := renderUnit(ModeConsume)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	expectedExec := "ExecStart=" + global.DefaultBinaryPath + " consume --config " + global.DefaultConfigConsume
	if !strings.Contains(unit, expectedExec) {
		t.Errorf("unit missing %q:\n%s", expectedExec, unit)
	}
	if !strings.Contains(unit, "Type=notify-reload") {
		t.Error("unit must use notify-reload for SIGHUP reloads")
	}

	if got := filepath.Base(unitPath(ModeSplit)); got != "segtransport-split.service" {
		t.Errorf("unit name = %s", got)
	}

	if _, err := renderUnit("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
