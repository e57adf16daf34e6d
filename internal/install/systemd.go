package install

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"segtransport/internal/global"
	"strings"
)

const unitTemplate string = `[Unit]
Description=Segmented transport %[1]s daemon
Wants=network-online.target
After=network-online.target

[Service]
Type=notify-reload
ExecStart=%[2]s %[1]s --config %[3]s
Restart=on-failure
RestartSec=5s
DynamicUser=yes
NoNewPrivileges=yes
ProtectSystem=strict
ProtectHome=yes
PrivateTmp=yes

[Install]
WantedBy=multi-user.target
`

func unitPath(mode string) string {
	return filepath.Join(global.DefaultUnitDir, global.ProgBaseName+"-"+mode+".service")
}

// Unit file text for the daemon kind
func renderUnit(mode string) (unit string, err error) {
	configPath, err := ConfigPath(mode)
	if err != nil {
		return
	}
	unit = fmt.Sprintf(unitTemplate, mode, global.DefaultBinaryPath, configPath)
	return
}

func installService(mode string) (err error) {
	unitFile, err := renderUnit(mode)
	if err != nil {
		return
	}
	unitFilePath := unitPath(mode)
	unitName := filepath.Base(unitFilePath)

	err = os.WriteFile(unitFilePath, []byte(unitFile), 0644)
	if err != nil {
		return
	}

	// Reload for new unit file
	output, err := systemctl("daemon-reload")
	if err != nil {
		err = fmt.Errorf("Failed to reload systemd units: %v: %s", err, output)
		return
	}

	// Check if enabled
	output, err = systemctl("is-enabled", unitName)
	if err != nil {
		if !strings.Contains(output, "disabled") {
			err = fmt.Errorf("Failed to check systemd service enablement status: %v: %s", err, output)
			return
		}
		// Disabled status is exit code 1
		err = nil
	}
	enableStatus := strings.Trim(output, "\n")

	if strings.ToLower(enableStatus) != "enabled" {
		output, err = systemctl("enable", unitName)
		if err != nil {
			err = fmt.Errorf("Failed to enable systemd service: %v: %s", err, output)
			return
		}
	}

	fmt.Printf("Successfully installed Systemd service\n")
	fmt.Printf("  IMPORTANT: modify the configuration to your needs and start the service with 'systemctl start %s'\n", unitName)
	return
}

func uninstallService(mode string) (err error) {
	if _, err = ConfigPath(mode); err != nil {
		return
	}
	unitFilePath := unitPath(mode)
	unitName := filepath.Base(unitFilePath)

	// Check if enabled
	output, err := systemctl("is-enabled", unitName)
	if err != nil {
		if !strings.Contains(output, "not-found") && !strings.Contains(output, "disabled") {
			err = fmt.Errorf("Failed to check systemd service enablement status: %v: %s", err, output)
			return
		}
		// Disabled/not-found status is exit code != 0
		err = nil
	}
	enableStatus := strings.Trim(output, "\n")

	if strings.ToLower(enableStatus) == "enabled" {
		output, err = systemctl("disable", "--now", unitName)
		if err != nil {
			err = fmt.Errorf("Failed to disable systemd service: %v: %s", err, output)
			return
		}
	}

	err = os.Remove(unitFilePath)
	if err != nil && !os.IsNotExist(err) {
		return
	}
	err = nil

	// Reload for removed unit file
	output, err = systemctl("daemon-reload")
	if err != nil {
		err = fmt.Errorf("Failed to reload systemd units: %v: %s", err, output)
		return
	}

	fmt.Printf("Successfully uninstalled systemd service\n")
	return
}

func systemctl(args ...string) (output string, err error) {
	command := exec.Command("systemctl", args...)
	raw, err := command.CombinedOutput()
	output = string(raw)
	return
}
