// Handles all installation/setup/configuration
package install

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Daemon kinds with their own config file and service unit
const (
	ModeSplit   string = "split"
	ModeProduce string = "produce"
	ModeConsume string = "consume"
)

// Full installation (idempotent)
func Run(mode string) {
	// Must run as root
	if os.Geteuid() != 0 {
		fmt.Fprintf(os.Stderr, "Installation must be run as root\n")
		os.Exit(1)
	}

	// Move binary (self) into place
	err := installBinary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error installing binary: %v\n", err)
		os.Exit(1)
	}

	// Create template config
	err = installConfig(mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error with template config: %v\n", err)
		os.Exit(1)
	}

	// Create systemd service
	err = installService(mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error with Systemd service: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Installation completed successfully\n")
}

// Full uninstall
func Remove(mode string) {
	if !confirm("Are you SURE you want to uninstall? (this will remove the configuration file)") {
		fmt.Printf("Aborting uninstall\n")
		return
	}

	// Must run as root
	if os.Geteuid() != 0 {
		fmt.Fprintf(os.Stderr, "Uninstall must be run as root\n")
		os.Exit(1)
	}

	err := uninstallService(mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error with Systemd service: %v\n", err)
	}

	err = uninstallConfig(mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error with template config: %v\n", err)
	}

	// Binary is shared between modes, only remove when no other unit remains
	for _, other := range []string{ModeSplit, ModeProduce, ModeConsume} {
		if other == mode {
			continue
		}
		_, err = os.Stat(unitPath(other))
		if err == nil {
			fmt.Printf("Keeping binary, %s service still installed\n", other)
			return
		}
	}

	err = uninstallBinary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error removing binary: %v\n", err)
	}
}

// Asks for a yes/no answer. Without a terminal the answer is always yes.
func confirm(question string) (yes bool) {
	if !isTerminal() {
		yes = true
		return
	}

	fmt.Printf("%s (yes/no): ", question)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	yes = strings.ToLower(input) == "yes"
	return
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
