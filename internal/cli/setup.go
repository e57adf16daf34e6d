package cli

import (
	"flag"
	"fmt"
	"os"
	"segtransport/internal/global"
	"segtransport/internal/install"
)

// Setup/installation options
func SetupMode(cliOpts *global.CommandSet, commandname string, args []string) {
	var templateMode string
	var installMode string
	var uninstallMode string
	var templateConfPath string

	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	commandFlags.StringVar(&installMode, "install", "", "Install/Upgrade a daemon <split|produce|consume>")
	commandFlags.StringVar(&uninstallMode, "uninstall", "", "Remove a daemon <split|produce|consume>")
	commandFlags.StringVar(&templateConfPath, "c", "", "Path to template config file")
	commandFlags.StringVar(&templateConfPath, "config", "", "Path to template config file")
	commandFlags.StringVar(&templateMode, "config-template", "", "Create new template config for a daemon (using config-path argument) <split|produce|consume>")

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	if len(args) < 1 {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}
	commandFlags.Parse(args[0:])

	var err error

	if templateMode != "" {
		err = install.CreateTemplateConfig(templateMode, templateConfPath)
	} else if installMode != "" {
		_, err = install.ConfigPath(installMode)
		if err == nil {
			install.Run(installMode)
		}
	} else if uninstallMode != "" {
		_, err = install.ConfigPath(uninstallMode)
		if err == nil {
			install.Remove(uninstallMode)
		}
	} else {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
