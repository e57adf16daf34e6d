package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"segtransport/internal/global"
	"segtransport/internal/lifecycle"
	"segtransport/internal/logctx"
	"segtransport/internal/receiver"
	"segtransport/internal/sender"
)

func SplitMode(ctx context.Context, commandname string, args []string) {
	senderMode(ctx, commandname, args, sender.ModeSplit, global.DefaultConfigSplit)
}

func ProduceMode(ctx context.Context, commandname string, args []string) {
	senderMode(ctx, commandname, args, sender.ModeProduce, global.DefaultConfigProduce)
}

func senderMode(ctx context.Context, commandname string, args []string, mode sender.Mode, defaultConfig string) {
	var configPath, envFile string
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	SetCommon(commandFlags, &configPath, defaultConfig, &envFile)
	parseArgs(ctx, commandFlags, commandname, args)

	load := func() (lifecycle.DaemonLike, error) {
		jsonCfg, err := sender.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		daemonConfig, err := jsonCfg.NewDaemonConf(mode)
		if err != nil {
			return nil, err
		}
		return sender.NewDaemon(daemonConfig), nil
	}

	runDaemon(ctx, envFile, load)
}

func ConsumeMode(ctx context.Context, commandname string, args []string) {
	var configPath, envFile string
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	SetCommon(commandFlags, &configPath, global.DefaultConfigConsume, &envFile)
	parseArgs(ctx, commandFlags, commandname, args)

	load := func() (lifecycle.DaemonLike, error) {
		jsonCfg, err := receiver.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		daemonConfig, err := jsonCfg.NewDaemonConf()
		if err != nil {
			return nil, err
		}
		return receiver.NewDaemon(daemonConfig), nil
	}

	runDaemon(ctx, envFile, load)
}

// Starts the daemon from load and blocks until an exit signal shuts it down
func runDaemon(ctx context.Context, envFile string, load lifecycle.Reloader) {
	err := loadEnvFile(ctx, envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	daemon, err := load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = daemon.Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting daemon: %v\n", err)
		os.Exit(1)
	}

	err = lifecycle.NotifyReady(ctx)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify ready failed: %v\n", err)
	}

	lifecycle.SignalHandler(ctx, daemon, load)
}
