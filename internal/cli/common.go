package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"segtransport/internal/global"
	"segtransport/internal/logctx"

	"github.com/joho/godotenv"
)

func SetGlobalArguments(fs *flag.FlagSet) {
	fs.IntVar(&global.Verbosity, "v", 1, "Increase detailed progress messages (Higher is more verbose) <0...5>")
	fs.IntVar(&global.Verbosity, "verbosity", 1, "Increase detailed progress messages (Higher is more verbose) <0...5>")
}

func SetCommon(fs *flag.FlagSet, configPath *string, defaultPath string, envFile *string) {
	fs.StringVar(configPath, "c", defaultPath, "Path to the configuration file")
	fs.StringVar(configPath, "config", defaultPath, "Path to the configuration file")
	fs.StringVar(envFile, "env-file", global.DefaultEnvFile, "Dotenv file with environment overrides (ignored when missing)")
}

// Parses command arguments, exits on missing arguments
func parseArgs(ctx context.Context, commandFlags *flag.FlagSet, commandname string, args []string) {
	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, global.CmdOpts)
	}
	commandFlags.Parse(args)

	// Command level verbosity overrides root level
	logctx.SetLogLevel(ctx, global.Verbosity)
}

// Loads dotenv overrides. Existing process environment always wins.
func loadEnvFile(ctx context.Context, path string) (err error) {
	if path == "" {
		return
	}

	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		err = nil
		return
	} else if err != nil {
		err = fmt.Errorf("failed checking env file: %w", err)
		return
	}

	err = godotenv.Load(path)
	if err != nil {
		err = fmt.Errorf("failed loading env file '%s': %w", path, err)
		return
	}

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Loaded environment overrides from '%s'\n", path)
	return
}
