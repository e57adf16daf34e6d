package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"syscall"
)

type DaemonLike interface {
	Start(ctx context.Context) (err error)
	Shutdown()
}

// Builds a fresh daemon from current configuration
type Reloader func() (DaemonLike, error)

// Handles all incoming signals from external sources. Blocks until an exit
// signal has shut the daemon down. SIGHUP swaps in a daemon from reload; when
// the reload fails the running daemon is kept.
func SignalHandler(ctx context.Context, daemon DaemonLike, reload Reloader) {
	sigChan := make(chan os.Signal, 10)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for sig := range sigChan {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Received signal: %v\n", sig)

		if sig == syscall.SIGHUP && reload != nil {
			daemon = reloadDaemon(ctx, daemon, reload)
			continue
		}

		err := NotifyStopping(ctx)
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify stopping failed: %v\n", err)
		}
		daemon.Shutdown()
		return
	}
}

// Validates new configuration before stopping the running daemon
func reloadDaemon(ctx context.Context, current DaemonLike, reload Reloader) (running DaemonLike) {
	running = current
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Beginning reload...\n")

	err := NotifyReload(ctx)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify reload failed: %v\n", err)
	}
	defer func() {
		err := NotifyReady(ctx)
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify ready failed: %v\n", err)
		}
	}()

	next, err := reload()
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Reload aborted, keeping running daemon: %v\n", err)
		_ = NotifyStatus(ctx, "Reload failed due to configuration error. Check daemon logs.")
		return
	}

	current.Shutdown()

	err = next.Start(ctx)
	if err != nil {
		// Listener ports are free again, the old configuration is known good
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Reloaded daemon failed to start: %v\n", err)
		next.Shutdown()

		err = current.Start(ctx)
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed restarting previous daemon: %v\n", err)
		}
		return
	}

	running = next
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Reload complete\n")
	return
}
