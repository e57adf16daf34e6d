package lifecycle

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"testing"
)

type fakeDaemon struct {
	starts    int
	shutdowns int
	startErr  error
}

func (daemon *fakeDaemon) Start(ctx context.Context) error {
	daemon.starts++
	return daemon.startErr
}

func (daemon *fakeDaemon) Shutdown() {
	daemon.shutdowns++
}

func testCtx() (ctx context.Context) {
	ctx = logctx.New(context.Background(), global.NSTest, global.VerbosityNone, make(chan struct{}))
	return
}

func TestReloadDaemon(t *testing.T) {
	tests := []struct {
		name          string
		reloadErr     error
		nextStartErr  error
		expectNext    bool
		expectOldDown int
		expectOldUp   int
	}{
		{name: "swap", expectNext: true, expectOldDown: 1},
		{name: "bad config keeps daemon", reloadErr: errors.New("invalid config")},
		{name: "failed start restores daemon", nextStartErr: errors.New("port in use"), expectOldDown: 1, expectOldUp: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvNotifySocket, "")

			current := &fakeDaemon{}
			next := &fakeDaemon{startErr: tt.nextStartErr}
			reload := func() (DaemonLike, error) {
				if tt.reloadErr != nil {
					return nil, tt.reloadErr
				}
				return next, nil
			}

			running := reloadDaemon(testCtx(), current, reload)

			if (running == DaemonLike(next)) != tt.expectNext {
				t.Errorf("running daemon swapped = %t, want %t", running == DaemonLike(next), tt.expectNext)
			}
			if current.shutdowns != tt.expectOldDown || current.starts != tt.expectOldUp {
				t.Errorf("old daemon shutdowns %d starts %d", current.shutdowns, current.starts)
			}
		})
	}
}

func TestNotify(t *testing.T) {
	t.Setenv(EnvNotifySocket, "")
	if err := NotifyReady(testCtx()); err != nil {
		t.Fatalf("notify without systemd should be a no-op: %v", err)
	}

	sockPath := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: sockPath, Net: "unixgram"})
	if err != nil {
		t.Skipf("unix datagram sockets unavailable: %v", err)
	}
	defer conn.Close()

	t.Setenv(EnvNotifySocket, sockPath)
	if err := NotifyReady(testCtx()); err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != ReadyMessage {
		t.Errorf("got %q, want %q", buf[:n], ReadyMessage)
	}

	if err := NotifyReload(testCtx()); err != nil {
		t.Fatalf("reload notify failed: %v", err)
	}
	n, _ = conn.Read(buf)
	if len(buf[:n]) < len("RELOADING=1") || string(buf[:len("RELOADING=1")]) != "RELOADING=1" {
		t.Errorf("unexpected reload message %q", buf[:n])
	}
}
