package daemon

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/offhours/internal/app"
	"github.com/ppiankov/offhours/internal/bridge"
	"github.com/ppiankov/offhours/internal/client"
	"github.com/ppiankov/offhours/internal/config"
	"github.com/ppiankov/offhours/internal/settings"
)

func testRuntime(t *testing.T) *app.Runtime {
	t.Helper()
	cfg := config.Default()
	cfg.Listen = config.Listen{GRPC: "127.0.0.1:0", HTTP: "127.0.0.1:0"}
	cfg.Heuristics = filepath.Join(t.TempDir(), "heuristics.yaml")
	rt, err := app.New(cfg, app.WithStore(settings.NewMemoryStore(settings.Values{settings.KeyEnabled: "true"})))
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestDaemonServesBothBridges(t *testing.T) {
	d := New(testRuntime(t), filepath.Join(t.TempDir(), "offhours.pid"))
	addrs := make(chan [2]string, 1)
	d.ready = func(g, h string) { addrs <- [2]string{g, h} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	var a [2]string
	select {
	case a = <-addrs:
	case err := <-done:
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not start")
	}

	resp, err := http.Get("http://" + a[1] + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	c, err := client.New(a[0])
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	dec, err := c.Decide(context.Background(), bridge.DecideRequest{})
	if err != nil || dec.Error != "" {
		t.Errorf("decide = %+v, err = %v", dec, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
	if _, err := os.Stat(d.pidPath); !os.IsNotExist(err) {
		t.Error("PID file should be removed on exit")
	}
}

func TestDaemonListenFailure(t *testing.T) {
	rt := testRuntime(t)
	rt.Config.Listen.HTTP = "256.0.0.1:1"
	if err := New(rt, "").Run(context.Background()); err == nil {
		t.Error("expected listen error")
	}
}

func TestPIDLock(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "offhours.pid")

	if err := acquirePIDLock(pidPath); err != nil {
		t.Fatalf("first lock: %v", err)
	}
	// Our own process is running, so a second lock fails.
	if err := acquirePIDLock(pidPath); err == nil {
		t.Error("expected error for duplicate PID lock")
	}
}

func TestPIDLockStaleCleanup(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "offhours.pid")
	if err := os.WriteFile(pidPath, []byte("9999999"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := acquirePIDLock(pidPath); err != nil {
		t.Fatalf("stale PID cleanup failed: %v", err)
	}
}
