// Package daemon runs the bridges and background loops for one runtime.
package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/ppiankov/offhours/internal/api"
	"github.com/ppiankov/offhours/internal/app"
	"github.com/ppiankov/offhours/internal/bridge"
	"github.com/ppiankov/offhours/internal/heuristics"
	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/server"
)

// shutdownTimeout bounds the HTTP drain on exit.
const shutdownTimeout = 5 * time.Second

// pruneInterval is how often idle auto-reply dedup entries are dropped.
const pruneInterval = 10 * time.Minute

// DefaultPIDPath returns ~/.offhours/offhours.pid.
func DefaultPIDPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".offhours", "offhours.pid")
}

// Daemon serves one runtime.
type Daemon struct {
	rt      *app.Runtime
	pidPath string
	log     *logger.Logger

	// ready, if set, receives the bound addresses once listening.
	ready func(grpcAddr, httpAddr string)
}

// New creates a daemon. An empty pidPath skips the single-instance lock.
func New(rt *app.Runtime, pidPath string) *Daemon {
	return &Daemon{rt: rt, pidPath: pidPath, log: logger.Named("daemon")}
}

// Run serves until ctx is cancelled or a listener fails.
func (d *Daemon) Run(ctx context.Context) error {
	if d.pidPath != "" {
		if err := os.MkdirAll(filepath.Dir(d.pidPath), 0o750); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
		if err := acquirePIDLock(d.pidPath); err != nil {
			return fmt.Errorf("acquire PID lock: %w", err)
		}
		defer func() { _ = os.Remove(d.pidPath) }()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := d.rt.Config
	svc := bridge.NewService(d.rt)
	errc := make(chan error, 2)

	var grpcSrv *server.Server
	var grpcAddr string
	if cfg.Listen.GRPC != "" {
		lis, err := listen(cfg.Listen.GRPC)
		if err != nil {
			return err
		}
		grpcAddr = lis.Addr().String()
		grpcSrv = server.New(svc)
		go func() { errc <- grpcSrv.ServeOn(lis) }()
	}

	var httpSrv *api.Server
	var httpAddr string
	if cfg.Listen.HTTP != "" {
		lis, err := listen(cfg.Listen.HTTP)
		if err != nil {
			if grpcSrv != nil {
				grpcSrv.GracefulStop()
			}
			return err
		}
		httpAddr = lis.Addr().String()
		httpSrv = api.NewServer(cfg.Listen.HTTP, svc)
		go func() { errc <- httpSrv.Serve(lis) }()
	}

	if cfg.DND.Interval > 0 {
		go d.rt.DND.Run(ctx, cfg.DND.Interval)
	}
	if cfg.AutoReply.Dedup.Enabled() {
		go d.prune(ctx)
	}
	d.watchHeuristics(ctx)

	d.log.Info().Str("grpc", grpcAddr).Str("http", httpAddr).Msg("offhours daemon started")
	if d.ready != nil {
		d.ready(grpcAddr, httpAddr)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			runErr = fmt.Errorf("listener failed: %w", err)
		}
	}

	cancel()
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if httpSrv != nil {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := httpSrv.Shutdown(sctx); err != nil && runErr == nil {
			runErr = fmt.Errorf("http shutdown: %w", err)
		}
	}
	d.log.Info().Msg("offhours daemon stopped")
	return runErr
}

func (d *Daemon) watchHeuristics(ctx context.Context) {
	path := d.rt.Config.Heuristics
	if path == "" {
		path = heuristics.DefaultPath()
	}
	r, err := server.NewReloader(d.rt.ReloadHeuristics, path)
	if err != nil {
		d.log.Warn().Err(err).Msg("heuristics hot-reload disabled")
		return
	}
	if r.Watching() == 0 {
		_ = r.Close()
		return
	}
	go func() { _ = r.Run(ctx) }()
}

func (d *Daemon) prune(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := d.rt.Limiter.Prune()
			d.log.Debug().Int("senders", n).Msg("auto-reply dedup pruned")
		}
	}
}

func acquirePIDLock(path string) error {
	if data, err := os.ReadFile(path); err == nil {
		if pid, err := strconv.Atoi(string(data)); err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("another daemon is running (PID %d)", pid)
				}
			}
		}
		// Stale PID file.
		_ = os.Remove(path)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func listen(addr string) (net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return lis, nil
}
