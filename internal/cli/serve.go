package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/offhours/internal/app"
	"github.com/ppiankov/offhours/internal/daemon"
)

var (
	serveGRPC    string
	serveHTTP    string
	servePIDFile string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveGRPC, "grpc", "", "gRPC listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveHTTP, "http", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&servePIDFile, "pid-file", daemon.DefaultPIDPath(), "PID lock file (empty disables)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the screening daemon",
	Long: "Serves call screening, message auto-reply, fallback blocking and DND\n" +
		"reconciliation to the device bridge over gRPC and HTTP.\n" +
		"Heuristics files are hot-reloaded.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveGRPC != "" {
		cfg.Listen.GRPC = serveGRPC
	}
	if serveHTTP != "" {
		cfg.Listen.HTTP = serveHTTP
	}

	rt, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to start runtime: %w", err)
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "offhours daemon: grpc=%s http=%s\n", cfg.Listen.GRPC, cfg.Listen.HTTP)
	return daemon.New(rt, servePIDFile).Run(ctx)
}
