package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	offmcp "github.com/ppiankov/offhours/internal/mcp"
	"github.com/ppiankov/offhours/internal/policy"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs offhours as an MCP (Model Context Protocol) server over stdio.\nExposes tools: offhours_decide, offhours_schedule, offhours_set.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := offmcp.New(store, policy.NewEngine(store), version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(os.Stderr, "offhours MCP server running on stdio")
	return srv.Run(ctx)
}
