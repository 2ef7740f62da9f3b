// Package mcp exposes the decision engine and settings as MCP tools.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/offhours/internal/policy"
	"github.com/ppiankov/offhours/internal/settings"
)

// Server wraps the MCP SDK server.
type Server struct {
	mcpServer *mcpsdk.Server
	store     settings.Store
	engine    *policy.Engine
}

// New creates an MCP server over store. engine must read the same store.
func New(store settings.Store, engine *policy.Engine, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{store: store, engine: engine}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "offhours",
			Version: version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves on stdio. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "offhours_decide",
		Description: "Evaluate whether a feature (calls, fallback, dnd, sms) blocks at a given time or now. Returns the outcome and the reason.",
	}, s.handleDecide)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "offhours_schedule",
		Description: "Show the weekly business-hours schedule, feature switches, timezone and the next opening.",
	}, s.handleSchedule)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "offhours_set",
		Description: "Change one setting, e.g. monday_startHour=8 or sendSMS=false. Invalid keys or values are rejected.",
	}, s.handleSet)
}
