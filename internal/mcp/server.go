package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/taskbg/internal/ipc"
)

const (
	ServerName    = "taskbg"
	ServerVersion = "0.1.0"
)

// Daemon is the control surface of a running daemon.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	Reload() (*ipc.ReloadData, error)
	Reapply() (*ipc.ReapplyData, error)
}

// Server exposes the daemon's control socket as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates an MCP server talking to the daemon through d. A nil d
// uses the default control socket.
func NewServer(d Daemon, logger *slog.Logger) *Server {
	if d == nil {
		d = ipc.NewClient()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		daemon: d,
		logger: logger,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the taskbar background daemon's settings, listener state and every taskbar surface with the policy last applied to it.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload",
		Description: "Reread the configuration file and restyle every taskbar surface with the new settings.",
	}, s.handleReload)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reapply",
		Description: "Re-evaluate every display and write the resolved policy to each taskbar surface. Use after the shell recreated its taskbars.",
	}, s.handleReapply)
}
