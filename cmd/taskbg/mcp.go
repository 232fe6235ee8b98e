package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/taskbg/internal/config"
	"github.com/1broseidon/taskbg/internal/logging"
	"github.com/1broseidon/taskbg/internal/mcp"
)

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	Long: `Start the MCP server on stdio. The server talks to a running taskbg
daemon over its control socket and offers the get_status, reload and
reapply tools.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Stdout carries the protocol; logs go to stderr only.
		logger, closer, err := logging.New(config.LoggingConfig{Level: "warn"})
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return mcp.NewServer(nil, logger).Run(ctx)
	},
}
