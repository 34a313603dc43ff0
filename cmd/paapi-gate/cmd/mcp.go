package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/paapigate/internal/adapter/inbound/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	Long: `Serve the paapi-gate MCP tools over stdin/stdout.

Point an MCP client at this command, for example:

  {
    "mcpServers": {
      "amazon": {"command": "paapi-gate", "args": ["mcp"]}
    }
  }

Logs go to stderr; stdout carries only the MCP stream.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()

	logger := newLogger(cfg, os.Stderr)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcpserver.NewServer(a.invocations, a.tools, a.creds, Version, logger)
	transport := mcpserver.NewStdioTransport(server)
	defer transport.Close()

	logger.Info("serving MCP over stdio", "paapi_client", a.clientMode)
	return transport.Start(ctx)
}
