// Package cmd provides the CLI commands for paapi-gate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/paapigate/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "paapi-gate",
	Short: "paapi-gate - Product Advertising API 5.0 gateway",
	Long: `paapi-gate normalizes batches of Amazon Product Advertising API 5.0 requests
and shapes the responses into per-entry success or failure envelopes.

It serves the four PAAPI operations (GetItems, SearchItems, GetBrowseNodes,
GetVariations) plus a simplified product search/details surface, over an HTTP
batch API, as MCP tools, or straight from the command line.

Quick start:
  1. Create a config file: paapi-gate.yaml
  2. Run: paapi-gate start

  Or try it without credentials against the built-in sample catalog:
     paapi-gate start --dev

Configuration:
  Config is loaded from paapi-gate.yaml in the current directory,
  $HOME/.paapi-gate/, or /etc/paapi-gate/.

  Environment variables can override config values with the PAAPI_GATE_ prefix.
  Example: PAAPI_GATE_CREDENTIALS_ACCESS_KEY=AKIA...

Commands:
  start              Start the HTTP server (batch API + MCP)
  stop               Stop the running server
  mcp                Serve the MCP tools over stdio
  invoke             Run a batch from a file or stdin
  check-credentials  Send a test request with the stored credentials
  hash-key           Generate an Argon2id hash for an API key
  version            Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./paapi-gate.yaml)")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable development mode (sample catalog, placeholder credentials, debug logging)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
