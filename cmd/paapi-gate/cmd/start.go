package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/paapigate/internal/adapter/inbound/http"
	"github.com/Sentinel-Gate/paapigate/internal/adapter/inbound/mcpserver"
	"github.com/Sentinel-Gate/paapigate/internal/config"
	"github.com/Sentinel-Gate/paapigate/internal/domain/auth"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the HTTP server",
	Long: `Start the paapi-gate HTTP server.

Endpoints:
  POST /v1/invoke        Batch of PAAPI parameter sets
  POST /v1/tools/invoke  Batch of searchProducts/getProductDetails entries
  /mcp                   MCP tools over streamable HTTP
  GET  /health           Health check
  GET  /metrics          Prometheus metrics

Examples:
  # Start with config file settings
  paapi-gate start

  # Start against the sample catalog, no credentials needed
  paapi-gate start --dev

  # Start with a specific config file
  paapi-gate --config /path/to/config.yaml start`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	go func() {
		<-ctx.Done()
		stop()
	}()

	logger := newLogger(cfg, os.Stderr)
	logger.Debug("log level configured", "level", cfg.Server.LogLevel)
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	// Write PID file so "paapi-gate stop" can find us.
	pidPath := pidFilePath()
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("failed to write PID file", "path", pidPath, "error", err)
	} else {
		defer os.Remove(pidPath)
	}

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}
	logger.Info("paapi-gate stopped")
	return nil
}

// run wires the HTTP transport and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	registry := http.NewRegistry()
	metrics := http.NewMetrics(registry)

	a, err := newApp(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer a.Close()

	mcpServer := mcpserver.NewServer(a.invocations, a.tools, a.creds, Version, logger)

	opts := []http.Option{
		http.WithAddr(cfg.Server.HTTPAddr),
		http.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		http.WithLogger(logger),
		http.WithMetrics(registry, metrics),
		http.WithMCPHandler(mcpServer.HTTPHandler()),
	}

	var limiter *http.CallerLimiter
	if cfg.Server.RateLimit.Enabled {
		cleanup, _ := time.ParseDuration(cfg.Server.RateLimit.CleanupInterval)
		ttl, _ := time.ParseDuration(cfg.Server.RateLimit.MaxTTL)
		limiter = http.NewCallerLimiter(cfg.Server.RateLimit.PerMinute, cfg.Server.RateLimit.Burst, ttl)
		opts = append(opts, http.WithRateLimiter(limiter, cleanup))
	}

	if len(cfg.Auth.APIKeys) > 0 {
		opts = append(opts, http.WithAuthenticator(auth.NewAPIKeyService(newKeyStore(cfg))))
	} else {
		logger.Warn("no api keys configured, the HTTP API accepts unauthenticated requests")
	}

	hasCreds := cfg.Credentials.AccessKey != "" && cfg.Credentials.SecretKey != ""
	opts = append(opts, http.WithHealthChecker(
		http.NewHealthChecker(a.stats, limiter, a.clientMode, hasCreds, Version),
	))

	transport := http.NewHTTPTransport(a.invocations, a.tools, a.creds, opts...)

	printBanner(cfg, a.clientMode)
	return transport.Start(ctx)
}

func printBanner(cfg *config.Config, clientMode string) {
	fmt.Fprintf(os.Stderr, "\n  paapi-gate %s\n", Version)
	fmt.Fprintf(os.Stderr, "  listening on   http://%s\n", cfg.Server.HTTPAddr)
	fmt.Fprintf(os.Stderr, "  marketplace    %s\n", cfg.Credentials.Marketplace)
	fmt.Fprintf(os.Stderr, "  paapi client   %s\n", clientMode)
	fmt.Fprintf(os.Stderr, "  api keys       %d\n", len(cfg.Auth.APIKeys))
	if cfg.DevMode {
		fmt.Fprintf(os.Stderr, "  DEV MODE: sample catalog only\n")
		if len(cfg.Auth.APIKeys) == 1 && cfg.Auth.APIKeys[0].Name == "dev" {
			fmt.Fprintf(os.Stderr, "  dev api key    dev-api-key\n")
		}
	}
	fmt.Fprintln(os.Stderr)
}
