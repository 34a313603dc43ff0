package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Sentinel-Gate/paapigate/internal/adapter/outbound/amazon"
	"github.com/Sentinel-Gate/paapigate/internal/adapter/outbound/memory"
	"github.com/Sentinel-Gate/paapigate/internal/adapter/outbound/telemetry"
	"github.com/Sentinel-Gate/paapigate/internal/config"
	"github.com/Sentinel-Gate/paapigate/internal/domain/auth"
	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
	"github.com/Sentinel-Gate/paapigate/internal/port/outbound"
	"github.com/Sentinel-Gate/paapigate/internal/service"
)

// PAAPI client modes reported by /health and the banner.
const (
	clientModeAmazon  = "amazon"
	clientModeCatalog = "catalog"
)

var devMode bool

// loadConfig loads, completes and validates the configuration. The --dev
// flag overrides dev_mode before dev defaults are applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}
	cfg.SetDevDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// newLogger writes text logs to w. Stdout is reserved for MCP and command
// output, so callers pass stderr.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// app holds the components shared by every command.
type app struct {
	cfg         *config.Config
	creds       paapi.Credentials
	clientMode  string
	stats       *service.StatsService
	invocations *service.InvocationService
	tools       *service.ProductToolService
	telemetry   *telemetry.Provider
	logger      *slog.Logger
}

// newApp wires the PAAPI client and the services. Extra recorders observe
// every processed entry alongside the stats service.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, recorders ...service.Recorder) (*app, error) {
	tp, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start telemetry: %w", err)
	}

	client, mode, err := newPAAPIClient(cfg, tp, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	stats := service.NewStatsService()
	recorders = append([]service.Recorder{stats}, recorders...)

	return &app{
		cfg:         cfg,
		creds:       cfg.Credentials.Credentials(),
		clientMode:  mode,
		stats:       stats,
		invocations: service.NewInvocationService(client, logger, recorders...),
		tools:       service.NewProductToolService(client, logger, recorders...),
		telemetry:   tp,
		logger:      logger,
	}, nil
}

// Close flushes telemetry.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", "error", err)
	}
}

// newPAAPIClient returns the fixture catalog client in dev mode and the
// signed HTTPS client otherwise.
func newPAAPIClient(cfg *config.Config, tp *telemetry.Provider, logger *slog.Logger) (outbound.PAAPIClient, string, error) {
	if cfg.DevMode {
		catalog, err := memory.LoadCatalogFile(cfg.PAAPI.CatalogFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load catalog: %w", err)
		}
		client, err := memory.NewCatalogClient(catalog)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create catalog client: %w", err)
		}
		logger.Warn("dev mode: serving the sample catalog, no requests reach Amazon",
			"items", len(catalog.Items),
		)
		return client, clientModeCatalog, nil
	}

	timeout, err := time.ParseDuration(cfg.PAAPI.Timeout)
	if err != nil {
		return nil, "", fmt.Errorf("invalid paapi.timeout: %w", err)
	}
	opts := []amazon.ClientOption{
		amazon.WithTimeout(timeout),
		amazon.WithRateLimit(cfg.PAAPI.RateLimit, cfg.PAAPI.Burst),
		amazon.WithLogger(logger),
		amazon.WithTracerProvider(tp.TracerProvider()),
		amazon.WithMeterProvider(tp.MeterProvider()),
	}
	if cfg.PAAPI.Endpoint != "" {
		opts = append(opts, amazon.WithEndpoint(cfg.PAAPI.Endpoint))
	}
	client, err := amazon.NewClient(opts...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create PAAPI client: %w", err)
	}
	return client, clientModeAmazon, nil
}

// newKeyStore seeds the API key store from configuration.
func newKeyStore(cfg *config.Config) *memory.KeyStore {
	store := memory.NewKeyStore()
	for _, k := range cfg.Auth.APIKeys {
		store.AddKey(auth.APIKey{Key: k.KeyHash, Name: k.Name})
	}
	return store
}
