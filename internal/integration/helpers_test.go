// Package integration exercises the HTTP API, the MCP endpoint and both PAAPI
// clients working together.
package integration

import (
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	paapigate "github.com/Sentinel-Gate/paapigate/sdks/go"

	httpapi "github.com/Sentinel-Gate/paapigate/internal/adapter/inbound/http"
	"github.com/Sentinel-Gate/paapigate/internal/adapter/inbound/mcpserver"
	"github.com/Sentinel-Gate/paapigate/internal/adapter/outbound/memory"
	"github.com/Sentinel-Gate/paapigate/internal/domain/auth"
	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
	"github.com/Sentinel-Gate/paapigate/internal/port/outbound"
	"github.com/Sentinel-Gate/paapigate/internal/service"
)

const testAPIKey = "integration-key"

var testCreds = paapi.Credentials{
	AccessKey:   "AKIDEXAMPLE",
	SecretKey:   "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
	PartnerTag:  "stored-20",
	Marketplace: "www.amazon.com",
}

// testLogger returns a logger that writes to stderr at error level (quiet tests).
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// gateway is a running HTTP API backed by a PAAPI client.
type gateway struct {
	server   *httptest.Server
	stats    *service.StatsService
	registry *prometheus.Registry
	metrics  *httpapi.Metrics
}

// sdk returns an SDK client authenticated with the test key.
func (g *gateway) sdk(opts ...paapigate.Option) *paapigate.Client {
	base := []paapigate.Option{
		paapigate.WithServerAddr(g.server.URL),
		paapigate.WithAPIKey(testAPIKey),
		paapigate.WithMaxRetries(0),
	}
	return paapigate.NewClient(append(base, opts...)...)
}

// startGateway wires the services, the MCP server and the HTTP transport the
// way the start command does, and serves them on a test server.
func startGateway(t *testing.T, client outbound.PAAPIClient, opts ...httpapi.Option) *gateway {
	t.Helper()
	logger := testLogger()

	registry := httpapi.NewRegistry()
	metrics := httpapi.NewMetrics(registry)
	stats := service.NewStatsService()

	invocations := service.NewInvocationService(client, logger, stats, metrics)
	tools := service.NewProductToolService(client, logger, stats, metrics)
	mcpServer := mcpserver.NewServer(invocations, tools, testCreds, "test", logger)

	keys := memory.NewKeyStore(auth.APIKey{Key: "sha256:" + auth.HashKey(testAPIKey), Name: "integration"})

	base := []httpapi.Option{
		httpapi.WithLogger(logger),
		httpapi.WithMetrics(registry, metrics),
		httpapi.WithMCPHandler(mcpServer.HTTPHandler()),
		httpapi.WithAuthenticator(auth.NewAPIKeyService(keys)),
		httpapi.WithHealthChecker(httpapi.NewHealthChecker(stats, nil, "test", true, "test")),
	}
	transport := httpapi.NewHTTPTransport(invocations, tools, testCreds, append(base, opts...)...)

	server := httptest.NewServer(transport.Handler())
	t.Cleanup(server.Close)

	return &gateway{server: server, stats: stats, registry: registry, metrics: metrics}
}

// newCatalogClient returns the in-memory client over the sample catalog.
func newCatalogClient(t *testing.T) *memory.CatalogClient {
	t.Helper()
	catalog, err := memory.LoadCatalogFile("")
	if err != nil {
		t.Fatalf("LoadCatalogFile() error = %v", err)
	}
	client, err := memory.NewCatalogClient(catalog)
	if err != nil {
		t.Fatalf("NewCatalogClient() error = %v", err)
	}
	return client
}
