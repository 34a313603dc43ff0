package http

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
	"github.com/Sentinel-Gate/paapigate/internal/port/inbound"
	"github.com/Sentinel-Gate/paapigate/internal/service"
)

// DefaultAddr binds to localhost only.
const DefaultAddr = "127.0.0.1:8080"

// HTTPTransport is the inbound adapter serving the batch API, the MCP
// streamable endpoint, health and metrics on one listener.
type HTTPTransport struct {
	invocations *service.InvocationService
	tools       *service.ProductToolService
	creds       paapi.Credentials

	server          *http.Server
	addr            string
	allowedOrigins  []string
	certFile        string
	keyFile         string
	logger          *slog.Logger
	mcpHandler      http.Handler
	authenticator   Authenticator
	limiter         *CallerLimiter
	cleanupInterval time.Duration
	registry        *prometheus.Registry
	metrics         *Metrics
	healthChecker   *HealthChecker

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// Option is a functional option for configuring HTTPTransport.
type Option func(*HTTPTransport)

// WithAddr sets the listen address for the HTTP server.
func WithAddr(addr string) Option {
	return func(t *HTTPTransport) {
		t.addr = addr
	}
}

// WithTLS enables TLS with the provided certificate and key files.
func WithTLS(certFile, keyFile string) Option {
	return func(t *HTTPTransport) {
		t.certFile = certFile
		t.keyFile = keyFile
	}
}

// WithAllowedOrigins sets the allowed origins for DNS rebinding protection.
// If empty, all requests with an Origin header are blocked (local-only mode).
func WithAllowedOrigins(origins []string) Option {
	return func(t *HTTPTransport) {
		t.allowedOrigins = origins
	}
}

// WithLogger sets the logger for the HTTP transport.
func WithLogger(logger *slog.Logger) Option {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

// WithMCPHandler mounts an MCP streamable HTTP handler at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(t *HTTPTransport) {
		t.mcpHandler = h
	}
}

// WithAuthenticator requires API keys on every route except /health and
// /metrics.
func WithAuthenticator(a Authenticator) Option {
	return func(t *HTTPTransport) {
		t.authenticator = a
	}
}

// WithRateLimiter enables per-caller rate limiting. Idle entries are
// pruned every cleanupInterval while the server runs.
func WithRateLimiter(l *CallerLimiter, cleanupInterval time.Duration) Option {
	return func(t *HTTPTransport) {
		t.limiter = l
		t.cleanupInterval = cleanupInterval
	}
}

// WithMetrics uses reg and m instead of a private registry, so the same
// Metrics can be handed to the services as a recorder.
func WithMetrics(reg *prometheus.Registry, m *Metrics) Option {
	return func(t *HTTPTransport) {
		t.registry = reg
		t.metrics = m
	}
}

// WithHealthChecker sets the health checker for the /health endpoint.
func WithHealthChecker(hc *HealthChecker) Option {
	return func(t *HTTPTransport) {
		t.healthChecker = hc
	}
}

// NewRegistry returns a Prometheus registry with the Go and process
// collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewHTTPTransport creates an HTTP transport adapter. Batch entries run with
// creds.
func NewHTTPTransport(
	invocations *service.InvocationService,
	tools *service.ProductToolService,
	creds paapi.Credentials,
	opts ...Option,
) *HTTPTransport {
	t := &HTTPTransport{
		invocations:     invocations,
		tools:           tools,
		creds:           creds,
		addr:            DefaultAddr,
		allowedOrigins:  []string{},
		logger:          slog.Default(),
		cleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.registry == nil {
		t.registry = NewRegistry()
		t.metrics = NewMetrics(t.registry)
	}
	return t
}

// Handler builds the routed handler with its middleware chain.
func (t *HTTPTransport) Handler() http.Handler {
	// Middleware order (outermost first):
	// 1. MetricsMiddleware - Record duration and status (outermost to capture full duration)
	// 2. RequestID - Extract/generate request ID and enrich logger
	// 3. RealIP - Extract client IP from X-Forwarded-For
	// 4. DNSRebinding - Security check for Origin header
	// 5. APIKey - Authenticate the caller
	// 6. RateLimit - Per-caller budget
	protect := func(h http.Handler) http.Handler {
		h = RateLimitMiddleware(t.limiter, t.metrics)(h)
		h = APIKeyMiddleware(t.authenticator)(h)
		h = DNSRebindingProtection(t.allowedOrigins)(h)
		h = RealIPMiddleware(h)
		return h
	}

	mux := http.NewServeMux()
	if t.healthChecker != nil {
		mux.Handle("/health", t.healthChecker.Handler())
	} else {
		mux.Handle("/health", healthHandler())
	}
	mux.Handle("/metrics", promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{
		Registry: t.registry,
	}))
	mux.Handle("/v1/invoke", protect(invokeHandler(t.invocations, t.creds, t.metrics)))
	mux.Handle("/v1/tools/invoke", protect(toolsHandler(t.tools, t.creds, t.metrics)))
	if t.mcpHandler != nil {
		mux.Handle("/mcp", protect(t.mcpHandler))
		mux.Handle("/mcp/", protect(t.mcpHandler))
	}
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	}))

	var handler http.Handler = mux
	handler = RequestIDMiddleware(t.logger)(handler)
	handler = MetricsMiddleware(t.metrics)(handler)
	return handler
}

// Addr returns the bound address once Start is listening, or the configured
// address before that.
func (t *HTTPTransport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.addr
}

// Start begins accepting HTTP connections.
// It blocks until the context is cancelled or an error occurs.
func (t *HTTPTransport) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if t.certFile != "" && t.keyFile != "" {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	t.mu.Lock()
	t.server = server
	t.listener = ln
	t.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if t.limiter != nil && t.cleanupInterval > 0 {
		t.wg.Add(1)
		go t.cleanupLoop(runCtx)
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if t.certFile != "" && t.keyFile != "" {
			t.logger.Info("starting HTTPS server", "addr", ln.Addr().String())
			err = server.ServeTLS(ln, t.certFile, t.keyFile)
		} else {
			t.logger.Info("starting HTTP server", "addr", ln.Addr().String())
			err = server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		t.logger.Info("context cancelled, shutting down HTTP server")
		err := t.shutdown()
		cancel()
		t.wg.Wait()
		return err
	case err := <-errCh:
		cancel()
		t.wg.Wait()
		return err
	}
}

func (t *HTTPTransport) cleanupLoop(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining := t.limiter.Cleanup()
			t.metrics.RateLimitKeys.Set(float64(remaining))
		}
	}
}

// shutdown performs graceful shutdown of the HTTP server.
func (t *HTTPTransport) shutdown() error {
	t.mu.Lock()
	server := t.server
	t.mu.Unlock()
	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.logger.Error("error during server shutdown", "error", err)
		return err
	}
	t.logger.Info("HTTP server shutdown complete")
	return nil
}

// Close gracefully shuts down the transport.
func (t *HTTPTransport) Close() error {
	return t.shutdown()
}

var _ inbound.Transport = (*HTTPTransport)(nil)
