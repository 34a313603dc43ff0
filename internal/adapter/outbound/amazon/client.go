// Package amazon provides the Product Advertising API 5.0 client adapter.
// It signs requests with AWS Signature Version 4, throttles them to the
// account's TPS allowance and decodes responses at the boundary.
package amazon

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
	"github.com/Sentinel-Gate/paapigate/internal/port/outbound"
)

const (
	serviceName     = "ProductAdvertisingAPI"
	targetPrefix    = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1."
	contentEncoding = "amz-1.0"
	contentType     = "application/json; charset=utf-8"

	// maxResponseBodySize bounds how much of a response is read.
	maxResponseBodySize = 10 * 1024 * 1024 // 10MB

	// maxErrorSnippet bounds how much of an undecodable body is quoted in errors.
	maxErrorSnippet = 512

	instrumentationName = "github.com/Sentinel-Gate/paapigate/internal/adapter/outbound/amazon"

	// DefaultTimeout is the HTTP timeout when none is configured.
	DefaultTimeout = 10 * time.Second
)

// Client calls PAAPI over HTTPS. It implements outbound.PAAPIClient and is
// safe for concurrent use.
type Client struct {
	httpClient *http.Client
	signer     *v4.Signer
	limiter    *rate.Limiter
	endpoint   string
	logger     *slog.Logger
	now        func() time.Time

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	requests       metric.Int64Counter
	duration       metric.Float64Histogram
}

var _ outbound.PAAPIClient = (*Client)(nil)

// ClientOption is a functional option for configuring Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout for the HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if c.httpClient != nil && d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithEndpoint overrides the marketplace endpoint with a fixed base URL.
// Requests are still signed for the marketplace's region.
func WithEndpoint(baseURL string) ClientOption {
	return func(c *Client) {
		c.endpoint = strings.TrimRight(baseURL, "/")
	}
}

// WithRateLimit limits outgoing requests to r per second with the given
// burst. A non-positive r disables limiting.
func WithRateLimit(r float64, burst int) ClientOption {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) ClientOption {
	return func(c *Client) {
		c.meterProvider = mp
	}
}

// NewClient creates a PAAPI client. By default it allows one request per
// second, the PAAPI allowance of a new associate account.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		signer:  v4.NewSigner(),
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		logger:  slog.Default(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.endpoint != "" {
		if _, err := url.ParseRequestURI(c.endpoint); err != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", c.endpoint, err)
		}
	}
	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	if c.meterProvider == nil {
		c.meterProvider = otel.GetMeterProvider()
	}

	c.tracer = c.tracerProvider.Tracer(instrumentationName)
	meter := c.meterProvider.Meter(instrumentationName)

	var err error
	c.requests, err = meter.Int64Counter("paapi.client.requests",
		metric.WithDescription("PAAPI requests by operation and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}
	c.duration, err = meter.Float64Histogram("paapi.client.duration",
		metric.WithDescription("PAAPI request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return c, nil
}

// GetItems implements outbound.PAAPIClient.
func (c *Client) GetItems(ctx context.Context, common paapi.CommonParameters, req *paapi.GetItemsRequest) (*paapi.Response, error) {
	return c.call(ctx, paapi.OperationGetItems, common, newGetItemsPayload(common, req))
}

// SearchItems implements outbound.PAAPIClient.
func (c *Client) SearchItems(ctx context.Context, common paapi.CommonParameters, req *paapi.SearchItemsRequest) (*paapi.Response, error) {
	return c.call(ctx, paapi.OperationSearchItems, common, newSearchItemsPayload(common, req))
}

// GetBrowseNodes implements outbound.PAAPIClient.
func (c *Client) GetBrowseNodes(ctx context.Context, common paapi.CommonParameters, req *paapi.GetBrowseNodesRequest) (*paapi.Response, error) {
	return c.call(ctx, paapi.OperationGetBrowseNodes, common, newGetBrowseNodesPayload(common, req))
}

// GetVariations implements outbound.PAAPIClient.
func (c *Client) GetVariations(ctx context.Context, common paapi.CommonParameters, req *paapi.GetVariationsRequest) (*paapi.Response, error) {
	return c.call(ctx, paapi.OperationGetVariations, common, newGetVariationsPayload(common, req))
}

func (c *Client) call(ctx context.Context, op paapi.Operation, common paapi.CommonParameters, payload any) (*paapi.Response, error) {
	ctx, span := c.tracer.Start(ctx, "paapi."+op.Target(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("paapi.operation", op.Target()),
			attribute.String("paapi.marketplace", common.Marketplace),
		),
	)
	defer span.End()

	start := c.now()
	resp, err := c.send(ctx, op, common, payload)

	outcome := "success"
	switch {
	case err != nil:
		outcome = "transport_error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case resp.HasErrors():
		outcome = "api_error"
		span.SetStatus(codes.Error, resp.Errors[0].Code)
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op.Target()),
		attribute.String("outcome", outcome),
	)
	c.requests.Add(ctx, 1, attrs)
	c.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		c.logger.DebugContext(ctx, "paapi request failed",
			"operation", op.Target(),
			"marketplace", common.Marketplace,
			"error", err,
		)
		return nil, &paapi.TransportError{Operation: op, Err: err}
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, op paapi.Operation, common paapi.CommonParameters, payload any) (*paapi.Response, error) {
	if common.AccessKey == "" || common.SecretKey == "" {
		return nil, errors.New("access key and secret key are required")
	}
	marketplace, err := paapi.LookupMarketplace(common.Marketplace)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	base := "https://" + marketplace.Host
	if c.endpoint != "" {
		base = c.endpoint
	}
	endpoint := base + "/paapi5/" + strings.ToLower(op.Target())

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Encoding", contentEncoding)
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("X-Amz-Target", targetPrefix+op.Target())
	httpReq.Header.Set("Accept", "application/json")

	sum := sha256.Sum256(body)
	creds := aws.Credentials{
		AccessKeyID:     common.AccessKey,
		SecretAccessKey: common.SecretKey,
		Source:          "paapi-gate",
	}
	if err := c.signer.SignHTTP(ctx, creds, httpReq, hex.EncodeToString(sum[:]), serviceName, marketplace.Region, c.now()); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	resp, decodeErr := paapi.DecodeResponse(data)
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		// PAAPI reports request errors as a non-2xx status with an Errors body.
		if decodeErr == nil && resp.HasErrors() {
			return resp, nil
		}
		return nil, fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, snippet(data))
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return resp, nil
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet] + "..."
	}
	return s
}
