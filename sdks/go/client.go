package paapigate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Client is the paapi-gate SDK client. It sends batches to the paapi-gate
// HTTP API and decodes one envelope per entry.
type Client struct {
	serverAddr string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new paapi-gate SDK client.
// It reads configuration from PAAPIGATE_* environment variables by default.
// Options can be used to override the defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		serverAddr: envOrDefault("PAAPIGATE_SERVER_ADDR", "http://127.0.0.1:8080"),
		apiKey:     os.Getenv("PAAPIGATE_API_KEY"),
		timeout:    parseDurationEnv("PAAPIGATE_TIMEOUT", 30*time.Second),
		maxRetries: parseIntEnv("PAAPIGATE_MAX_RETRIES", 2),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}

	return c
}

// Invoke runs a batch of PAAPI parameter sets. The returned slice has one
// envelope per entry, in order. Failed entries are reported in their
// envelope, not as an error.
func (c *Client) Invoke(ctx context.Context, params []Parameters) ([]Envelope, error) {
	if len(params) == 0 {
		return []Envelope{}, nil
	}
	var resp batchResponse[Envelope]
	if err := c.doRequest(ctx, http.MethodPost, "/v1/invoke", batchRequest[Parameters]{Items: params}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) != len(params) {
		return nil, fmt.Errorf("server returned %d results for %d entries", len(resp.Results), len(params))
	}
	return resp.Results, nil
}

// InvokeTools runs a batch of searchProducts/getProductDetails entries.
func (c *Client) InvokeTools(ctx context.Context, params []ToolParameters) ([]ToolEnvelope, error) {
	if len(params) == 0 {
		return []ToolEnvelope{}, nil
	}
	var resp batchResponse[ToolEnvelope]
	if err := c.doRequest(ctx, http.MethodPost, "/v1/tools/invoke", batchRequest[ToolParameters]{Items: params}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) != len(params) {
		return nil, fmt.Errorf("server returned %d results for %d entries", len(resp.Results), len(params))
	}
	return resp.Results, nil
}

// SearchProducts is a convenience wrapper for a single searchProducts entry.
func (c *Client) SearchProducts(ctx context.Context, keywords string, includeFields ...string) (ToolEnvelope, error) {
	results, err := c.InvokeTools(ctx, []ToolParameters{{
		Operation:     ToolSearchProducts,
		Keywords:      keywords,
		IncludeFields: includeFields,
	}})
	if err != nil {
		return ToolEnvelope{}, err
	}
	return results[0], nil
}

// GetProductDetails is a convenience wrapper for a single getProductDetails entry.
func (c *Client) GetProductDetails(ctx context.Context, asin string, includeFields ...string) (ToolEnvelope, error) {
	results, err := c.InvokeTools(ctx, []ToolParameters{{
		Operation:     ToolGetProductDetails,
		ASIN:          asin,
		IncludeFields: includeFields,
	}})
	if err != nil {
		return ToolEnvelope{}, err
	}
	return results[0], nil
}

// Health fetches the server health report. An unhealthy server is not an
// error; check Health.Status.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	err := c.doRequest(ctx, http.MethodGet, "/health", nil, &h)
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		if jerr := json.Unmarshal([]byte(apiErr.Message), &h); jerr == nil && h.Status != "" {
			return &h, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// doRequest performs an HTTP request, retrying rate limited attempts after
// the server's Retry-After delay.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, result any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		err := c.send(ctx, method, path, payload, result)
		var limited *RateLimitedError
		if !errors.As(err, &limited) || attempt >= c.maxRetries {
			return err
		}
		c.logger.Warn("paapi-gate rate limited, retrying",
			"path", path,
			"retry_after", limited.RetryAfter,
			"attempt", attempt+1,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(limited.RetryAfter):
		}
	}
}

// send performs a single attempt.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, result any) error {
	url := strings.TrimRight(c.serverAddr, "/") + path

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ServerUnreachableError{Cause: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitedError{RetryAfter: parseRetryAfter(httpResp.Header.Get("Retry-After"))}
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return &Error{
			StatusCode: httpResp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// errorMessage extracts the "error" member of an error body, falling back to
// the raw body.
func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

// parseRetryAfter reads a delay in seconds. Missing or invalid values wait
// one second.
func parseRetryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Second
}

// Helper functions for env var parsing.

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func parseDurationEnv(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	// Try parsing as seconds (integer).
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	// Try parsing as duration string.
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return defaultVal
}

func parseIntEnv(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return defaultVal
}
