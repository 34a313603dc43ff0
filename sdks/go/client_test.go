package paapigate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestInvoke(t *testing.T) {
	var received batchRequest[Parameters]

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/invoke" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content-type: %s", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[`+
			`{"success":true,"ItemsResult":{"Items":[{"ASIN":"B08N5WRWNW"}]}},`+
			`{"success":false,"errorMessage":"The ItemId B000 is not accessible.","errors":[{"Code":"InvalidParameterValue","Message":"The ItemId B000 is not accessible."}]}`+
			`]}`)
	}))
	defer server.Close()

	client := NewClient(
		WithServerAddr(server.URL),
		WithAPIKey("test-key"),
	)

	results, err := client.Invoke(context.Background(), []Parameters{
		{Operation: OperationGetItems, ItemIDs: "B08N5WRWNW", Resources: []string{"ItemInfo.Title"}},
		{Operation: OperationGetItems, ItemIDs: "B000", AdditionalOptions: Options{LanguageOfPreference: "en_US"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(received.Items) != 2 {
		t.Fatalf("expected 2 items sent, got %d", len(received.Items))
	}
	if received.Items[1].AdditionalOptions.LanguageOfPreference != "en_US" {
		t.Errorf("expected language to be sent, got %+v", received.Items[1].AdditionalOptions)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Success {
		t.Errorf("expected first entry to succeed")
	}
	var itemsResult struct {
		Items []struct {
			ASIN string `json:"ASIN"`
		} `json:"Items"`
	}
	found, err := results[0].Decode("ItemsResult", &itemsResult)
	if err != nil || !found {
		t.Fatalf("Decode(ItemsResult) = %v, %v", found, err)
	}
	if len(itemsResult.Items) != 1 || itemsResult.Items[0].ASIN != "B08N5WRWNW" {
		t.Errorf("unexpected items: %+v", itemsResult.Items)
	}

	if results[1].Success {
		t.Errorf("expected second entry to fail")
	}
	if results[1].ErrorMessage != "The ItemId B000 is not accessible." {
		t.Errorf("unexpected error message: %q", results[1].ErrorMessage)
	}
	if len(results[1].Errors) != 1 || results[1].Errors[0].Code != "InvalidParameterValue" {
		t.Errorf("unexpected errors: %+v", results[1].Errors)
	}
}

func TestInvoke_EmptyBatchSkipsServer(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(WithServerAddr(server.URL))
	results, err := client.Invoke(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 || results == nil {
		t.Errorf("expected empty non-nil results, got %v", results)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no requests, got %d", calls.Load())
	}
}

func TestInvoke_ResultCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer server.Close()

	client := NewClient(WithServerAddr(server.URL))
	_, err := client.Invoke(context.Background(), []Parameters{{Operation: OperationGetItems, ItemIDs: "B0"}})
	if err == nil {
		t.Fatal("expected error for missing results")
	}
}

func TestInvokeTools(t *testing.T) {
	var received batchRequest[ToolParameters]

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tools/invoke" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[`+
			`{"success":true,"operation":"searchProducts","results":[{"title":"Echo Dot","asin":"B07FZ8S74R","url":"https://www.amazon.com/dp/B07FZ8S74R","rating":"4.7"}]},`+
			`{"success":true,"operation":"getProductDetails","product":{"asin":"B07FZ8S74R","features":["Voice control"]}}`+
			`]}`)
	}))
	defer server.Close()

	client := NewClient(WithServerAddr(server.URL))
	results, err := client.InvokeTools(context.Background(), []ToolParameters{
		{Operation: ToolSearchProducts, Keywords: "echo dot"},
		{Operation: ToolGetProductDetails, ASIN: "B07FZ8S74R", IncludeFields: []string{"features"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received.Items[1].IncludeFields[0] != "features" {
		t.Errorf("expected includeFields to be sent, got %+v", received.Items[1])
	}

	search := results[0]
	if !search.Success || search.Operation != ToolSearchProducts {
		t.Fatalf("unexpected search envelope: %+v", search)
	}
	if len(search.Results) != 1 || *search.Results[0].Title != "Echo Dot" {
		t.Errorf("unexpected search results: %+v", search.Results)
	}
	if search.Results[0].Rating == nil || *search.Results[0].Rating != "4.7" {
		t.Errorf("expected rating 4.7")
	}
	if search.Results[0].Price != nil {
		t.Errorf("expected absent price to be nil")
	}

	details := results[1]
	if details.Product == nil || *details.Product.ASIN != "B07FZ8S74R" {
		t.Fatalf("unexpected product: %+v", details.Product)
	}
	if len(details.Product.Features) != 1 {
		t.Errorf("expected 1 feature, got %v", details.Product.Features)
	}
}

func TestConvenienceWrappers(t *testing.T) {
	var last ToolParameters
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest[ToolParameters]
		_ = json.NewDecoder(r.Body).Decode(&req)
		last = req.Items[0]
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"results":[{"success":false,"operation":%q,"errorMessage":"nope"}]}`, last.Operation)
	}))
	defer server.Close()

	client := NewClient(WithServerAddr(server.URL))

	env, err := client.SearchProducts(context.Background(), "hub", "title", "price")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last.Operation != ToolSearchProducts || last.Keywords != "hub" || len(last.IncludeFields) != 2 {
		t.Errorf("unexpected search entry: %+v", last)
	}
	if env.Success || env.ErrorMessage != "nope" {
		t.Errorf("unexpected envelope: %+v", env)
	}

	if _, err := client.GetProductDetails(context.Background(), "B0TEST"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last.Operation != ToolGetProductDetails || last.ASIN != "B0TEST" {
		t.Errorf("unexpected details entry: %+v", last)
	}
}

func TestEnvVarConfiguration(t *testing.T) {
	t.Setenv("PAAPIGATE_SERVER_ADDR", "http://test-server:8080")
	t.Setenv("PAAPIGATE_API_KEY", "env-key-123")
	t.Setenv("PAAPIGATE_TIMEOUT", "10")
	t.Setenv("PAAPIGATE_MAX_RETRIES", "5")

	client := NewClient()

	if client.serverAddr != "http://test-server:8080" {
		t.Errorf("expected server_addr from env, got %s", client.serverAddr)
	}
	if client.apiKey != "env-key-123" {
		t.Errorf("expected api_key from env, got %s", client.apiKey)
	}
	if client.timeout != 10*time.Second {
		t.Errorf("expected timeout=10s from env, got %v", client.timeout)
	}
	if client.maxRetries != 5 {
		t.Errorf("expected max_retries=5 from env, got %d", client.maxRetries)
	}
}

func TestDefaults(t *testing.T) {
	t.Setenv("PAAPIGATE_SERVER_ADDR", "")
	t.Setenv("PAAPIGATE_TIMEOUT", "not-a-duration")
	t.Setenv("PAAPIGATE_MAX_RETRIES", "")

	client := NewClient()
	if client.serverAddr != "http://127.0.0.1:8080" {
		t.Errorf("expected default server addr, got %s", client.serverAddr)
	}
	if client.timeout != 30*time.Second {
		t.Errorf("expected default timeout, got %v", client.timeout)
	}
	if client.maxRetries != 2 {
		t.Errorf("expected default retries, got %d", client.maxRetries)
	}
	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("expected http client timeout to follow timeout, got %v", client.httpClient.Timeout)
	}
}

func TestUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid API key"}`)
	}))
	defer server.Close()

	client := NewClient(WithServerAddr(server.URL), WithAPIKey("wrong"))
	_, err := client.Invoke(context.Background(), []Parameters{{Operation: OperationGetItems, ItemIDs: "B0"}})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Message != "invalid API key" {
		t.Errorf("expected server message, got %q", apiErr.Message)
	}
}

func TestBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "plain failure", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(WithServerAddr(server.URL))
	_, err := client.InvokeTools(context.Background(), []ToolParameters{{Operation: ToolSearchProducts, Keywords: "x"}})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "plain failure" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("400 should not match ErrUnauthorized")
	}
}

func TestRateLimitRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[{"success":true}]}`)
	}))
	defer server.Close()

	client := NewClient(WithServerAddr(server.URL))
	results, err := client.Invoke(context.Background(), []Parameters{{Operation: OperationGetItems, ItemIDs: "B0"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !results[0].Success {
		t.Errorf("expected success after retry")
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestRateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(WithServerAddr(server.URL), WithMaxRetries(1))
	_, err := client.Invoke(context.Background(), []Parameters{{Operation: OperationGetItems, ItemIDs: "B0"}})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestRateLimitRetryHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(WithServerAddr(server.URL))
	start := time.Now()
	_, err := client.Invoke(ctx, []Parameters{{Operation: OperationGetItems, ItemIDs: "B0"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("retry did not stop at the deadline")
	}
}

func TestServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	client := NewClient(WithServerAddr(addr), WithTimeout(time.Second))
	_, err := client.Invoke(context.Background(), []Parameters{{Operation: OperationGetItems, ItemIDs: "B0"}})
	if !errors.Is(err, ErrServerUnreachable) {
		t.Fatalf("expected ErrServerUnreachable, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(WithServerAddr(server.URL), WithTimeout(50*time.Millisecond))
	_, err := client.Invoke(context.Background(), []Parameters{{Operation: OperationGetItems, ItemIDs: "B0"}})
	if !errors.Is(err, ErrServerUnreachable) {
		t.Fatalf("expected ErrServerUnreachable on client timeout, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		code := int(status.Load())
		w.WriteHeader(code)
		if code == http.StatusOK {
			fmt.Fprint(w, `{"status":"healthy","checks":{"paapi_client":"amazon"},"version":"0.1.0"}`)
		} else {
			fmt.Fprint(w, `{"status":"unhealthy","checks":{"credentials":"missing"}}`)
		}
	}))
	defer server.Close()

	client := NewClient(WithServerAddr(server.URL))

	h, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Status != "healthy" || h.Version != "0.1.0" || h.Checks["paapi_client"] != "amazon" {
		t.Errorf("unexpected health: %+v", h)
	}

	status.Store(http.StatusServiceUnavailable)
	h, err = client.Health(context.Background())
	if err != nil {
		t.Fatalf("unhealthy server should not be an error: %v", err)
	}
	if h.Status != "unhealthy" || h.Checks["credentials"] != "missing" {
		t.Errorf("unexpected health: %+v", h)
	}
}

func TestEnvelopeUnmarshal(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"ItemsResult":{}}`), &env); err == nil {
		t.Error("expected error for missing success field")
	}

	if err := json.Unmarshal([]byte(`{"success":true,"SearchResult":{"TotalResultCount":3}}`), &env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var search struct {
		TotalResultCount int `json:"TotalResultCount"`
	}
	if found, err := env.Decode("SearchResult", &search); !found || err != nil || search.TotalResultCount != 3 {
		t.Errorf("Decode(SearchResult) = %v, %v, %+v", found, err, search)
	}
	if found, _ := env.Decode("ItemsResult", &search); found {
		t.Error("expected absent member to be reported missing")
	}
	if _, ok := env.Fields["success"]; ok {
		t.Error("success should not be kept as a field")
	}

	if err := json.Unmarshal([]byte(`{"success":false,"errorMessage":"Keywords is required"}`), &env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Success || env.ErrorMessage != "Keywords is required" || env.Fields != nil {
		t.Errorf("unexpected failure envelope: %+v", env)
	}
	if found, _ := env.Decode("SearchResult", &search); found {
		t.Error("failed envelope should not decode members")
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Second},
		{"0", 0},
		{"7", 7 * time.Second},
		{" 2 ", 2 * time.Second},
		{"-1", time.Second},
		{"Wed, 21 Oct 2015 07:28:00 GMT", time.Second},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestErrorTypes(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := &Error{StatusCode: 415, Message: "content type must be application/json"}
		if err.Error() != "paapigate [HTTP_415]: content type must be application/json" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("RateLimitedError", func(t *testing.T) {
		err := &RateLimitedError{RetryAfter: 3 * time.Second}
		if err.Error() != "rate limited, retry after 3s" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
		if !errors.Is(err, ErrRateLimited) {
			t.Error("RateLimitedError should match ErrRateLimited")
		}
	})

	t.Run("ServerUnreachableError", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := &ServerUnreachableError{Cause: cause}
		if err.Error() != "server unreachable: connection refused" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
		if !errors.Is(err, ErrServerUnreachable) {
			t.Error("ServerUnreachableError should match ErrServerUnreachable")
		}
		if errors.Unwrap(err) != cause {
			t.Error("Unwrap should return cause")
		}
	})
}

func TestWithHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[{"success":true}]}`)
	}))
	defer server.Close()

	customClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	client := NewClient(
		WithServerAddr(server.URL),
		WithHTTPClient(customClient),
	)

	if client.httpClient != customClient {
		t.Error("expected custom http client to be used")
	}
	if _, err := client.Invoke(context.Background(), []Parameters{{Operation: OperationGetItems, ItemIDs: "B0"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
