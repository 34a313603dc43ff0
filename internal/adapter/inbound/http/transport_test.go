package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func waitForListener(t *testing.T, tr *HTTPTransport) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		tr.mu.Lock()
		ln := tr.listener
		tr.mu.Unlock()
		if ln != nil {
			return ln.Addr().String()
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("transport did not start listening")
	return ""
}

func TestHTTPTransport_StartAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := newTestTransport(t,
		WithAddr("127.0.0.1:0"),
		WithRateLimiter(NewCallerLimiter(600, 10, time.Minute), 20*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Start(ctx) }()

	addr := waitForListener(t, tr)
	if tr.Addr() != addr {
		t.Errorf("Addr() = %q, want %q", tr.Addr(), addr)
	}

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}

	resp, err := client.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", resp.StatusCode)
	}

	resp, err = client.Post("http://"+addr+"/v1/invoke", "application/json",
		strings.NewReader(`{"items":[{"operation":"getItems","itemIds":"B08N5KWB9H"}]}`))
	if err != nil {
		t.Fatalf("POST /v1/invoke error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(body), `"success":true`) {
		t.Errorf("POST /v1/invoke body = %s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
	client.CloseIdleConnections()
}

func TestHTTPTransport_StartInvalidAddr(t *testing.T) {
	tr := newTestTransport(t, WithAddr("256.0.0.1:bad"))
	if err := tr.Start(context.Background()); err == nil {
		t.Error("Start() with invalid address expected error")
	}
}

func TestHTTPTransport_CloseBeforeStart(t *testing.T) {
	tr := newTestTransport(t)
	if err := tr.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if tr.Addr() != DefaultAddr {
		t.Errorf("Addr() = %q, want %q", tr.Addr(), DefaultAddr)
	}
}

func TestHTTPTransport_CloseStopsServe(t *testing.T) {
	tr := newTestTransport(t, WithAddr("127.0.0.1:0"))

	done := make(chan error, 1)
	go func() { done <- tr.Start(context.Background()) }()
	waitForListener(t, tr)

	if err := tr.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Close")
	}
}
