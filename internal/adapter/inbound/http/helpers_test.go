package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sentinel-Gate/paapigate/internal/adapter/outbound/memory"
	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
	"github.com/Sentinel-Gate/paapigate/internal/service"
)

var devCreds = paapi.Credentials{
	AccessKey:   "dev",
	SecretKey:   "dev",
	PartnerTag:  "dev-20",
	Marketplace: "www.amazon.com",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestTransport wires the transport to the fixture catalog client.
func newTestTransport(t *testing.T, opts ...Option) *HTTPTransport {
	t.Helper()

	catalog, err := memory.LoadCatalogFile("")
	if err != nil {
		t.Fatalf("LoadCatalogFile() error = %v", err)
	}
	client, err := memory.NewCatalogClient(catalog)
	if err != nil {
		t.Fatalf("NewCatalogClient() error = %v", err)
	}
	logger := discardLogger()

	opts = append([]Option{WithLogger(logger)}, opts...)
	return NewHTTPTransport(
		service.NewInvocationService(client, logger),
		service.NewProductToolService(client, logger),
		devCreds,
		opts...,
	)
}

func post(t *testing.T, h http.Handler, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}
