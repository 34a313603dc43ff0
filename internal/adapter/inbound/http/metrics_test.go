package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	if m.RequestsTotal == nil || m.RequestDuration == nil || m.EntriesTotal == nil ||
		m.BatchSize == nil || m.RateLimitedTotal == nil || m.RateLimitKeys == nil {
		t.Fatal("NewMetrics() left a collector nil")
	}

	// Registering twice on the same registry must panic.
	defer func() {
		if recover() == nil {
			t.Error("second NewMetrics() on the same registry did not panic")
		}
	}()
	NewMetrics(reg)
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Record("getItems", paapi.KindNone)
	m.Record("getItems", paapi.KindNone)
	m.Record("getItems", paapi.KindAPI)
	m.Record("", paapi.KindValidation)

	tests := []struct {
		operation, outcome string
		want               float64
	}{
		{"getItems", "success", 2},
		{"getItems", "api", 1},
		{"unknown", "validation", 1},
		{"searchItems", "success", 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.EntriesTotal.WithLabelValues(tt.operation, tt.outcome))
		if got != tt.want {
			t.Errorf("entries_total{%s,%s} = %v, want %v", tt.operation, tt.outcome, got, tt.want)
		}
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.Record("getItems", paapi.KindNone)
	m.observeBatch("invoke", 3)
}

func TestMetrics_BatchAndEntriesFromHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := newTestTransport(t, WithMetrics(reg, m)).Handler()

	rec := post(t, h, "/v1/invoke", `{"items":[{"operation":"getItems","itemIds":"B08N5KWB9H"},{"operation":"getItems"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if got := testutil.CollectAndCount(m.BatchSize); got != 1 {
		t.Errorf("batch_entries series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/invoke", "ok")); got != 1 {
		t.Errorf("requests_total{/v1/invoke,ok} = %v, want 1", got)
	}

	scrape := httptest.NewRecorder()
	h.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(scrape.Body.String(), "paapigate_batch_entries_count") {
		t.Errorf("/metrics output missing paapigate_batch_entries")
	}
}
