package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"

	"github.com/Sentinel-Gate/paapigate/internal/service"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"` // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version,omitempty"`
}

// HealthChecker verifies component health.
type HealthChecker struct {
	stats      *service.StatsService
	limiter    *CallerLimiter
	clientMode string
	hasCreds   bool
	version    string
}

// NewHealthChecker creates a HealthChecker. clientMode names the PAAPI
// client in use ("amazon" or "catalog"). Pass nil for components that
// aren't available.
func NewHealthChecker(
	stats *service.StatsService,
	limiter *CallerLimiter,
	clientMode string,
	hasCreds bool,
	version string,
) *HealthChecker {
	return &HealthChecker{
		stats:      stats,
		limiter:    limiter,
		clientMode: clientMode,
		hasCreds:   hasCreds,
		version:    version,
	}
}

// Check reports the client mode and component state. Missing credentials
// make the gateway unhealthy since every entry would fail upstream.
func (h *HealthChecker) Check() HealthResponse {
	resp := HealthResponse{
		Status: "healthy",
		Checks: map[string]string{
			"paapi_client": h.clientMode,
			"credentials":  "ok",
			"rate_limiter": "not configured",
			"goroutines":   strconv.Itoa(runtime.NumGoroutine()),
		},
		Version: h.version,
	}

	if !h.hasCreds {
		resp.Checks["credentials"] = "missing"
		resp.Status = "unhealthy"
	}
	if h.limiter != nil {
		resp.Checks["rate_limiter"] = fmt.Sprintf("ok: %d keys", h.limiter.Size())
	}
	if h.stats != nil {
		s := h.stats.GetStats()
		resp.Checks["entries"] = fmt.Sprintf("%d processed, %d succeeded", s.Total(), s.Succeeded)
	}
	return resp
}

// Handler serves Check as JSON, with 503 when unhealthy.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check()
		code := http.StatusOK
		if resp.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	})
}

// healthHandler answers 200 when no checker is configured.
func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}
