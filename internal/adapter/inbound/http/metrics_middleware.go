package http

import (
	"net/http"
	"strings"
	"time"
)

// MetricsMiddleware observes latency and outcome of API requests. Scrapes
// and health probes are not counted.
func MetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/metrics", "/health":
				next.ServeHTTP(w, r)
				return
			}

			began := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)

			route := routeLabel(r.URL.Path)
			metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(began).Seconds())
			metrics.RequestsTotal.WithLabelValues(route, statusToLabel(sr.status)).Inc()
		})
	}
}

// routeLabel maps a request path onto a bounded set of label values.
func routeLabel(path string) string {
	switch {
	case path == "/v1/invoke", path == "/v1/tools/invoke":
		return path
	case path == "/mcp", strings.HasPrefix(path, "/mcp/"):
		return "/mcp"
	default:
		return "other"
	}
}

// statusRecorder remembers the status written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streams from the MCP handler working through the wrapper.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// statusToLabel collapses a status code to "ok" or "error". The envelope
// carries per-entry failures, so only transport-level errors count here.
func statusToLabel(code int) string {
	if code < http.StatusBadRequest {
		return "ok"
	}
	return "error"
}
