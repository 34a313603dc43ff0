package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/Sentinel-Gate/paapigate/internal/domain/envelope"
	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
	"github.com/Sentinel-Gate/paapigate/internal/service"
)

// maxRequestBodySize is the maximum allowed request body size (1 MB).
const maxRequestBodySize = 1 << 20

// batchRequest is the body of both invoke endpoints. Entries stay raw so a
// malformed entry fails on its own instead of rejecting the batch.
type batchRequest struct {
	Items []json.RawMessage `json:"items"`
}

// batchResponse wraps one envelope per request item, in order.
type batchResponse[T any] struct {
	Results []T `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// invokeHandler serves POST /v1/invoke.
func invokeHandler(svc *service.InvocationService, creds paapi.Credentials, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeBatch(w, r)
		if !ok {
			return
		}
		metrics.observeBatch("invoke", len(req.Items))
		results := svc.Execute(r.Context(), creds, req.Items)
		writeJSON(w, http.StatusOK, batchResponse[envelope.Envelope]{Results: results})
	})
}

// toolsHandler serves POST /v1/tools/invoke.
func toolsHandler(svc *service.ProductToolService, creds paapi.Credentials, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeBatch(w, r)
		if !ok {
			return
		}
		metrics.observeBatch("tools", len(req.Items))
		results := svc.Execute(r.Context(), creds, req.Items)
		writeJSON(w, http.StatusOK, batchResponse[envelope.ToolEnvelope]{Results: results})
	})
}

// decodeBatch validates method, content type and body. It writes the error
// response itself and reports false when the request was rejected.
func decodeBatch(w http.ResponseWriter, r *http.Request) (batchRequest, bool) {
	var req batchRequest

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return req, false
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
			return req, false
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer func() { _ = r.Body.Close() }()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body too large (max %d bytes)", maxRequestBodySize))
			return req, false
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return req, false
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "empty request body")
		return req, false
	}
	if body[0] != '{' {
		writeError(w, http.StatusBadRequest, "request must be a JSON object")
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return req, false
	}
	if req.Items == nil {
		writeError(w, http.StatusBadRequest, "items is required")
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
