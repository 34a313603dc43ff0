// Package http provides the HTTP transport adapter for the gateway.
//
// # Endpoints
//
//	POST /v1/invoke        - {"items":[Parameters...]} -> {"results":[Envelope...]}
//	POST /v1/tools/invoke  - {"items":[ToolParameters...]} -> {"results":[ToolEnvelope...]}
//	/mcp                   - MCP streamable HTTP endpoint (when mounted)
//	GET /health            - component health
//	GET /metrics           - Prometheus metrics
//
// A body that cannot be decoded as a batch is rejected with 400 and
// {"error":"..."}. A malformed entry inside a well-formed batch becomes a
// failure envelope at its own position.
//
// # Request Headers
//
//	Authorization: Bearer <api-key>  - API key, when keys are configured
//	X-API-Key: <api-key>             - alternative to Authorization
//	X-Request-ID: <id>               - echoed back; generated when absent
//
// # Middleware Chain
//
//  1. MetricsMiddleware - request duration and status
//  2. RequestIDMiddleware - request ID and enriched logger
//  3. RealIPMiddleware - client IP from proxy headers
//  4. DNSRebindingProtection - Origin allowlist
//  5. APIKeyMiddleware - caller authentication
//  6. RateLimitMiddleware - per-caller token bucket
//
// /health and /metrics skip steps 3 to 6.
package http
