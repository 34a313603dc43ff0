// Package inbound defines the inbound port interfaces for paapi-gate.
// Inbound adapters (HTTP, MCP) implement Transport and call the services.
package inbound

import (
	"context"
)

// Transport is a long-running inbound surface.
type Transport interface {
	// Start serves requests until ctx is cancelled or an error occurs.
	// Returns nil on graceful shutdown, error on failure.
	Start(ctx context.Context) error

	// Close gracefully shuts down the transport and cleans up resources.
	Close() error
}
