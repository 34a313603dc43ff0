// Package auth authenticates callers of the gateway by API key.
package auth

import (
	"time"
)

// APIKey is a configured gateway key.
type APIKey struct {
	// Key is the stored hash (sha256 hex or Argon2id PHC format).
	Key string
	// Name labels the caller in logs.
	Name string
	// ExpiresAt is nil for a key that never expires.
	ExpiresAt *time.Time
	// Revoked keys never authenticate.
	Revoked bool
}

// IsExpired reports whether the key has passed its expiry.
func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().UTC().After(*k.ExpiresAt)
}

// Caller is the authenticated principal attached to a request.
type Caller struct {
	Name string
}
