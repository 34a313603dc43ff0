package auth

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by a KeyStore lookup that has no match.
var ErrKeyNotFound = errors.New("api key not found")

// KeyStore provides key lookup for authentication.
type KeyStore interface {
	// GetAPIKey retrieves a key by its bare sha256 hex hash.
	// Returns ErrKeyNotFound if no key is stored under that hash.
	GetAPIKey(ctx context.Context, keyHash string) (*APIKey, error)

	// ListAPIKeys returns every stored key for iteration-based verification.
	ListAPIKeys(ctx context.Context) ([]*APIKey, error)
}
