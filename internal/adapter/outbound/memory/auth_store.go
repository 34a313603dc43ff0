package memory

import (
	"context"
	"sync"

	"github.com/Sentinel-Gate/paapigate/internal/domain/auth"
)

// KeyStore implements auth.KeyStore with an in-memory map seeded from
// configuration. Safe for concurrent use.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string]*auth.APIKey // normalized hash -> key
}

// NewKeyStore creates a store holding keys.
func NewKeyStore(keys ...auth.APIKey) *KeyStore {
	s := &KeyStore{keys: make(map[string]*auth.APIKey, len(keys))}
	for _, k := range keys {
		s.AddKey(k)
	}
	return s
}

// AddKey stores a copy of key, replacing any key with the same hash.
func (s *KeyStore) AddKey(key auth.APIKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[auth.NormalizeHash(key.Key)] = &key
}

// RemoveKey deletes the key stored under hash.
func (s *KeyStore) RemoveKey(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, auth.NormalizeHash(hash))
}

// Len returns the number of stored keys.
func (s *KeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// GetAPIKey retrieves a key by its bare sha256 hex hash.
func (s *KeyStore) GetAPIKey(ctx context.Context, keyHash string) (*auth.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[keyHash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	keyCopy := *key
	return &keyCopy, nil
}

// ListAPIKeys returns copies of every stored key.
func (s *KeyStore) ListAPIKeys(ctx context.Context) ([]*auth.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*auth.APIKey, 0, len(s.keys))
	for _, key := range s.keys {
		keyCopy := *key
		out = append(out, &keyCopy)
	}
	return out, nil
}

var _ auth.KeyStore = (*KeyStore)(nil)
