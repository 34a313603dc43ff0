package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
)

// ErrInvalidKey is returned when an API key does not authenticate.
var ErrInvalidKey = errors.New("invalid api key")

// ErrUnknownHashType is returned when a stored hash has an unrecognized format.
var ErrUnknownHashType = errors.New("unknown hash type")

// Hash types reported by DetectHashType.
const (
	HashTypeArgon2id = "argon2id"
	HashTypeSHA256   = "sha256"
	HashTypeUnknown  = "unknown"
)

// APIKeyService validates raw API keys against a KeyStore.
type APIKeyService struct {
	store KeyStore
}

// NewAPIKeyService creates a new APIKeyService backed by store.
func NewAPIKeyService(store KeyStore) *APIKeyService {
	return &APIKeyService{store: store}
}

// Authenticate checks rawKey and returns the caller it identifies.
// sha256 keys are found by direct lookup; Argon2id keys by iterating the
// store. Returns ErrInvalidKey for unknown, expired or revoked keys.
func (s *APIKeyService) Authenticate(ctx context.Context, rawKey string) (*Caller, error) {
	if rawKey == "" {
		return nil, ErrInvalidKey
	}

	if key, err := s.store.GetAPIKey(ctx, HashKey(rawKey)); err == nil {
		return callerFor(key)
	}

	keys, err := s.store.ListAPIKeys(ctx)
	if err != nil {
		return nil, ErrInvalidKey
	}
	for _, candidate := range keys {
		if DetectHashType(candidate.Key) != HashTypeArgon2id {
			continue
		}
		match, err := VerifyKey(rawKey, candidate.Key)
		if err != nil || !match {
			continue
		}
		return callerFor(candidate)
	}
	return nil, ErrInvalidKey
}

func callerFor(key *APIKey) (*Caller, error) {
	if key.Revoked || key.IsExpired() {
		return nil, ErrInvalidKey
	}
	return &Caller{Name: key.Name}, nil
}

// HashKey returns the bare SHA-256 hex hash of rawKey.
func HashKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// NormalizeHash strips the "sha256:" prefix and lowercases sha256 hashes so
// they can be indexed by HashKey output. Other formats are returned unchanged.
func NormalizeHash(storedHash string) string {
	if h, ok := strings.CutPrefix(storedHash, "sha256:"); ok {
		return strings.ToLower(h)
	}
	if DetectHashType(storedHash) == HashTypeSHA256 {
		return strings.ToLower(storedHash)
	}
	return storedHash
}

// OWASP minimum parameters for Argon2id.
var argon2idParams = &argon2id.Params{
	Memory:      47 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// HashKeyArgon2id returns an Argon2id hash of rawKey in PHC format:
// $argon2id$v=19$m=47104,t=1,p=1$<salt>$<hash>
func HashKeyArgon2id(rawKey string) (string, error) {
	return argon2id.CreateHash(rawKey, argon2idParams)
}

// DetectHashType identifies the algorithm of a stored hash.
func DetectHashType(storedHash string) string {
	switch {
	case strings.HasPrefix(storedHash, "$argon2id$"):
		return HashTypeArgon2id
	case strings.HasPrefix(storedHash, "sha256:"):
		return HashTypeSHA256
	case len(storedHash) == sha256.Size*2 && isHex(storedHash):
		return HashTypeSHA256
	default:
		return HashTypeUnknown
	}
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}

// VerifyKey reports whether rawKey matches storedHash.
// Returns ErrUnknownHashType for unrecognized hash formats.
func VerifyKey(rawKey, storedHash string) (bool, error) {
	switch DetectHashType(storedHash) {
	case HashTypeArgon2id:
		return compareArgon2id(rawKey, storedHash)
	case HashTypeSHA256:
		want := NormalizeHash(storedHash)
		got := HashKey(rawKey)
		return subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToLower(want))) == 1, nil
	default:
		return false, ErrUnknownHashType
	}
}

// compareArgon2id recovers from the panic argon2 raises on hashes with
// zero rounds or parallelism.
func compareArgon2id(rawKey, storedHash string) (match bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = false
			err = fmt.Errorf("invalid argon2id hash parameters: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(rawKey, storedHash)
}
