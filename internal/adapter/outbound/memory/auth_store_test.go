package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Sentinel-Gate/paapigate/internal/domain/auth"
)

func TestKeyStore_GetAPIKey(t *testing.T) {
	t.Parallel()

	hash := auth.HashKey("raw")
	store := NewKeyStore(auth.APIKey{Key: "sha256:" + hash, Name: "bot"})

	got, err := store.GetAPIKey(context.Background(), hash)
	if err != nil {
		t.Fatalf("GetAPIKey() error = %v", err)
	}
	if got.Name != "bot" {
		t.Errorf("Name = %q, want bot", got.Name)
	}

	got.Name = "mutated"
	again, _ := store.GetAPIKey(context.Background(), hash)
	if again.Name != "bot" {
		t.Error("GetAPIKey() returned a shared pointer")
	}

	if _, err := store.GetAPIKey(context.Background(), "missing"); !errors.Is(err, auth.ErrKeyNotFound) {
		t.Errorf("GetAPIKey(missing) error = %v, want ErrKeyNotFound", err)
	}
}

func TestKeyStore_ListAndRemove(t *testing.T) {
	t.Parallel()

	store := NewKeyStore(
		auth.APIKey{Key: "sha256:" + auth.HashKey("a")},
		auth.APIKey{Key: "$argon2id$v=19$m=47104,t=1,p=1$abc$def"},
	)
	keys, err := store.ListAPIKeys(context.Background())
	if err != nil {
		t.Fatalf("ListAPIKeys() error = %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("len(keys) = %d, want 2", len(keys))
	}

	store.RemoveKey("sha256:" + auth.HashKey("a"))
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after RemoveKey", store.Len())
	}
}

func TestKeyStore_WithAPIKeyService(t *testing.T) {
	t.Parallel()

	store := NewKeyStore(auth.APIKey{Key: "sha256:" + auth.HashKey("dev-api-key"), Name: "dev"})
	caller, err := auth.NewAPIKeyService(store).Authenticate(context.Background(), "dev-api-key")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if caller.Name != "dev" {
		t.Errorf("caller.Name = %q, want dev", caller.Name)
	}
}

func TestKeyStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := NewKeyStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.AddKey(auth.APIKey{Key: auth.HashKey(string(rune('a' + i)))})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.ListAPIKeys(context.Background())
		}()
	}
	wg.Wait()
	if store.Len() != 20 {
		t.Errorf("Len() = %d, want 20", store.Len())
	}
}
