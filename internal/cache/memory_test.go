package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryProviderExpiry(t *testing.T) {
	t.Parallel()

	provider, err := NewMemoryProvider()
	if err != nil {
		t.Fatalf("NewMemoryProvider() failed: %v", err)
	}
	ctx := context.Background()

	if err := provider.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, err := provider.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("Get() = %q, %v; want v, nil", got, err)
	}

	if err := provider.Set(ctx, "stale", "v", -time.Second); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, err := provider.Get(ctx, "stale"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired key: got %v, want ErrNotFound", err)
	}

	if err := provider.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := provider.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted key: got %v, want ErrNotFound", err)
	}
}
