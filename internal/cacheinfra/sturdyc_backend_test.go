package cacheinfra

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-method-cache/cache"
)

func testMemoryConfig() cache.MemoryConfig {
	return cache.MemoryConfig{
		Capacity:           100,
		NumShards:          2,
		EvictionPercentage: 10,
		MaxTTL:             time.Hour,
	}
}

// withClock pins the backend's clock so expiry tests don't sleep.
func withClock(b *SturdycBackend, now *time.Time) *SturdycBackend {
	b.now = func() time.Time { return *now }
	return b
}

func TestSturdycBackend_WriteRead(t *testing.T) {
	ctx := context.Background()
	b := NewSturdycBackend(testMemoryConfig())

	if err := b.Write(ctx, "user::1", "Alice", cache.Forever()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	v, ok, err := b.Read(ctx, "user::1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !ok || v != "Alice" {
		t.Errorf("expected hit with Alice, got %v (%v)", v, ok)
	}

	if _, ok, _ := b.Read(ctx, "user::absent"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestSturdycBackend_DisabledWriteIsNoop(t *testing.T) {
	ctx := context.Background()
	b := NewSturdycBackend(testMemoryConfig())

	if err := b.Write(ctx, "user::1", "Alice", cache.Disabled()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, ok, _ := b.Read(ctx, "user::1"); ok {
		t.Error("a Disabled write must not store anything")
	}
}

func TestSturdycBackend_FiniteTTLExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := withClock(NewSturdycBackend(testMemoryConfig()), &now)

	if err := b.Write(ctx, "user::1", "Alice", cache.TTL(time.Minute)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, ok, _ := b.Read(ctx, "user::1"); !ok {
		t.Fatal("expected hit before the deadline")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := b.Read(ctx, "user::1"); ok {
		t.Error("expected miss after the deadline")
	}
	// The stale entry is dropped on read.
	if b.Size() != 0 {
		t.Errorf("expected stale entry deleted, size=%d", b.Size())
	}
}

func TestSturdycBackend_ForeverOutlivesFiniteTTLs(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := withClock(NewSturdycBackend(testMemoryConfig()), &now)

	if err := b.Write(ctx, "pinned", "value", cache.Forever()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	now = now.Add(24 * time.Hour)
	if _, ok, _ := b.Read(ctx, "pinned"); !ok {
		t.Error("a Forever entry must not expire on its own")
	}
}

func TestSturdycBackend_ReadBatch(t *testing.T) {
	ctx := context.Background()
	b := NewSturdycBackend(testMemoryConfig())

	entries := map[string]any{"user::1": "Alice", "user::2": "Bob"}
	if err := b.WriteBatch(ctx, entries, cache.Forever()); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	got, err := b.ReadBatch(ctx, []string{"user::1", "user::2", "user::3"})
	if err != nil {
		t.Fatalf("ReadBatch: %v", err)
	}
	if len(got) != 2 || got["user::1"] != "Alice" || got["user::2"] != "Bob" {
		t.Errorf("unexpected batch result: %v", got)
	}
	if _, ok := got["user::3"]; ok {
		t.Error("absent keys must be omitted, not present with nil")
	}
}

func TestSturdycBackend_Remove(t *testing.T) {
	ctx := context.Background()
	b := NewSturdycBackend(testMemoryConfig())

	b.Write(ctx, "user::1", "Alice", cache.Forever())
	b.Write(ctx, "user::2", "Bob", cache.Forever())

	if err := b.Remove(ctx, "user::1", "user::2", "user::absent"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if b.Size() != 0 {
		t.Errorf("expected all entries removed, size=%d", b.Size())
	}
}

func TestSturdycBackend_Clear(t *testing.T) {
	ctx := context.Background()
	b := NewSturdycBackend(testMemoryConfig())

	for _, key := range []string{"a", "b", "c"} {
		b.Write(ctx, key, key, cache.Forever())
	}
	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if b.Size() != 0 {
		t.Errorf("expected empty cache, size=%d", b.Size())
	}
}
