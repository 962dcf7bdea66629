package cacheinfra

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/goliatone/go-method-cache/cache"
)

// envelope carries a stored value together with its own expiry deadline.
// sturdyc applies one TTL per client, so per-entry expiry lives here: a
// zero deadline means the entry never expires on its own and only leaves
// through eviction or the client-level MaxTTL bound.
type envelope struct {
	value    any
	deadline time.Time
}

// SturdycBackend is the in-process cache.Backend. sturdyc supplies sharded
// storage, capacity-based eviction, and the background expiry sweep; this
// adapter layers the tagged Expiry semantics on top.
//
// Version compatibility note: assumes the sturdyc v1.x API.
type SturdycBackend struct {
	client *sturdyc.Client[envelope]
	now    func() time.Time
}

var _ cache.Backend = (*SturdycBackend)(nil)

// NewSturdycBackend builds the in-process backend from the memory section
// of the cache configuration.
func NewSturdycBackend(cfg cache.MemoryConfig) *SturdycBackend {
	return &SturdycBackend{
		client: sturdyc.New[envelope](
			cfg.Capacity,
			cfg.NumShards,
			cfg.MaxTTL,
			cfg.EvictionPercentage,
		),
		now: time.Now,
	}
}

func (b *SturdycBackend) Read(ctx context.Context, key string) (any, bool, error) {
	e, ok := b.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.deadline.IsZero() && b.now().After(e.deadline) {
		b.client.Delete(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (b *SturdycBackend) ReadBatch(ctx context.Context, keys []string) (map[string]any, error) {
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if value, ok, _ := b.Read(ctx, key); ok {
			out[key] = value
		}
	}
	return out, nil
}

func (b *SturdycBackend) Write(ctx context.Context, key string, value any, ttl cache.Expiry) error {
	if ttl.IsDisabled() {
		return nil
	}
	deadline, _ := ttl.Deadline(b.now())
	b.client.Set(key, envelope{value: value, deadline: deadline})
	return nil
}

func (b *SturdycBackend) WriteBatch(ctx context.Context, entries map[string]any, ttl cache.Expiry) error {
	for key, value := range entries {
		if err := b.Write(ctx, key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (b *SturdycBackend) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		b.client.Delete(key)
	}
	return nil
}

func (b *SturdycBackend) Clear(ctx context.Context) error {
	for _, key := range b.client.ScanKeys() {
		b.client.Delete(key)
	}
	return nil
}

// Size returns the number of live entries, expired-but-unswept included.
func (b *SturdycBackend) Size() int {
	return b.client.Size()
}
