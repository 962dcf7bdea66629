// Package testsupport provides scripted fakes for testing code that talks
// to the cache dispatcher.
package testsupport

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-method-cache/cache"
)

// FakeBackend is an in-memory cache.Backend that records every operation
// and can be scripted to fail per operation kind. It is what the
// methodcache and di tests run the dispatcher against.
type FakeBackend struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
	ops     []string

	// Scripted failures: a non-nil error makes the matching operations
	// fail until cleared.
	ReadErr   error
	WriteErr  error
	RemoveErr error
	ClearErr  error
}

type fakeEntry struct {
	value any
	ttl   cache.Expiry
}

var _ cache.Backend = (*FakeBackend)(nil)

// NewFakeBackend creates an empty fake.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{entries: make(map[string]fakeEntry)}
}

func (f *FakeBackend) Read(ctx context.Context, key string) (any, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "read:"+key)
	if f.ReadErr != nil {
		return nil, false, f.ReadErr
	}
	entry, ok := f.entries[key]
	if !ok {
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (f *FakeBackend) ReadBatch(ctx context.Context, keys []string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, fmt.Sprintf("read_batch:%d", len(keys)))
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if entry, ok := f.entries[key]; ok {
			out[key] = entry.value
		}
	}
	return out, nil
}

func (f *FakeBackend) Write(ctx context.Context, key string, value any, ttl cache.Expiry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "write:"+key)
	if f.WriteErr != nil {
		return f.WriteErr
	}
	if ttl.IsDisabled() {
		return nil
	}
	f.entries[key] = fakeEntry{value: value, ttl: ttl}
	return nil
}

func (f *FakeBackend) WriteBatch(ctx context.Context, entries map[string]any, ttl cache.Expiry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, fmt.Sprintf("write_batch:%d", len(entries)))
	if f.WriteErr != nil {
		return f.WriteErr
	}
	if ttl.IsDisabled() {
		return nil
	}
	for key, value := range entries {
		f.entries[key] = fakeEntry{value: value, ttl: ttl}
	}
	return nil
}

func (f *FakeBackend) Remove(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		f.ops = append(f.ops, "remove:"+key)
	}
	if f.RemoveErr != nil {
		return f.RemoveErr
	}
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

func (f *FakeBackend) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "clear")
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.entries = make(map[string]fakeEntry)
	return nil
}

// Seed stores a value directly, bypassing the op log.
func (f *FakeBackend) Seed(key string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = fakeEntry{value: value, ttl: cache.Forever()}
}

// Contains reports whether a key is currently stored.
func (f *FakeBackend) Contains(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

// TTLOf returns the Expiry a key was last written with.
func (f *FakeBackend) TTLOf(key string) (cache.Expiry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	return entry.ttl, ok
}

// Ops returns a copy of the recorded operation log.
func (f *FakeBackend) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

// Len returns the number of stored entries.
func (f *FakeBackend) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Namespace returns a unique key namespace so tests sharing a real store
// never collide.
func Namespace(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
