package cache

import "context"

// Backend is the pluggable key-value store contract the dispatcher runs
// against. Implementations own all of their concurrency control and any
// serialization; the orchestration layer never inspects stored entries.
//
// Every method may involve network I/O and may fail with an operational
// error. The dispatcher treats such failures as fail-open: a failed read is
// a miss, a failed write or remove is logged and dropped. Context
// cancellation is the one exception and is always surfaced to the caller.
type Backend interface {
	// Read returns the value stored under key. A missing key is reported
	// through the second return, never as an error.
	Read(ctx context.Context, key string) (any, bool, error)

	// ReadBatch returns the present subset of keys. Absent keys simply do
	// not appear in the returned map.
	ReadBatch(ctx context.Context, keys []string) (map[string]any, error)

	// Write stores value under key. Forever and finite TTLs must be
	// honored distinctly; Disabled writes are a no-op.
	Write(ctx context.Context, key string, value any, ttl Expiry) error

	// WriteBatch stores every entry with the same ttl, using a batched
	// primitive where the store supports one.
	WriteBatch(ctx context.Context, entries map[string]any, ttl Expiry) error

	// Remove deletes each of the given keys individually. Removing a key
	// that does not exist is a no-op.
	Remove(ctx context.Context, keys ...string) error

	// Clear removes every entry this backend instance is responsible for.
	// Shared stores must scope the wipe to their own namespace.
	Clear(ctx context.Context) error
}

// Raw is a serialized value as produced by a backend's wire codec. Backends
// that cannot hold Go values directly (anything remote) return Raw from
// Read/ReadBatch; the typed wrappers in methodcache decode it once the
// concrete result type is known.
type Raw []byte
