package methodcache

import (
	"context"

	"github.com/pkg/errors"

	"github.com/goliatone/go-method-cache/cache"
	"github.com/goliatone/go-method-cache/internal/cacheinfra"
)

// Fetcher is the single-key computation shape the typed wrappers decorate.
type Fetcher[K comparable, V any] func(ctx context.Context, key K) (V, error)

// BatchFetcher is the batch computation shape. The returned map is keyed by
// the input keys; keys with no value are simply left out.
type BatchFetcher[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// Cached decorates fn with full cache-aside behavior under the named
// method's policy: hits skip fn, misses run it and write the result back.
//
// Methods with richer signatures than (ctx, key) implement cache.Invocation
// directly instead of using the wrappers.
func Cached[K comparable, V any](d *cache.Dispatcher, method string, fn Fetcher[K, V]) func(context.Context, K) (V, error) {
	return wrapSingle(d, method, fn, (*cache.Dispatcher).ReadWrite)
}

// CachedGet decorates fn in get-only mode: misses run fn but the result is
// never written back.
func CachedGet[K comparable, V any](d *cache.Dispatcher, method string, fn Fetcher[K, V]) func(context.Context, K) (V, error) {
	return wrapSingle(d, method, fn, (*cache.Dispatcher).Read)
}

// CachedBatch decorates a batch fetcher: cached keys are served from the
// backend, only the missing ones reach fn, and fresh results are written
// back. The returned slice preserves the caller's key order and may be
// shorter than the key list when some keys have no value anywhere.
func CachedBatch[K comparable, V any](d *cache.Dispatcher, method string, fn BatchFetcher[K, V]) func(context.Context, []K) ([]V, error) {
	return wrapBatch(d, method, fn, (*cache.Dispatcher).ReadWrite)
}

// CachedBatchGet is CachedBatch without the write-back.
func CachedBatchGet[K comparable, V any](d *cache.Dispatcher, method string, fn BatchFetcher[K, V]) func(context.Context, []K) ([]V, error) {
	return wrapBatch(d, method, fn, (*cache.Dispatcher).Read)
}

// Evict returns an invalidation function for a single-key method: each key
// maps to one cache entry and each entry is removed individually.
func Evict[K comparable](d *cache.Dispatcher, method string) func(context.Context, ...K) error {
	return func(ctx context.Context, keys ...K) error {
		for _, key := range keys {
			if err := d.Remove(ctx, method, []any{key}); err != nil {
				return err
			}
		}
		return nil
	}
}

// EvictBatch returns an invalidation function for a batch-shaped method.
func EvictBatch[K comparable](d *cache.Dispatcher, method string) func(context.Context, []K) error {
	return func(ctx context.Context, keys []K) error {
		return d.Remove(ctx, method, []any{keys})
	}
}

type dispatchFn func(*cache.Dispatcher, context.Context, string, cache.Invocation) (any, error)

func wrapSingle[K comparable, V any](d *cache.Dispatcher, method string, fn Fetcher[K, V], dispatch dispatchFn) func(context.Context, K) (V, error) {
	return func(ctx context.Context, key K) (V, error) {
		inv := &cache.InvocationFunc{
			CallArgs: []any{key},
			Call: func(ctx context.Context, args []any) (any, error) {
				return fn(ctx, key)
			},
		}

		result, err := dispatch(d, ctx, method, inv)
		if err != nil {
			var zero V
			return zero, err
		}
		return presentValue[V](result)
	}
}

func wrapBatch[K comparable, V any](d *cache.Dispatcher, method string, fn BatchFetcher[K, V], dispatch dispatchFn) func(context.Context, []K) ([]V, error) {
	return func(ctx context.Context, keys []K) ([]V, error) {
		inv := &cache.InvocationFunc{
			CallArgs: []any{keys},
			Call: func(ctx context.Context, args []any) (any, error) {
				missing, err := keysAs[K](args[0])
				if err != nil {
					return nil, err
				}
				found, err := fn(ctx, missing)
				if err != nil {
					return nil, err
				}
				byRaw := make(map[any]any, len(found))
				for k, v := range found {
					byRaw[k] = v
				}
				return byRaw, nil
			},
		}

		result, err := dispatch(d, ctx, method, inv)
		if err != nil {
			return nil, err
		}
		return presentBatch[K, V](keys, result)
	}
}

// keysAs recovers the typed key slice from the key argument. The pipeline
// hands the reduced miss set over as []any; when the cache switch is off
// the original []K comes through untouched.
func keysAs[K comparable](arg any) ([]K, error) {
	if keys, ok := arg.([]K); ok {
		return keys, nil
	}
	raws, ok := arg.([]any)
	if !ok {
		return nil, errors.WithStack(cache.ErrKeyArgNotSlice)
	}
	keys := make([]K, 0, len(raws))
	for _, raw := range raws {
		key, ok := raw.(K)
		if !ok {
			return nil, errors.WithStack(cache.ErrInvalidResultType)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// presentValue narrows a dispatcher result to V. Backends that hold Go
// values hand V back directly; remote backends hand back cache.Raw, which
// is decoded here, at the first point where the concrete type is known.
func presentValue[V any](result any) (V, error) {
	var zero V
	if result == nil {
		return zero, nil
	}
	if typed, ok := result.(V); ok {
		return typed, nil
	}
	if raw, ok := result.(cache.Raw); ok {
		var decoded V
		if err := cacheinfra.DefaultCodec.Unmarshal(raw, &decoded); err != nil {
			return zero, errors.Wrap(cache.ErrInvalidResultType, err.Error())
		}
		return decoded, nil
	}
	return zero, errors.WithStack(cache.ErrInvalidResultType)
}

// presentBatch narrows a dispatcher result to []V. The pipeline returns a
// merged, ordered []any; a switched-off call returns the computation's raw
// map, which is flattened back into the caller's key order here.
func presentBatch[K comparable, V any](keys []K, result any) ([]V, error) {
	switch r := result.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]V, 0, len(r))
		for _, item := range r {
			value, err := presentValue[V](item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case map[any]any:
		out := make([]V, 0, len(r))
		for _, key := range keys {
			item, ok := r[key]
			if !ok {
				continue
			}
			value, err := presentValue[V](item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	default:
		return nil, errors.WithStack(cache.ErrInvalidResultType)
	}
}
