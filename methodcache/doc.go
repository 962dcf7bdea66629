// Package methodcache adapts plain Go functions into cached method calls.
//
// # Overview
//
// The package sits between application code and the cache dispatcher:
//
//   - Registry: declares a cache.Policy per method name and serves as the
//     dispatcher's policy source
//   - Cached / CachedGet: typed wrappers for single-key fetch functions
//   - CachedBatch / CachedBatchGet: typed wrappers for batch fetchers with
//     partial-hit reconciliation
//   - Evict / EvictBatch: typed invalidation helpers
//
// # Basic Usage
//
//	registry := methodcache.NewRegistry()
//	registry.Register("user.by_id", cache.Policy{
//		KeyPrefix: "user",
//		TTL:       cache.TTL(5 * time.Minute),
//	})
//
//	dispatcher, _ := cache.New(backend, registry)
//	getUser := methodcache.Cached(dispatcher, "user.by_id", loadUser)
//
//	user, err := getUser(ctx, "u-42") // miss: loads and caches
//	user, err = getUser(ctx, "u-42")  // hit: backend only
//
// Batch methods declare Multi and get complement-only loading:
//
//	registry.Register("user.by_ids", cache.Policy{
//		KeyPrefix: "user",
//		Multi:     true,
//		TTL:       cache.TTL(5 * time.Minute),
//	})
//	getUsers := methodcache.CachedBatch(dispatcher, "user.by_ids", loadUsers)
//
// A batch fetcher only ever sees the keys the backend could not answer,
// and the merged result comes back in the caller's original key order.
// Registering "user.by_id" and "user.by_ids" with the same KeyPrefix makes
// the two call shapes share cache entries.
//
// # Beyond the wrappers
//
// The wrappers cover the (ctx, key) and (ctx, []key) call shapes. Methods
// with more arguments implement cache.Invocation directly and call the
// dispatcher themselves; the registry and policies work the same way.
package methodcache
