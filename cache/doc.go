// Package cache implements a pluggable cache-aside orchestration layer for
// intercepted method calls.
//
// # Overview
//
// The package is built from a handful of small contracts:
//
//   - Backend: the pluggable key-value store (read, batch read, write,
//     batch write, remove, clear)
//   - Policy / Descriptor: per-method caching configuration, declared at
//     registration time and frozen on first use
//   - KeyCodec: derives cache keys from a descriptor and the intercepted
//     arguments, including the ordered sub-key mapping for batch calls
//   - Invocation: the underlying computation, invoked only for misses
//   - Dispatcher: the façade that ties it all together
//
// A Dispatcher decides, per call, what to read, what is missing, what to
// compute, and what to write back. For batch-shaped calls it reconciles
// partial hits: only the missing keys are handed to the computation, and
// the merged result preserves the caller's original key order, duplicates
// included.
//
// # Fail-open
//
// The backend is treated as an optimization, never as a correctness
// dependency. A failed backend read degrades to a miss, a failed write or
// remove is logged and dropped, and only errors from the underlying
// computation propagate to the caller. Context cancellation is exempt from
// this policy and always surfaces.
//
// # TTL semantics
//
// Expiry is a tagged value with three shapes: Disabled, Forever, and a
// finite TTL. There are no sentinel integers; backends are required to
// honor Forever and finite durations distinctly.
//
// # Conditions
//
// A policy may carry a CEL expression gating caching per invocation, with
// `method` and `args` in scope:
//
//	Policy{KeyPrefix: "user", TTL: cache.TTL(time.Minute), Condition: `args[0] != ""`}
//
// # Concurrency
//
// The dispatcher runs on the caller's goroutine and creates none of its
// own. Two concurrent misses for one key may both compute and both write;
// last write wins. Opt into WithCoalescing to collapse concurrent identical
// single-key misses into one in-flight computation.
//
// # See Also
//
// The methodcache package adapts plain Go functions into Invocations with
// typed, generic wrappers. The pkg/di package wires a Config into a ready
// dispatcher and registry.
package cache
