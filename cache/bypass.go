package cache

import "context"

type bypassContextKey struct{}

// WithBypass marks the context so every dispatcher routed through it skips
// the cache entirely for this call: no reads, no writes, computation runs
// unconditionally. Useful for admin refreshes and for callers that just
// read stale data and need the source of truth once.
func WithBypass(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, bypassContextKey{}, true)
}

func bypassFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	bypass, _ := ctx.Value(bypassContextKey{}).(bool)
	return bypass
}
