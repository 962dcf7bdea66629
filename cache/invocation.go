package cache

import "context"

// Invocation represents the underlying computation behind an intercepted
// call. The dispatcher invokes Proceed zero times on a full hit and exactly
// once otherwise. For multi-key calls, args carries the original argument
// list with the key argument replaced by the slice of missing raw keys, in
// their original order, and the computation must return a map[any]any keyed
// by those raw keys. Keys the computation cannot answer are simply left out
// of the map.
type Invocation interface {
	// Args returns the intercepted argument values.
	Args() []any

	// Proceed runs the computation with the given arguments. Errors
	// returned here are business errors and propagate to the caller
	// untouched.
	Proceed(ctx context.Context, args []any) (any, error)
}

// InvocationFunc adapts a closure into an Invocation. The methodcache
// wrappers build these; tests use them directly.
type InvocationFunc struct {
	CallArgs []any
	Call     func(ctx context.Context, args []any) (any, error)
}

func (f *InvocationFunc) Args() []any { return f.CallArgs }

func (f *InvocationFunc) Proceed(ctx context.Context, args []any) (any, error) {
	return f.Call(ctx, args)
}
