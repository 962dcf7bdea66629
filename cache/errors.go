package cache

import (
	"context"

	"github.com/pkg/errors"
)

// Sentinel errors surfaced by the core. Backend-operational failures are
// deliberately absent from this list: the dispatcher recovers from those
// locally and they never reach the caller.
var (
	// ErrUnknownMethod is returned when no policy has been registered for
	// the intercepted method name.
	ErrUnknownMethod = errors.New("cache: no policy registered for method")

	// ErrKeyArgOutOfRange is returned when a policy names a key argument
	// position the invocation does not have.
	ErrKeyArgOutOfRange = errors.New("cache: key argument index out of range")

	// ErrKeyArgNotSlice is returned when a multi-key policy points at an
	// argument that is not a slice or array at runtime.
	ErrKeyArgNotSlice = errors.New("cache: multi-key argument is not a slice")

	// ErrInvalidResultType is returned by the typed wrappers when a cached
	// value cannot be presented as the caller's result type.
	ErrInvalidResultType = errors.New("cache: cached value has unexpected type")

	// ErrBatchResultShape is returned when a batch computation does not
	// return a map keyed by the raw keys it was asked for.
	ErrBatchResultShape = errors.New("cache: batch computation must return map[any]any")
)

// canceled reports whether err is (or wraps) a context cancellation. The
// fail-open policy covers operational backend errors only; cancellation
// always propagates.
func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
