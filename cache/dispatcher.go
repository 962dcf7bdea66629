package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-method-cache/pkg/metrics"
)

// Dispatcher is the façade the interception layer calls into. It resolves
// the method's descriptor, evaluates the enable switch, and routes the call
// to the single- or multi-key pipeline against the configured backend.
//
// The cache is an optimization, never a correctness dependency: operational
// backend failures degrade every operation to "recompute" and only errors
// from the underlying computation itself reach the caller.
type Dispatcher struct {
	backend     Backend
	codec       KeyCodec
	descriptors *descriptorCache
	cond        ConditionEvaluator
	logger      *slog.Logger
	tracker     *metrics.Tracker
	enabled     atomic.Bool
	flight      *singleflight.Group
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithKeyCodec replaces the default reflection-based key codec.
func WithKeyCodec(codec KeyCodec) Option {
	return func(d *Dispatcher) { d.codec = codec }
}

// WithConditionEvaluator replaces the default CEL evaluator.
func WithConditionEvaluator(cond ConditionEvaluator) Option {
	return func(d *Dispatcher) { d.cond = cond }
}

// WithLogger sets the logger used for fail-open warnings and removal
// tracing. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithMetrics attaches a latency/outcome tracker to every public
// operation.
func WithMetrics(tracker *metrics.Tracker) Option {
	return func(d *Dispatcher) { d.tracker = tracker }
}

// WithCoalescing collapses concurrent identical single-key misses into one
// in-flight computation. Off by default: the base pipelines accept
// at-least-once compute on a stampede, and batch calls are never coalesced.
func WithCoalescing() Option {
	return func(d *Dispatcher) { d.flight = &singleflight.Group{} }
}

// New builds a Dispatcher over the given backend and policy source.
func New(backend Backend, source DescriptorSource, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		backend:     backend,
		codec:       NewDefaultKeyCodec(),
		descriptors: newDescriptorCache(source),
		logger:      slog.Default(),
	}
	d.enabled.Store(true)

	for _, opt := range opts {
		opt(d)
	}

	if d.cond == nil {
		cond, err := NewCELEvaluator()
		if err != nil {
			return nil, err
		}
		d.cond = cond
	}
	return d, nil
}

// SetEnabled flips the global cache switch. While disabled every call goes
// straight to its computation with no backend interaction.
func (d *Dispatcher) SetEnabled(enabled bool) { d.enabled.Store(enabled) }

// Enabled reports the global cache switch.
func (d *Dispatcher) Enabled() bool { return d.enabled.Load() }

// Metrics returns the attached tracker, or nil when none was configured.
func (d *Dispatcher) Metrics() *metrics.Tracker { return d.tracker }

// Read executes a get-only cached call: hits come from the backend, misses
// run the computation, and the result is returned without being written
// back.
func (d *Dispatcher) Read(ctx context.Context, method string, inv Invocation) (any, error) {
	return d.dispatch(ctx, "read", method, inv, false)
}

// ReadWrite executes a full cache-aside call: misses run the computation
// and the result is written back under the policy TTL.
func (d *Dispatcher) ReadWrite(ctx context.Context, method string, inv Invocation) (any, error) {
	return d.dispatch(ctx, "read_write", method, inv, true)
}

func (d *Dispatcher) dispatch(ctx context.Context, op, method string, inv Invocation, writeBack bool) (any, error) {
	start := time.Now()
	defer d.observe(op, start)

	desc, err := d.descriptors.resolve(method)
	if err != nil {
		return nil, err
	}

	on, err := d.switchOn(ctx, desc, inv.Args())
	if err != nil {
		return nil, err
	}
	if !on {
		return inv.Proceed(ctx, inv.Args())
	}

	if desc.Multi {
		return d.readMulti(ctx, desc, inv, writeBack)
	}
	return d.readSingle(ctx, desc, inv, writeBack)
}

// Remove invalidates the cache entries the given arguments would read. It
// bypasses the pipelines and talks to the backend directly, expanding the
// key set so every key is deleted individually.
func (d *Dispatcher) Remove(ctx context.Context, method string, args []any) error {
	start := time.Now()
	defer d.observe("remove", start)

	desc, err := d.descriptors.resolve(method)
	if err != nil {
		return err
	}

	on, err := d.switchOn(ctx, desc, args)
	if err != nil {
		return err
	}
	if !on {
		return nil
	}

	var keys []string
	if desc.Multi {
		ks, err := d.codec.MultiKey(desc, args)
		if err != nil {
			return err
		}
		keys = ks.SubKeys()
	} else {
		key, err := d.codec.SingleKey(desc, args)
		if err != nil {
			return err
		}
		keys = []string{key}
	}

	if err := d.backend.Remove(ctx, keys...); err != nil {
		if canceled(err) {
			return err
		}
		d.backendFailure("remove", desc.Method, err)
		return nil
	}

	d.logger.Debug("cache entries removed", "method", desc.Method, "keys", keys)
	return nil
}

// Clear wipes everything the backend holds for this cache. Unlike the read
// paths this is an administrative operation, so backend errors surface.
func (d *Dispatcher) Clear(ctx context.Context) error {
	start := time.Now()
	defer d.observe("clear", start)
	return d.backend.Clear(ctx)
}

// switchOn evaluates the enable switch, cheapest check first: the global
// flag, then the policy TTL, then a per-call context bypass, and only then
// the condition expression. A broken expression is a configuration error
// and propagates.
func (d *Dispatcher) switchOn(ctx context.Context, desc *Descriptor, args []any) (bool, error) {
	if !d.enabled.Load() {
		return false, nil
	}
	if desc.TTL.IsDisabled() {
		return false, nil
	}
	if bypassFromContext(ctx) {
		return false, nil
	}
	if desc.Condition == "" {
		return true, nil
	}
	return d.cond.Evaluate(desc.Condition, desc.Method, args)
}

// backendFailure records and logs a fail-open backend error.
func (d *Dispatcher) backendFailure(op, method string, err error) {
	if d.tracker != nil {
		d.tracker.BackendError()
	}
	d.logger.Warn("cache backend error, continuing without cache",
		"op", op, "method", method, "error", err)
}

func (d *Dispatcher) observe(op string, start time.Time) {
	if d.tracker != nil {
		d.tracker.Record(op, time.Since(start))
	}
}

func (d *Dispatcher) markHits(n int) {
	if d.tracker != nil && n > 0 {
		d.tracker.AddHits(int64(n))
	}
}

func (d *Dispatcher) markMisses(n int) {
	if d.tracker != nil && n > 0 {
		d.tracker.AddMisses(int64(n))
	}
}
