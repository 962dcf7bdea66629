// Package di wires configuration, backend, registry, and dispatcher into a
// ready-to-use cache container.
package di

import (
	"context"

	"github.com/pkg/errors"

	"github.com/goliatone/go-method-cache/cache"
	"github.com/goliatone/go-method-cache/internal/cacheinfra"
	"github.com/goliatone/go-method-cache/methodcache"
	"github.com/goliatone/go-method-cache/pkg/metrics"
)

// Container manages singleton instances of the cache components: the
// backend selected by configuration, the policy registry, the metrics
// tracker, and the dispatcher tying them together.
type Container struct {
	config     cache.Config
	backend    cache.Backend
	registry   *methodcache.Registry
	dispatcher *cache.Dispatcher
	tracker    *metrics.Tracker
}

// NewContainer builds a container from the given configuration. Extra
// dispatcher options (cache.WithCoalescing, cache.WithLogger, ...) are
// applied on top of the container's defaults.
func NewContainer(cfg cache.Config, opts ...cache.Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend, err := buildBackend(cfg)
	if err != nil {
		return nil, err
	}

	registry := methodcache.NewRegistry()
	tracker := metrics.NewTracker(0.01)

	dispatcher, err := cache.New(backend, registry,
		append([]cache.Option{cache.WithMetrics(tracker)}, opts...)...)
	if err != nil {
		return nil, err
	}

	return &Container{
		config:     cfg,
		backend:    backend,
		registry:   registry,
		dispatcher: dispatcher,
		tracker:    tracker,
	}, nil
}

// NewContainerWithDefaults builds a memory-backed container with default
// configuration.
func NewContainerWithDefaults(opts ...cache.Option) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), opts...)
}

func buildBackend(cfg cache.Config) (cache.Backend, error) {
	switch cfg.Backend {
	case cache.BackendMemory:
		return cacheinfra.NewSturdycBackend(cfg.Memory), nil
	case cache.BackendRedis:
		return cacheinfra.NewRedisBackend(cfg)
	default:
		return nil, errors.Errorf("di: unknown backend %q", cfg.Backend)
	}
}

// Dispatcher returns the singleton dispatcher instance.
func (c *Container) Dispatcher() *cache.Dispatcher { return c.dispatcher }

// Registry returns the singleton policy registry.
func (c *Container) Registry() *methodcache.Registry { return c.registry }

// Backend returns the configured backend for advanced use.
func (c *Container) Backend() cache.Backend { return c.backend }

// Metrics returns the container's tracker.
func (c *Container) Metrics() *metrics.Tracker { return c.tracker }

// Config returns a copy of the configuration the container was built from.
func (c *Container) Config() cache.Config { return c.config }

// Close releases backend resources (the redis connection pool; the memory
// backend has nothing to release).
func (c *Container) Close() error {
	if closer, ok := c.backend.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// NewCachedFunc registers the policy and returns the decorated fetcher in
// one step. A policy without a TTL picks up the container's DefaultTTL;
// register through the Registry directly to deliberately disable a method.
//
// Go methods cannot have type parameters, so these are package-level
// functions: NewCachedFunc[string, User](container, ...).
func NewCachedFunc[K comparable, V any](c *Container, method string, policy cache.Policy, fn methodcache.Fetcher[K, V]) (func(context.Context, K) (V, error), error) {
	policy = c.withDefaults(policy, false)
	if err := c.registry.Register(method, policy); err != nil {
		return nil, err
	}
	return methodcache.Cached(c.dispatcher, method, fn), nil
}

// NewCachedBatchFunc is NewCachedFunc for batch-shaped fetchers; Multi is
// implied.
func NewCachedBatchFunc[K comparable, V any](c *Container, method string, policy cache.Policy, fn methodcache.BatchFetcher[K, V]) (func(context.Context, []K) ([]V, error), error) {
	policy = c.withDefaults(policy, true)
	if err := c.registry.Register(method, policy); err != nil {
		return nil, err
	}
	return methodcache.CachedBatch(c.dispatcher, method, fn), nil
}

func (c *Container) withDefaults(policy cache.Policy, multi bool) cache.Policy {
	if policy.TTL.IsDisabled() {
		policy.TTL = cache.TTL(c.config.DefaultTTL)
	}
	if multi {
		policy.Multi = true
	}
	return policy
}
