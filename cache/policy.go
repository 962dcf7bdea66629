package cache

import (
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/puzpuzpuz/xsync/v3"
)

// Policy is the registration-time configuration for one cacheable method.
// It is plain data on purpose: callers declare everything up front instead
// of the core digging it out of annotations or struct tags at call time.
type Policy struct {
	// KeyPrefix namespaces every key derived for this method.
	KeyPrefix string

	// KeyArg is the position of the argument that supplies the key, or the
	// collection of keys when Multi is set.
	KeyArg int

	// Multi marks the method as batch-shaped: the key argument is a slice
	// of identifiers and results are merged per element.
	Multi bool

	// TTL applies to every entry written for this method. A Disabled value
	// switches caching off for the method entirely.
	TTL Expiry

	// Condition optionally gates caching per invocation. The expression is
	// evaluated against the method name and argument values; an empty
	// string means always on.
	Condition string
}

// Validate checks the policy is usable before it is frozen into a
// descriptor.
func (p Policy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.KeyPrefix, validation.Required),
		validation.Field(&p.KeyArg, validation.Min(0)),
	)
}

// DescriptorSource supplies the policy for a method name. The methodcache
// registry is the default implementation; anything that can answer the
// lookup works.
type DescriptorSource interface {
	PolicyFor(method string) (Policy, bool)
}

// Descriptor is an immutable, validated view of a Policy bound to its
// method name. One descriptor is built per method and shared by every
// invocation for the lifetime of the dispatcher that resolved it.
type Descriptor struct {
	Method    string
	KeyPrefix string
	KeyArg    int
	Multi     bool
	TTL       Expiry
	Condition string
}

// descriptorEntry defers the build so concurrent first-time resolutions of
// the same method agree on a single descriptor instance.
type descriptorEntry struct {
	once sync.Once
	desc *Descriptor
	err  error
}

// descriptorCache resolves method names to descriptors at most once each.
// It is owned by a Dispatcher instance rather than living in a package
// global, so independent dispatchers in one process never share state.
type descriptorCache struct {
	source  DescriptorSource
	entries *xsync.MapOf[string, *descriptorEntry]
}

func newDescriptorCache(source DescriptorSource) *descriptorCache {
	return &descriptorCache{
		source:  source,
		entries: xsync.NewMapOf[string, *descriptorEntry](),
	}
}

// resolve returns the cached descriptor for method, building it on first
// use. Failed builds are cached too: a misconfigured policy keeps failing
// fast instead of being re-inspected on every call.
func (c *descriptorCache) resolve(method string) (*Descriptor, error) {
	entry, _ := c.entries.LoadOrStore(method, &descriptorEntry{})
	entry.once.Do(func() {
		entry.desc, entry.err = c.build(method)
	})
	return entry.desc, entry.err
}

func (c *descriptorCache) build(method string) (*Descriptor, error) {
	policy, ok := c.source.PolicyFor(method)
	if !ok {
		return nil, ErrUnknownMethod
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Descriptor{
		Method:    method,
		KeyPrefix: policy.KeyPrefix,
		KeyArg:    policy.KeyArg,
		Multi:     policy.Multi,
		TTL:       policy.TTL,
		Condition: policy.Condition,
	}, nil
}
