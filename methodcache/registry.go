package methodcache

import (
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-method-cache/cache"
)

// Registry holds the caching policy for every registered method name and
// implements cache.DescriptorSource for the dispatcher. Registration is
// explicit and up front: there is no annotation scanning and no reflection
// over callers.
type Registry struct {
	policies *xsync.MapOf[string, cache.Policy]
}

var _ cache.DescriptorSource = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{policies: xsync.NewMapOf[string, cache.Policy]()}
}

// Register validates and stores the policy for method. Registering the
// same method twice is rejected: descriptors freeze on first use, so a
// silent overwrite would only ever confuse.
func (r *Registry) Register(method string, policy cache.Policy) error {
	if method == "" {
		return errors.New("methodcache: method name is required")
	}
	if err := policy.Validate(); err != nil {
		return errors.Wrapf(err, "methodcache: invalid policy for %q", method)
	}
	if _, loaded := r.policies.LoadOrStore(method, policy); loaded {
		return errors.Errorf("methodcache: method %q already registered", method)
	}
	return nil
}

// PolicyFor implements cache.DescriptorSource.
func (r *Registry) PolicyFor(method string) (cache.Policy, bool) {
	return r.policies.Load(method)
}

// Methods returns the registered method names, in no particular order.
func (r *Registry) Methods() []string {
	var methods []string
	r.policies.Range(func(method string, _ cache.Policy) bool {
		methods = append(methods, method)
		return true
	})
	return methods
}
