package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"valid", Policy{KeyPrefix: "user"}, false},
		{"valid multi", Policy{KeyPrefix: "user", KeyArg: 1, Multi: true, TTL: TTL(time.Minute)}, false},
		{"missing prefix", Policy{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// countingSource counts policy lookups so the test can prove a descriptor is
// built at most once per method.
type countingSource struct {
	policies policyMap
	lookups  atomic.Int64
}

func (s *countingSource) PolicyFor(method string) (Policy, bool) {
	s.lookups.Add(1)
	p, ok := s.policies[method]
	return p, ok
}

func TestDescriptorCache_BuildsOnce(t *testing.T) {
	source := &countingSource{policies: policyMap{"user.by_id": {KeyPrefix: "user"}}}
	dc := newDescriptorCache(source)

	const workers = 32
	descs := make([]*Descriptor, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			d, err := dc.resolve("user.by_id")
			if err != nil {
				t.Errorf("resolve: %v", err)
				return
			}
			descs[i] = d
		}(i)
	}
	close(start)
	wg.Wait()

	if got := source.lookups.Load(); got != 1 {
		t.Errorf("expected exactly one policy lookup, got %d", got)
	}
	for i := 1; i < workers; i++ {
		if descs[i] != descs[0] {
			t.Fatalf("worker %d observed a different descriptor instance", i)
		}
	}
}

func TestDescriptorCache_UnknownMethod(t *testing.T) {
	dc := newDescriptorCache(&countingSource{policies: policyMap{}})

	if _, err := dc.resolve("nope"); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got: %v", err)
	}
}

func TestDescriptorCache_InvalidPolicyFailureIsCached(t *testing.T) {
	source := &countingSource{policies: policyMap{"bad": {}}} // no KeyPrefix
	dc := newDescriptorCache(source)

	if _, err := dc.resolve("bad"); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := dc.resolve("bad"); err == nil {
		t.Fatal("expected cached validation error")
	}
	if got := source.lookups.Load(); got != 1 {
		t.Errorf("failed builds must be cached, got %d lookups", got)
	}
}

func TestDescriptorCache_IndependentPerInstance(t *testing.T) {
	policies := policyMap{"user.by_id": {KeyPrefix: "user"}}
	a := newDescriptorCache(&countingSource{policies: policies})
	b := newDescriptorCache(&countingSource{policies: policies})

	da, err := a.resolve("user.by_id")
	if err != nil {
		t.Fatalf("resolve a: %v", err)
	}
	db, err := b.resolve("user.by_id")
	if err != nil {
		t.Fatalf("resolve b: %v", err)
	}
	if da == db {
		t.Error("independent caches must not share descriptor instances")
	}
}
