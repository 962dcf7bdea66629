// Package metrics tracks cache operation latencies and outcomes.
package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// Tracker records per-operation latency quantiles with DDSketch plus
// hit/miss/backend-error counters. All methods are safe for concurrent
// use; a nil check is the caller's concern.
type Tracker struct {
	mu               sync.Mutex
	sketches         map[string]*ddsketch.DDSketch
	relativeAccuracy float64

	hits          atomic.Int64
	misses        atomic.Int64
	backendErrors atomic.Int64
}

// NewTracker creates a tracker. relativeAccuracy bounds the quantile
// estimation error (0.01 = 1%).
func NewTracker(relativeAccuracy float64) *Tracker {
	return &Tracker{
		sketches:         make(map[string]*ddsketch.DDSketch),
		relativeAccuracy: relativeAccuracy,
	}
}

// Record adds one duration sample for the operation.
func (t *Tracker) Record(operation string, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sketch, ok := t.sketches[operation]
	if !ok {
		var err error
		sketch, err = ddsketch.LogUnboundedDenseDDSketch(t.relativeAccuracy)
		if err != nil {
			sketch, _ = ddsketch.NewDefaultDDSketch(t.relativeAccuracy)
		}
		t.sketches[operation] = sketch
	}

	// Samples are stored in milliseconds.
	sketch.Add(float64(duration.Microseconds()) / 1000.0)
}

// AddHits adds n cache hits. Batch pipelines report whole-batch counts.
func (t *Tracker) AddHits(n int64) { t.hits.Add(n) }

// AddMisses adds n cache misses.
func (t *Tracker) AddMisses(n int64) { t.misses.Add(n) }

// BackendError counts one fail-open backend failure.
func (t *Tracker) BackendError() { t.backendErrors.Add(1) }

// Counters returns the accumulated hit, miss, and backend-error totals.
func (t *Tracker) Counters() (hits, misses, backendErrors int64) {
	return t.hits.Load(), t.misses.Load(), t.backendErrors.Load()
}

// HitRate returns hits / (hits + misses), or zero before any traffic.
func (t *Tracker) HitRate() float64 {
	hits := t.hits.Load()
	total := hits + t.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Stats holds latency statistics for one operation, in milliseconds.
type Stats struct {
	Operation string
	Count     int64
	Min       float64
	P50       float64
	P90       float64
	P95       float64
	P99       float64
	Max       float64
}

// Stats returns latency statistics for the given operation.
func (t *Tracker) Stats(operation string) (Stats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statsLocked(operation)
}

func (t *Tracker) statsLocked(operation string) (Stats, error) {
	sketch, ok := t.sketches[operation]
	if !ok {
		return Stats{}, fmt.Errorf("no samples for operation %q", operation)
	}

	count := sketch.GetCount()
	if count == 0 {
		return Stats{Operation: operation}, nil
	}

	min, _ := sketch.GetMinValue()
	p50, _ := sketch.GetValueAtQuantile(0.50)
	p90, _ := sketch.GetValueAtQuantile(0.90)
	p95, _ := sketch.GetValueAtQuantile(0.95)
	p99, _ := sketch.GetValueAtQuantile(0.99)
	max, _ := sketch.GetMaxValue()

	return Stats{
		Operation: operation,
		Count:     int64(count),
		Min:       min,
		P50:       p50,
		P90:       p90,
		P95:       p95,
		P99:       p99,
		Max:       max,
	}, nil
}

// AllStats returns latency statistics for every tracked operation.
func (t *Tracker) AllStats() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := make([]Stats, 0, len(t.sketches))
	for operation := range t.sketches {
		if s, err := t.statsLocked(operation); err == nil {
			stats = append(stats, s)
		}
	}
	return stats
}

// String renders the stats line for logs and example output.
func (s Stats) String() string {
	if s.Count == 0 {
		return fmt.Sprintf("  %s: no data", s.Operation)
	}
	return fmt.Sprintf("  %s (n=%d): min=%.2fms p50=%.2fms p90=%.2fms p95=%.2fms p99=%.2fms max=%.2fms",
		s.Operation, s.Count, s.Min, s.P50, s.P90, s.P95, s.P99, s.Max)
}
