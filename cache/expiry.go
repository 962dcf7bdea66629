package cache

import (
	"fmt"
	"time"
)

// Expiry is a tagged time-to-live value. It replaces the usual convention of
// overloading one integer field with magic sentinels ("-1 means forever",
// "0 means off"), which makes it impossible to tell a disabled entry from a
// permanent one at a call site.
//
// The zero value is Disabled: a policy that never sets a TTL never caches.
type Expiry struct {
	mode expiryMode
	ttl  time.Duration
}

type expiryMode uint8

const (
	expiryDisabled expiryMode = iota
	expiryForever
	expiryTTL
)

// Disabled returns an Expiry that turns caching off for the call sites that
// carry it. Pipelines short-circuit straight to the underlying computation.
func Disabled() Expiry {
	return Expiry{mode: expiryDisabled}
}

// Forever returns an Expiry for entries that never expire. Backends must
// treat this distinctly from any finite duration.
func Forever() Expiry {
	return Expiry{mode: expiryForever}
}

// TTL returns an Expiry for entries that live for d. A non-positive d is
// normalized to Disabled rather than silently caching forever.
func TTL(d time.Duration) Expiry {
	if d <= 0 {
		return Disabled()
	}
	return Expiry{mode: expiryTTL, ttl: d}
}

// IsDisabled reports whether caching is switched off by this value.
func (e Expiry) IsDisabled() bool { return e.mode == expiryDisabled }

// IsForever reports whether entries written with this value never expire.
func (e Expiry) IsForever() bool { return e.mode == expiryForever }

// Duration returns the finite TTL, or zero when the value is Forever or
// Disabled. Callers should check IsForever/IsDisabled first.
func (e Expiry) Duration() time.Duration {
	if e.mode == expiryTTL {
		return e.ttl
	}
	return 0
}

// String renders the value for logs.
func (e Expiry) String() string {
	switch e.mode {
	case expiryForever:
		return "forever"
	case expiryTTL:
		return e.ttl.String()
	default:
		return "disabled"
	}
}

// Deadline translates the Expiry into an absolute wall-clock deadline
// starting at now. The second return is false for Forever entries.
func (e Expiry) Deadline(now time.Time) (time.Time, bool) {
	if e.mode == expiryTTL {
		return now.Add(e.ttl), true
	}
	return time.Time{}, false
}

// MarshalText implements encoding.TextMarshaler so an Expiry can round-trip
// through configuration files.
func (e Expiry) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses "disabled", "forever", or any time.ParseDuration
// string.
func (e *Expiry) UnmarshalText(text []byte) error {
	switch s := string(text); s {
	case "disabled", "":
		*e = Disabled()
	case "forever":
		*e = Forever()
	default:
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid expiry %q: %w", s, err)
		}
		*e = TTL(d)
	}
	return nil
}
