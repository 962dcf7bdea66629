package cache

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter between the policy prefix and the
// rendered key argument.
const KeySeparator = "::"

// maxKeyLength is the longest rendered key we hand to a backend verbatim.
// Anything longer is digested so remote stores with key limits stay happy
// and so pathological arguments cannot blow up key space.
const maxKeyLength = 128

// KeyCodec derives cache keys from a descriptor and the intercepted
// arguments. SingleKey covers one-key methods; MultiKey expands a slice
// argument into an ordered, de-duplicated key set.
type KeyCodec interface {
	SingleKey(d *Descriptor, args []any) (string, error)
	ElementKey(d *Descriptor, element any) string
	MultiKey(d *Descriptor, args []any) (*KeySet, error)
}

// defaultKeyCodec renders key arguments with reflection so callers can key
// on strings, integers, uuid-like stringers, or small structs without
// registering anything. Rendering is deterministic within a process.
type defaultKeyCodec struct{}

// NewDefaultKeyCodec creates the codec used when a dispatcher is built
// without an explicit one.
func NewDefaultKeyCodec() KeyCodec {
	return &defaultKeyCodec{}
}

func (c *defaultKeyCodec) SingleKey(d *Descriptor, args []any) (string, error) {
	if d.KeyArg >= len(args) {
		return "", ErrKeyArgOutOfRange
	}
	return c.ElementKey(d, args[d.KeyArg]), nil
}

// ElementKey renders one raw key element under the descriptor's prefix.
// Multi-key sub-keys and single keys are built the same way so a value
// cached through a batch call is a hit for the single-key call and vice
// versa.
func (c *defaultKeyCodec) ElementKey(d *Descriptor, element any) string {
	rendered := renderValue(element)
	if len(rendered) > maxKeyLength {
		rendered = "x" + strconv.FormatUint(xxhash.Sum64String(rendered), 16)
	}
	return d.KeyPrefix + KeySeparator + rendered
}

func (c *defaultKeyCodec) MultiKey(d *Descriptor, args []any) (*KeySet, error) {
	if d.KeyArg >= len(args) {
		return nil, ErrKeyArgOutOfRange
	}

	rv := reflect.ValueOf(args[d.KeyArg])
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, ErrKeyArgNotSlice
	}

	ks := newKeySet(rv.Len())
	for i := 0; i < rv.Len(); i++ {
		raw := rv.Index(i).Interface()
		ks.add(c.ElementKey(d, raw), raw)
	}
	return ks, nil
}

// renderValue turns a key argument into its key segment. Strings and
// integers cover the overwhelming majority of keys and get fast paths;
// pointers dereference, fmt.Stringer is honored, and everything else falls
// back to %v.
func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case fmt.Stringer:
		return t.String()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "nil"
		}
		return renderValue(rv.Elem().Interface())
	}

	return fmt.Sprintf("%v", v)
}
