package cache

// KeySet is the per-invocation mapping between a caller's raw key elements
// and their derived sub-keys. It remembers the original element sequence,
// duplicates included, so a merged batch result comes back in exactly the
// order the keys were supplied. Duplicate elements collapse to a single
// cache slot but still produce one result slot each.
//
// A KeySet lives for one pipeline execution and is never shared.
type KeySet struct {
	order    []string       // distinct sub-keys, first-occurrence order
	rawBySub map[string]any // sub-key -> first raw element that produced it
	seq      []string       // sub-key per original input element
}

func newKeySet(capacity int) *KeySet {
	return &KeySet{
		order:    make([]string, 0, capacity),
		rawBySub: make(map[string]any, capacity),
		seq:      make([]string, 0, capacity),
	}
}

func (ks *KeySet) add(subKey string, raw any) {
	ks.seq = append(ks.seq, subKey)
	if _, seen := ks.rawBySub[subKey]; seen {
		return
	}
	ks.order = append(ks.order, subKey)
	ks.rawBySub[subKey] = raw
}

// SubKeys returns the distinct sub-keys in first-occurrence order.
func (ks *KeySet) SubKeys() []string {
	return append([]string(nil), ks.order...)
}

// Len is the number of distinct cache slots the invocation touches.
func (ks *KeySet) Len() int { return len(ks.order) }

// Raw returns the raw element a sub-key was derived from.
func (ks *KeySet) Raw(subKey string) (any, bool) {
	raw, ok := ks.rawBySub[subKey]
	return raw, ok
}

// Missing splits the key set against a batch-read result: it returns the
// sub-keys absent from hits together with their raw elements, both in
// original order, ready to hand to the underlying computation.
func (ks *KeySet) Missing(hits map[string]any) (subKeys []string, raws []any) {
	for _, sub := range ks.order {
		if _, ok := hits[sub]; ok {
			continue
		}
		subKeys = append(subKeys, sub)
		raws = append(raws, ks.rawBySub[sub])
	}
	return subKeys, raws
}

// Assemble walks the original element sequence and collects each value from
// hits first, then fresh. Elements with no value in either map are omitted:
// a partial batch result is a short collection, not an error.
func (ks *KeySet) Assemble(hits, fresh map[string]any) []any {
	out := make([]any, 0, len(ks.seq))
	for _, sub := range ks.seq {
		if v, ok := hits[sub]; ok {
			out = append(out, v)
			continue
		}
		if v, ok := fresh[sub]; ok {
			out = append(out, v)
		}
	}
	return out
}

// freshBySub converts a raw-keyed computation result into a sub-keyed map
// using this key set's mapping. Values for raw keys that were never part of
// the invocation are dropped.
func (ks *KeySet) freshBySub(byRaw map[any]any) map[string]any {
	if len(byRaw) == 0 {
		return nil
	}
	out := make(map[string]any, len(byRaw))
	for _, sub := range ks.order {
		if v, ok := byRaw[ks.rawBySub[sub]]; ok {
			out[sub] = v
		}
	}
	return out
}
