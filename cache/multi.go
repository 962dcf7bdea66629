package cache

import "context"

// readMulti is the cache-aside pipeline for a batch-shaped call: batch-read
// the existing entries, run the computation for the complement set only,
// write the fresh entries back, and merge everything in the caller's
// original key order.
func (d *Dispatcher) readMulti(ctx context.Context, desc *Descriptor, inv Invocation, writeBack bool) (any, error) {
	ks, err := d.codec.MultiKey(desc, inv.Args())
	if err != nil {
		return nil, err
	}

	hits, err := d.backend.ReadBatch(ctx, ks.SubKeys())
	if err != nil {
		if canceled(err) {
			return nil, err
		}
		// Fail-open: treat the whole batch as a miss.
		d.backendFailure("read_batch", desc.Method, err)
		hits = nil
	}
	d.markHits(len(hits))

	missSubs, missRaws := ks.Missing(hits)
	d.markMisses(len(missSubs))

	var fresh map[string]any
	if len(missSubs) > 0 {
		result, err := inv.Proceed(ctx, replaceKeyArg(inv.Args(), desc.KeyArg, missRaws))
		if err != nil {
			return nil, err
		}

		byRaw, err := asBatchResult(result)
		if err != nil {
			return nil, err
		}

		fresh = ks.freshBySub(byRaw)
		if writeBack && len(fresh) > 0 {
			if werr := d.backend.WriteBatch(ctx, fresh, desc.TTL); werr != nil {
				if canceled(werr) {
					return nil, werr
				}
				d.backendFailure("write_batch", desc.Method, werr)
			}
		}
	}

	return ks.Assemble(hits, fresh), nil
}

// replaceKeyArg swaps the key argument for the reduced miss set, leaving
// every other argument untouched.
func replaceKeyArg(args []any, keyArg int, raws []any) []any {
	out := append([]any(nil), args...)
	out[keyArg] = raws
	return out
}

// asBatchResult narrows a batch computation's return value to the raw-keyed
// map the pipeline merges from. A nil result means the computation found
// nothing, which is a legal partial-batch gap.
func asBatchResult(result any) (map[any]any, error) {
	if result == nil {
		return nil, nil
	}
	byRaw, ok := result.(map[any]any)
	if !ok {
		return nil, ErrBatchResultShape
	}
	return byRaw, nil
}
