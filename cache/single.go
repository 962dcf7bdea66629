package cache

import "context"

// readSingle is the cache-aside pipeline for a call with exactly one
// logical key: read through, compute on miss, optionally write back.
func (d *Dispatcher) readSingle(ctx context.Context, desc *Descriptor, inv Invocation, writeBack bool) (any, error) {
	key, err := d.codec.SingleKey(desc, inv.Args())
	if err != nil {
		return nil, err
	}

	value, present, err := d.backend.Read(ctx, key)
	if err != nil {
		if canceled(err) {
			return nil, err
		}
		// Fail-open: a broken backend read is a miss, the computation
		// below is the source of truth.
		d.backendFailure("read", desc.Method, err)
		present = false
	}
	if present {
		d.markHits(1)
		return value, nil
	}
	d.markMisses(1)

	compute := func() (any, error) {
		result, err := inv.Proceed(ctx, inv.Args())
		if err != nil {
			return nil, err
		}
		if writeBack {
			if werr := d.backend.Write(ctx, key, result, desc.TTL); werr != nil {
				if canceled(werr) {
					return nil, werr
				}
				// The result is already computed; a failed write never
				// costs the caller the value.
				d.backendFailure("write", desc.Method, werr)
			}
		}
		return result, nil
	}

	if d.flight == nil {
		return compute()
	}

	result, err, _ := d.flight.Do(key, compute)
	return result, err
}
