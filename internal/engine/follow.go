package engine

import (
	"context"

	"github.com/roach88/schemastore/internal/ir"
)

// FollowAndQueue collapses the $ref chain starting at addr and queues the
// concrete address it ends on, which is returned.
//
// Steps, per address in the chain:
//  1. The document part is canonicalized through the rewriter chain.
//  2. An address already unbuilt or built is returned unchanged.
//  3. The document is fetched (and scanned) if not cached yet.
//  4. If the address is a $ref node, its target is translated through the
//     identifier index and followed.
//  5. Otherwise the address is marked unbuilt.
//
// A chain that revisits an address fails with a CycleError listing it.
func (e *Engine) FollowAndQueue(ctx context.Context, addr ir.Address) (ir.Address, error) {
	chain := newRefChain()
	for {
		addr = e.canonical(addr)
		if e.queue.Contains(addr) {
			return addr, nil
		}
		if chain.WouldCycle(addr) {
			e.logger.Debug("reference cycle", "address", addr.String(), "length", chain.Len())
			return ir.Address{}, chain.Error(addr)
		}
		chain.Record(addr)

		if _, err := e.cache.Fetch(ctx, addr.Document); err != nil {
			return ir.Address{}, err
		}

		target, isRef := e.refs.Target(addr)
		if !isRef {
			break
		}
		if at, ok := e.ids.Translate(target); ok {
			target = at
		}
		addr = target
	}

	e.queue.Add(addr)
	e.logger.Debug("queued address", "address", addr.String(), "unbuilt", e.queue.Len())
	return addr, nil
}
