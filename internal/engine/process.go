package engine

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/roach88/schemastore/internal/ir"
)

// LoadBaseObject installs value as the base document, scans it, and queues
// the base address. Returns the concrete address the base resolves to, which
// differs from ir.Base when the root is a $ref.
//
// value may be any Go value that marshals to a JSON object or array. Loading
// an identical base again only re-queues it; a different value fails with a
// ContentError.
func (e *Engine) LoadBaseObject(ctx context.Context, value any) (ir.Address, error) {
	if _, err := e.cache.Put(ir.Base.Document, value); err != nil {
		return ir.Address{}, err
	}
	return e.FollowAndQueue(ctx, ir.Base)
}

// LoadResources walks dir and calls FollowAndQueue on the file URI of every
// regular file, in lexical order. Every file is fetched and scanned before
// this returns, so identifiers declared anywhere in dir are known to Process.
func (e *Engine) LoadResources(ctx context.Context, dir string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return ir.NewURIError(dir, err)
	}

	loaded := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return ir.NewFetchError(path, err)
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		uri, err := ir.FileURI(path)
		if err != nil {
			return err
		}
		if _, err := e.FollowAndQueue(ctx, ir.Address{Document: uri}); err != nil {
			return err
		}
		loaded++
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("loaded resources", "dir", root, "files", loaded, "documents", e.cache.Len())
	return nil
}

// Process builds every unbuilt address, including addresses the builder
// queues while Process runs, in FIFO order.
//
// A builder error aborts the drain with a BuildError wrapping it; the failing
// address stays unbuilt and is retried first by the next Process call. Cached
// documents are never re-fetched.
//
// Errors:
//   - BuildError when the builder fails
//   - QuotaError when more than the max-builds limit would run
//   - ctx.Err() when the context is cancelled between builds
func (e *Engine) Process(ctx context.Context) error {
	if e.builder == nil {
		return errNoBuilder
	}

	budget := newBuildBudget(e.maxBuilds)
	e.logger.Info("process starting", "session", e.session, "unbuilt", e.queue.Len())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		addr, ok := e.queue.Peek()
		if !ok {
			break
		}
		if err := budget.Check(); err != nil {
			e.logger.Error("max builds quota exceeded",
				"session", e.session,
				"builds", budget.Current(),
				"limit", e.maxBuilds,
			)
			return err
		}

		result, err := e.builder.Build(ctx, e, addr)
		if err != nil {
			e.logger.Error("build failed", "address", addr.String(), "error", err)
			return ir.NewBuildError(addr, err)
		}

		seq := e.clock.Next()
		e.queue.Complete(addr, result, seq)
		e.logger.Debug("built address", "address", addr.String(), "seq", seq)
	}

	e.logger.Info("process finished", "session", e.session, "builds", budget.Current())
	return nil
}

// Built returns every built address with its result.
func (e *Engine) Built() map[ir.Address]any {
	out := make(map[ir.Address]any, len(e.queue.built))
	for _, entry := range e.queue.built {
		out[entry.addr] = entry.result
	}
	return out
}

// Result returns the builder result for addr, if built.
func (e *Engine) Result(addr ir.Address) (any, bool) {
	entry, ok := e.queue.Lookup(e.canonical(addr))
	if !ok || entry.state != stateBuilt {
		return nil, false
	}
	return entry.result, true
}

// IsBuilt reports whether addr has been built.
func (e *Engine) IsBuilt(addr ir.Address) bool {
	_, ok := e.Result(addr)
	return ok
}

// Unbuilt returns the addresses still waiting for Process, in FIFO order.
func (e *Engine) Unbuilt() []ir.Address {
	return e.queue.Unbuilt()
}
