package engine

import (
	"context"
	"errors"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/schemastore/internal/document"
	"github.com/roach88/schemastore/internal/index"
	"github.com/roach88/schemastore/internal/ir"
)

// Builder compiles the value at a concrete address into a result.
//
// Build is called at most once per address per engine. It may call back into
// e (Resolve, FollowAndQueue, Fetch) to pull in dependencies.
type Builder interface {
	Build(ctx context.Context, e *Engine, addr ir.Address) (any, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, e *Engine, addr ir.Address) (any, error)

// Build calls f(ctx, e, addr).
func (f BuilderFunc) Build(ctx context.Context, e *Engine, addr ir.Address) (any, error) {
	return f(ctx, e, addr)
}

// SessionGenerator generates session ids for snapshots.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type SessionGenerator interface {
	Generate() string
}

// DefaultMaxBuilds is the default maximum number of builds per Process call.
// This bounds runaway builders that keep queueing fresh addresses.
const DefaultMaxBuilds = 10000

// DefaultResolveCacheSize is the default number of pointer evaluations
// memoized by Resolve.
const DefaultResolveCacheSize = 1024

var errNoBuilder = errors.New("engine has no builder")

// Engine is one resolution session.
type Engine struct {
	cache   *document.Cache
	ids     *index.Identifiers
	refs    *index.References
	scanner *index.Scanner
	queue   *buildQueue
	clock   *Clock
	builder Builder
	logger  *slog.Logger
	session string

	// Pointer evaluations keyed by physical address. Documents never change
	// once cached, so entries never go stale.
	resolved *lru.Cache[ir.Address, any]

	// Construction-time settings, applied by New.
	fetcher    document.Fetcher
	rewriters  []document.Rewriter
	strictIDs  bool
	maxBuilds  int
	cacheSize  int
	sessionGen SessionGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithFetcher sets the transport used for cache misses.
// Default: document.DefaultFetcher() (file, http, https).
func WithFetcher(f document.Fetcher) Option {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// WithRewriters appends URI rewriters, applied in order before every cache
// lookup.
func WithRewriters(rs ...document.Rewriter) Option {
	return func(e *Engine) {
		e.rewriters = append(e.rewriters, rs...)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithStrictIdentifiers makes a second declaration of an $id at a different
// address fail with a DuplicateIdentifierError. By default the last
// declaration wins.
func WithStrictIdentifiers(strict bool) Option {
	return func(e *Engine) {
		e.strictIDs = strict
	}
}

// WithMaxBuilds sets the maximum number of builds per Process call.
//
// Default: 10000 builds (DefaultMaxBuilds)
// Use WithMaxBuilds(0) to disable the limit.
func WithMaxBuilds(n int) Option {
	return func(e *Engine) {
		e.maxBuilds = n
	}
}

// WithResolveCacheSize sets how many pointer evaluations Resolve memoizes.
// Use WithResolveCacheSize(0) to disable memoization.
func WithResolveCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithSessionGenerator sets the generator for the session id.
// Default: UUIDv7Generator.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(e *Engine) {
		e.sessionGen = g
	}
}

// New creates an Engine that compiles queued addresses with b.
//
// b may be nil for sessions that only resolve and queue; Process then fails.
func New(b Builder, opts ...Option) *Engine {
	e := &Engine{
		builder:    b,
		clock:      NewClock(),
		queue:      newBuildQueue(),
		logger:     slog.Default(),
		maxBuilds:  DefaultMaxBuilds,
		cacheSize:  DefaultResolveCacheSize,
		sessionGen: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}

	e.session = e.sessionGen.Generate()
	e.ids = index.NewIdentifiers(e.strictIDs)
	e.refs = index.NewReferences()
	e.scanner = index.NewScanner(e.ids, e.refs, e.logger)
	e.cache = document.NewCache(e.fetcher,
		document.WithRewriters(e.rewriters...),
		document.WithStoreHook(e.scanner.Scan),
		document.WithLogger(e.logger),
	)
	if e.cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		e.resolved, _ = lru.New[ir.Address, any](e.cacheSize)
	}
	return e
}

// Session returns the session id of this engine.
func (e *Engine) Session() string {
	return e.session
}

// Identifiers returns the identifier index.
func (e *Engine) Identifiers() *index.Identifiers {
	return e.ids
}

// References returns the reference index.
func (e *Engine) References() *index.References {
	return e.refs
}

// Documents returns the document cache.
func (e *Engine) Documents() *document.Cache {
	return e.cache
}

// Fetch returns the document for uri, fetching and scanning it on first use.
func (e *Engine) Fetch(ctx context.Context, uri string) (any, error) {
	return e.cache.Fetch(ctx, uri)
}

// Physical maps addr to the physical location it denotes: identifier
// translation first, then the rewriter chain on the document part.
func (e *Engine) Physical(addr ir.Address) ir.Address {
	if at, ok := e.ids.Translate(addr); ok {
		addr = at
	}
	return e.canonical(addr)
}

func (e *Engine) canonical(addr ir.Address) ir.Address {
	addr = addr.Normalized()
	return ir.Address{Document: e.cache.Canonical(addr.Document), Fragment: addr.Fragment}
}

// Resolve returns the JSON value addr denotes.
//
// A fragment that is absent or exactly "/" selects the whole document;
// any other fragment is evaluated as a JSON Pointer.
//
// Errors:
//   - FetchError / ContentError from loading the document
//   - PointerError when the fragment does not resolve
func (e *Engine) Resolve(ctx context.Context, addr ir.Address) (any, error) {
	phys := e.Physical(addr)
	if e.resolved != nil {
		if v, ok := e.resolved.Get(phys); ok {
			return v, nil
		}
	}

	doc, err := e.cache.Fetch(ctx, phys.Document)
	if err != nil {
		return nil, err
	}
	if phys.WholeDocument() {
		return doc, nil
	}

	v, err := ir.EvaluatePointer(doc, phys.Fragment)
	if err != nil {
		var perr *ir.Error
		if errors.As(err, &perr) {
			perr.URI = phys.Document
		}
		return nil, err
	}
	if e.resolved != nil {
		e.resolved.Add(phys, v)
	}
	return v, nil
}
