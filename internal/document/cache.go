package document

import (
	"context"
	"log/slog"
	"slices"

	"github.com/roach88/schemastore/internal/ir"
)

// StoreHook is called once for every newly cached document, after it is
// stored and before the operation that cached it returns. A hook error
// removes the document from the cache again.
type StoreHook func(uri string, doc any) error

// Cache is a process-lifetime map from rewritten document URI to parsed
// document.
//
// Cache is not safe for concurrent use; it is owned by a single engine.
type Cache struct {
	fetcher   Fetcher
	rewriters []Rewriter
	docs      map[string]any
	order     []string // URIs in the order they were cached
	onStore   StoreHook
	logger    *slog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithRewriters appends rewriters to the chain, in order.
func WithRewriters(rs ...Rewriter) CacheOption {
	return func(c *Cache) {
		c.rewriters = append(c.rewriters, rs...)
	}
}

// WithStoreHook sets the hook run for each newly cached document.
func WithStoreHook(h StoreHook) CacheOption {
	return func(c *Cache) {
		c.onStore = h
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = l
	}
}

// NewCache creates an empty cache that fetches misses through f.
// A nil fetcher defaults to DefaultFetcher().
func NewCache(f Fetcher, opts ...CacheOption) *Cache {
	if f == nil {
		f = DefaultFetcher()
	}
	c := &Cache{
		fetcher: f,
		docs:    make(map[string]any),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddRewriter appends a rewriter to the end of the chain.
func (c *Cache) AddRewriter(r Rewriter) {
	c.rewriters = append(c.rewriters, r)
}

// SetStoreHook replaces the store hook.
func (c *Cache) SetStoreHook(h StoreHook) {
	c.onStore = h
}

// Canonical returns uri after every rewriter has been applied in order.
// The empty base URI is never rewritten.
func (c *Cache) Canonical(uri string) string {
	if uri == "" {
		return uri
	}
	for _, r := range c.rewriters {
		uri = r(uri)
	}
	return uri
}

// Fetch returns the document for uri, fetching and decoding it on first use.
//
// Errors:
//   - FetchError when the transport fails
//   - ContentError when the content does not decode to an object or array
//   - whatever the store hook returns (the document is then not cached)
func (c *Cache) Fetch(ctx context.Context, uri string) (any, error) {
	rewritten := c.Canonical(uri)
	if doc, ok := c.docs[rewritten]; ok {
		return doc, nil
	}
	if rewritten == "" {
		return nil, ir.NewFetchError(uri, errNoBaseDocument)
	}

	if rewritten != uri {
		c.logger.Debug("fetching document", "uri", uri, "rewritten", rewritten)
	} else {
		c.logger.Debug("fetching document", "uri", uri)
	}

	data, err := c.fetcher.Fetch(ctx, rewritten)
	if err != nil {
		return nil, ir.NewFetchError(rewritten, err)
	}
	doc, err := Decode(rewritten, data)
	if err != nil {
		return nil, err
	}
	if err := c.store(rewritten, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Put installs a caller-supplied document under uri. The value is converted
// to the document tree model first.
//
// Installing the same document again is a no-op. A URI that is already
// cached with a different document fails with a ContentError and the cached
// document is kept, since its bindings are already indexed.
func (c *Cache) Put(uri string, value any) (any, error) {
	doc, err := ir.ToValue(value)
	if err != nil {
		return nil, ir.NewContentError(uri, "value is not representable as JSON", err)
	}
	if !ir.IsContainer(doc) {
		return nil, ir.NewContentError(uri, "document must be a JSON object or array, got "+ir.KindOf(doc), nil)
	}
	if prev, ok := c.docs[uri]; ok {
		same, err := sameDocument(prev, doc)
		if err != nil {
			return nil, ir.NewContentError(uri, "value is not representable as JSON", err)
		}
		if !same {
			return nil, ir.NewContentError(uri, "a different document is already loaded", nil)
		}
		return prev, nil
	}
	if err := c.store(uri, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func sameDocument(a, b any) (bool, error) {
	da, err := ir.DocumentDigest(a)
	if err != nil {
		return false, err
	}
	db, err := ir.DocumentDigest(b)
	if err != nil {
		return false, err
	}
	return da == db, nil
}

func (c *Cache) store(uri string, doc any) error {
	c.docs[uri] = doc
	c.order = append(c.order, uri)
	if c.onStore == nil {
		return nil
	}
	if err := c.onStore(uri, doc); err != nil {
		delete(c.docs, uri)
		c.order = c.order[:len(c.order)-1]
		return err
	}
	return nil
}

// Document returns the cached document stored under the already-rewritten uri.
func (c *Cache) Document(uri string) (any, bool) {
	doc, ok := c.docs[uri]
	return doc, ok
}

// URIs returns the cached URIs in the order they were cached.
func (c *Cache) URIs() []string {
	return slices.Clone(c.order)
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	return len(c.docs)
}
