package testutil

import (
	"context"
	"fmt"
	"sync"
)

// MapFetcher serves documents from an in-memory map of URI to content and
// counts every call per URI.
//
// It satisfies document.Fetcher. Unknown URIs fail, which the cache reports
// as a fetch error.
//
// Thread-safety: MapFetcher is safe for concurrent use via internal mutex.
type MapFetcher struct {
	mu    sync.Mutex
	docs  map[string]string
	calls map[string]int
	order []string
}

// NewMapFetcher creates a fetcher serving docs.
func NewMapFetcher(docs map[string]string) *MapFetcher {
	copied := make(map[string]string, len(docs))
	for k, v := range docs {
		copied[k] = v
	}
	return &MapFetcher{docs: copied, calls: make(map[string]int)}
}

// Fetch returns the content registered for uri.
func (f *MapFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[uri]++
	f.order = append(f.order, uri)
	content, ok := f.docs[uri]
	if !ok {
		return nil, fmt.Errorf("no such document: %s", uri)
	}
	return []byte(content), nil
}

// Set registers or replaces content for uri.
func (f *MapFetcher) Set(uri, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[uri] = content
}

// Calls returns how many times uri was fetched.
func (f *MapFetcher) Calls(uri string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[uri]
}

// TotalCalls returns the number of fetches across all URIs.
func (f *MapFetcher) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// Order returns every fetched URI in call order.
func (f *MapFetcher) Order() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}
