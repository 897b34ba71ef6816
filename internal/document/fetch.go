package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/roach88/schemastore/internal/ir"
)

var (
	errNoBaseDocument = errors.New("no base document loaded")
	errNoTransport    = errors.New("no transport registered for scheme")
)

// Fetcher retrieves the raw content of a document URI. The URI has already
// been rewritten. Fetchers do not retry.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, uri string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}

// FileFetcher reads file-scheme URIs from the local filesystem.
type FileFetcher struct{}

// Fetch reads the file named by uri.
func (FileFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	path, err := ir.FilePath(uri)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// DefaultHTTPTimeout bounds a single HTTP document fetch.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPFetcher retrieves http and https URIs.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with DefaultHTTPTimeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: DefaultHTTPTimeout}}
}

// Fetch issues a GET request and returns the body of a 2xx response.
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/schema+json, application/json, application/yaml;q=0.9, */*;q=0.5")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// SchemeFetcher dispatches to a Fetcher by URI scheme.
type SchemeFetcher map[string]Fetcher

// Fetch routes uri to the fetcher registered for its scheme.
func (m SchemeFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	scheme := ir.Scheme(uri)
	f, ok := m[scheme]
	if !ok {
		return nil, fmt.Errorf("%w %q", errNoTransport, scheme)
	}
	return f.Fetch(ctx, uri)
}

// DefaultFetcher handles file, http, and https URIs.
func DefaultFetcher() SchemeFetcher {
	httpFetcher := NewHTTPFetcher()
	return SchemeFetcher{
		"file":  FileFetcher{},
		"http":  httpFetcher,
		"https": httpFetcher,
	}
}
