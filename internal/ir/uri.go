package ir

import (
	"net/url"
	"path/filepath"
)

// ResolveReference resolves ref against base following RFC 3986 relative
// resolution. An empty base (the base pointer document) leaves ref as-is apart
// from normalization.
func ResolveReference(base, ref string) (Address, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return Address{}, NewURIError(ref, err)
	}
	if base == "" {
		return addressFromURL(r), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return Address{}, NewURIError(base, err)
	}
	return addressFromURL(b.ResolveReference(r)), nil
}

// FileURI returns the file-scheme URI for a filesystem path. Relative paths
// are made absolute first.
func FileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", NewURIError(path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// FilePath returns the local filesystem path of a file-scheme URI.
func FilePath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", NewURIError(uri, err)
	}
	if u.Scheme != "file" {
		return "", NewURIError(uri, errNotFileURI)
	}
	return filepath.FromSlash(u.Path), nil
}

// Scheme returns the lower-cased scheme of uri, or "" when it has none.
func Scheme(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return u.Scheme
}
