package document

import (
	"fmt"
	"strings"
)

// Rewriter maps a URI to the URI that should actually be fetched.
// Rewriters must be pure: the same input always yields the same output.
type Rewriter func(uri string) string

// PrefixRewriter replaces a leading from with to. URIs without the prefix
// pass through unchanged.
func PrefixRewriter(from, to string) Rewriter {
	return func(uri string) string {
		if rest, ok := strings.CutPrefix(uri, from); ok {
			return to + rest
		}
		return uri
	}
}

// MapRewriter replaces exact URIs found in m.
func MapRewriter(m map[string]string) Rewriter {
	return func(uri string) string {
		if to, ok := m[uri]; ok {
			return to
		}
		return uri
	}
}

// ParseRewrite parses a "from=to" prefix rule, as accepted by the --rewrite
// flag and SCHEMASTORE_REWRITES.
func ParseRewrite(rule string) (Rewriter, error) {
	from, to, ok := strings.Cut(rule, "=")
	if !ok || strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("invalid rewrite rule %q: want from=to", rule)
	}
	return PrefixRewriter(strings.TrimSpace(from), strings.TrimSpace(to)), nil
}

// ParseRewrites parses every rule, stopping at the first invalid one.
func ParseRewrites(rules []string) ([]Rewriter, error) {
	out := make([]Rewriter, 0, len(rules))
	for _, rule := range rules {
		if strings.TrimSpace(rule) == "" {
			continue
		}
		r, err := ParseRewrite(rule)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
