package ir

import (
	"strconv"
	"strings"
)

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// EscapePointerToken escapes a single reference token per RFC 6901:
// '~' becomes "~0" and '/' becomes "~1".
func EscapePointerToken(token string) string {
	return pointerEscaper.Replace(token)
}

// UnescapePointerToken reverses EscapePointerToken.
func UnescapePointerToken(token string) string {
	return pointerUnescaper.Replace(token)
}

// PointerTokens splits a JSON Pointer into its unescaped reference tokens.
// The empty pointer yields no tokens. A pointer that does not start with '/'
// is rejected.
func PointerTokens(pointer string) ([]string, bool) {
	if pointer == "" {
		return nil, true
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, false
	}
	parts := strings.Split(pointer[1:], "/")
	for i, p := range parts {
		parts[i] = UnescapePointerToken(p)
	}
	return parts, true
}

// EvaluatePointer returns the value at pointer within doc.
//
// Objects are indexed by key and arrays by decimal index. A missing key, a
// malformed or out-of-range index, or a token applied to a scalar fails with a
// PointerError naming the offending prefix.
func EvaluatePointer(doc any, pointer string) (any, error) {
	tokens, ok := PointerTokens(pointer)
	if !ok {
		return nil, NewPointerError("", pointer, "pointer must start with '/'")
	}
	cur := doc
	walked := ""
	for _, tok := range tokens {
		walked += "/" + EscapePointerToken(tok)
		switch node := cur.(type) {
		case map[string]any:
			next, exists := node[tok]
			if !exists {
				return nil, NewPointerError("", walked, "no member named "+strconv.Quote(tok))
			}
			cur = next
		case []any:
			idx, err := parseArrayIndex(tok)
			if err != nil {
				return nil, NewPointerError("", walked, "invalid array index "+strconv.Quote(tok))
			}
			if idx >= len(node) {
				return nil, NewPointerError("", walked, "array index "+tok+" out of range (len "+strconv.Itoa(len(node))+")")
			}
			cur = node[idx]
		default:
			return nil, NewPointerError("", walked, "cannot index "+KindOf(cur)+" with "+strconv.Quote(tok))
		}
	}
	return cur, nil
}

// parseArrayIndex accepts RFC 6901 array indexes: "0" or a decimal without
// leading zeros.
func parseArrayIndex(tok string) (int, error) {
	if tok == "" || (len(tok) > 1 && tok[0] == '0') {
		return 0, strconv.ErrSyntax
	}
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(tok)
}
