package index

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/schemastore/internal/ir"
)

// Keywords recognized by the scanner.
const (
	KeywordID    = "$id"
	KeywordRef   = "$ref"
	KeywordAllOf = "allOf"
)

// Scanner records identifier and reference bindings for scanned documents.
type Scanner struct {
	ids    *Identifiers
	refs   *References
	logger *slog.Logger
}

// NewScanner creates a scanner that writes into ids and refs.
func NewScanner(ids *Identifiers, refs *References, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{ids: ids, refs: refs, logger: logger}
}

// Scan walks doc, the document stored under uri, depth-first.
//
// At each object node:
//  1. A string $id is resolved against the active identifier (or uri when
//     none is active), bound to the node's address, and becomes the active
//     identifier for this node and its subtree.
//  2. A string $ref is resolved against uri when no identifier is active or
//     the value starts with '#', and against the active identifier otherwise.
//     The node's address is bound to the result.
//  3. An object with no $ref whose only constraint is an allOf holding a
//     single pure {"$ref": ...} is an alias: the node is bound to that ref's
//     target as if it carried the $ref itself. The keywords listed by
//     AliasNeutralKeywords do not count as constraints.
//  4. Every member is visited, followed by every array element.
//
// Members are visited in sorted key order so bindings are recorded
// deterministically. Bindings are staged during the walk and committed only
// when the whole document scans cleanly, so a failed scan leaves both indexes
// untouched.
func (s *Scanner) Scan(uri string, doc any) error {
	b := &batch{seen: make(map[ir.Address]ir.Address)}
	if err := s.walk(b, uri, ir.Address{Document: uri}, doc, ""); err != nil {
		return err
	}
	for _, id := range b.ids {
		if err := s.ids.Bind(id.From, id.To); err != nil {
			return err
		}
	}
	for _, ref := range b.refs {
		s.refs.Bind(ref.From, ref.To)
	}
	s.logger.Debug("scanned document",
		"uri", uri,
		"identifiers", len(b.ids),
		"references", len(b.refs),
	)
	return nil
}

// batch holds the bindings of one document until its scan succeeds.
type batch struct {
	ids  []Binding
	refs []Binding
	seen map[ir.Address]ir.Address
}

func (s *Scanner) stageID(b *batch, id, at ir.Address) error {
	if prev, ok := b.seen[id]; ok && prev != at && s.ids.strict {
		return ir.NewDuplicateIdentifierError(id.String(), prev, at)
	}
	if err := s.ids.Check(id, at); err != nil {
		return err
	}
	b.seen[id] = at
	b.ids = append(b.ids, Binding{From: id, To: at})
	return nil
}

func (s *Scanner) walk(b *batch, uri string, at ir.Address, node any, activeID string) error {
	switch n := node.(type) {
	case map[string]any:
		if raw, ok := n[KeywordID].(string); ok {
			base := uri
			if activeID != "" {
				base = activeID
			}
			id, err := ir.ResolveReference(base, raw)
			if err != nil {
				return err
			}
			if err := s.stageID(b, id, at); err != nil {
				return err
			}
			activeID = id.String()
		}

		raw, ok := n[KeywordRef].(string)
		if !ok {
			raw, ok = wrappedRef(n)
		}
		if ok {
			target, err := refTarget(uri, activeID, raw)
			if err != nil {
				return err
			}
			b.refs = append(b.refs, Binding{From: at, To: target})
		}

		for _, key := range ir.SortedKeys(n) {
			if err := s.walk(b, uri, at.Child(key), n[key], activeID); err != nil {
				return err
			}
		}
	case []any:
		for i, elem := range n {
			if err := s.walk(b, uri, at.Child(strconv.Itoa(i)), elem, activeID); err != nil {
				return err
			}
		}
	}
	return nil
}

// refTarget resolves a $ref value: against the physical document when no
// identifier is active or the value is a fragment, against the active
// identifier otherwise.
func refTarget(uri, activeID, raw string) (ir.Address, error) {
	base := activeID
	if activeID == "" || strings.HasPrefix(raw, "#") {
		base = uri
	}
	return ir.ResolveReference(base, raw)
}

// aliasNeutral lists keywords that may sit next to an alias allOf. None of
// them changes the outline the default builder produces for a node, so
// collapsing the node onto its target loses nothing.
var aliasNeutral = map[string]bool{
	KeywordID:     true,
	KeywordAllOf:  true,
	"$schema":     true,
	"$comment":    true,
	"$defs":       true,
	"definitions": true,
}

// AliasNeutralKeywords returns the keywords that may sit next to an alias
// allOf, sorted.
func AliasNeutralKeywords() []string {
	out := make([]string, 0, len(aliasNeutral))
	for k := range aliasNeutral {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// wrappedRef returns the $ref of {"allOf": [{"$ref": ...}]}.
func wrappedRef(obj map[string]any) (string, bool) {
	for key := range obj {
		if !aliasNeutral[key] {
			return "", false
		}
	}
	all, ok := obj[KeywordAllOf].([]any)
	if !ok || len(all) != 1 {
		return "", false
	}
	elem, ok := all[0].(map[string]any)
	if !ok || len(elem) != 1 {
		return "", false
	}
	raw, ok := elem[KeywordRef].(string)
	return raw, ok
}
