package engine

import (
	"fmt"

	"github.com/roach88/schemastore/internal/index"
	"github.com/roach88/schemastore/internal/ir"
)

// Snapshot captures the session state for persistence and golden tests.
func (e *Engine) Snapshot() (ir.Snapshot, error) {
	snap := ir.Snapshot{
		Session:     e.session,
		Documents:   []ir.DocumentEntry{},
		Identifiers: bindingEntries(e.ids.All()),
		References:  bindingEntries(e.refs.All()),
		Built:       []ir.BuiltEntry{},
		Unbuilt:     []string{},
	}

	for _, uri := range e.cache.URIs() {
		doc, _ := e.cache.Document(uri)
		digest, err := ir.DocumentDigest(doc)
		if err != nil {
			return ir.Snapshot{}, fmt.Errorf("digest document %q: %w", uri, err)
		}
		snap.Documents = append(snap.Documents, ir.DocumentEntry{URI: uri, Digest: digest, Content: doc})
	}

	for _, entry := range e.queue.Built() {
		result, err := ir.ToValue(entry.result)
		if err != nil {
			return ir.Snapshot{}, fmt.Errorf("normalize result for %q: %w", entry.addr.String(), err)
		}
		digest, err := ir.ResultDigest(result)
		if err != nil {
			return ir.Snapshot{}, fmt.Errorf("digest result for %q: %w", entry.addr.String(), err)
		}
		snap.Built = append(snap.Built, ir.BuiltEntry{
			Address: entry.addr.String(),
			Seq:     entry.seq,
			Digest:  digest,
			Result:  result,
		})
	}

	for _, addr := range e.queue.Unbuilt() {
		snap.Unbuilt = append(snap.Unbuilt, addr.String())
	}
	return snap, nil
}

func bindingEntries(bindings []index.Binding) []ir.BindingEntry {
	out := make([]ir.BindingEntry, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, ir.BindingEntry{From: b.From.String(), To: b.To.String()})
	}
	return out
}
