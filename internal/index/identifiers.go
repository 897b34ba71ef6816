package index

import (
	"github.com/roach88/schemastore/internal/ir"
)

// Binding is one entry of an index, in declaration order.
type Binding struct {
	From ir.Address `json:"from"`
	To   ir.Address `json:"to"`
}

// Identifiers maps declared identifiers to the addresses that declare them.
//
// By default a later declaration of the same identifier silently replaces
// the earlier one. In strict mode a declaration at a different address fails
// with a DuplicateIdentifierError instead.
type Identifiers struct {
	bindings map[ir.Address]ir.Address
	order    []ir.Address
	strict   bool
}

// NewIdentifiers creates an empty identifier index.
func NewIdentifiers(strict bool) *Identifiers {
	return &Identifiers{bindings: make(map[ir.Address]ir.Address), strict: strict}
}

// Bind records that id is declared at the physical address at.
func (x *Identifiers) Bind(id, at ir.Address) error {
	if err := x.Check(id, at); err != nil {
		return err
	}
	if _, exists := x.bindings[id]; !exists {
		x.order = append(x.order, id)
	}
	x.bindings[id] = at
	return nil
}

// Check returns the error Bind would return, without recording anything.
func (x *Identifiers) Check(id, at ir.Address) error {
	prev, exists := x.bindings[id]
	if exists && prev != at && x.strict {
		return ir.NewDuplicateIdentifierError(id.String(), prev, at)
	}
	return nil
}

// Lookup returns the address bound to exactly id.
func (x *Identifiers) Lookup(id ir.Address) (ir.Address, bool) {
	at, ok := x.bindings[id]
	return at, ok
}

// Translate maps target to a physical address if it names an identifier.
//
// An exact match wins. Otherwise, when target carries a JSON Pointer
// fragment and its document part is a declared identifier, the pointer is
// appended to the bound address: "http://ex/root#/definitions/a" with
// "http://ex/root" bound to file:///s.json#/x becomes
// file:///s.json#/x/definitions/a.
func (x *Identifiers) Translate(target ir.Address) (ir.Address, bool) {
	if at, ok := x.bindings[target]; ok {
		return at, true
	}
	if !target.IsPointer() {
		return target, false
	}
	at, ok := x.bindings[target.DocumentAddress()]
	if !ok {
		return target, false
	}
	base := at.Fragment
	if base == "/" {
		base = ""
	}
	return at.WithFragment(base + target.Fragment), true
}

// Len returns the number of distinct identifiers.
func (x *Identifiers) Len() int {
	return len(x.bindings)
}

// All returns every binding in first-declaration order.
func (x *Identifiers) All() []Binding {
	out := make([]Binding, 0, len(x.order))
	for _, id := range x.order {
		out = append(out, Binding{From: id, To: x.bindings[id]})
	}
	return out
}
