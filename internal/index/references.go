package index

import "github.com/roach88/schemastore/internal/ir"

// References maps the address of each $ref node to its target address.
type References struct {
	bindings map[ir.Address]ir.Address
	order    []ir.Address
}

// NewReferences creates an empty reference index.
func NewReferences() *References {
	return &References{bindings: make(map[ir.Address]ir.Address)}
}

// Bind records that the $ref node at source points at target.
func (r *References) Bind(source, target ir.Address) {
	if _, exists := r.bindings[source]; !exists {
		r.order = append(r.order, source)
	}
	r.bindings[source] = target
}

// Target returns the target of the $ref node at source.
func (r *References) Target(source ir.Address) (ir.Address, bool) {
	t, ok := r.bindings[source]
	return t, ok
}

// Len returns the number of $ref nodes seen.
func (r *References) Len() int {
	return len(r.bindings)
}

// All returns every binding in scan order.
func (r *References) All() []Binding {
	out := make([]Binding, 0, len(r.order))
	for _, src := range r.order {
		out = append(out, Binding{From: src, To: r.bindings[src]})
	}
	return out
}
