package engine

import "github.com/roach88/schemastore/internal/ir"

// refChain tracks the addresses visited while FollowAndQueue collapses one
// $ref chain.
//
// A chain that comes back to an address it already passed through can never
// reach a concrete schema:
//
//	#/a {"$ref": "#/b"} → #/b {"$ref": "#/a"} → #/a ← CYCLE DETECTED
//
// The chain lives only for one FollowAndQueue call. Two separate chains that
// share a suffix are not a cycle.
type refChain struct {
	seen map[ir.Address]bool
	path []ir.Address
}

func newRefChain() *refChain {
	return &refChain{seen: make(map[ir.Address]bool)}
}

// WouldCycle reports whether addr has already been visited in this chain.
func (c *refChain) WouldCycle(addr ir.Address) bool {
	return c.seen[addr]
}

// Record marks addr as visited.
func (c *refChain) Record(addr ir.Address) {
	c.seen[addr] = true
	c.path = append(c.path, addr)
}

// Error returns the CycleError for a chain that came back to addr.
func (c *refChain) Error(addr ir.Address) error {
	return ir.NewCycleError(append(c.path, addr))
}

// Len returns the number of addresses visited.
func (c *refChain) Len() int {
	return len(c.path)
}
