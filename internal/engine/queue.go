package engine

import "github.com/roach88/schemastore/internal/ir"

// entryState is the lifecycle state of a queued address.
type entryState int

const (
	stateUnbuilt entryState = iota + 1
	stateBuilt
)

// queueEntry is one address in the build queue.
type queueEntry struct {
	addr   ir.Address
	state  entryState
	result any
	seq    int64
}

// buildQueue holds every address the engine has been asked to build.
//
// An address is in exactly one of two states, unbuilt or built, and moves
// from unbuilt to built exactly once. Adding an address already present in
// either state is a no-op.
//
// Unbuilt addresses are handed out in FIFO order. The pending slice keeps
// the enqueue order; built entries are kept in build order.
type buildQueue struct {
	entries map[ir.Address]*queueEntry
	pending []ir.Address
	built   []*queueEntry
	order   []ir.Address // every address, in enqueue order
}

func newBuildQueue() *buildQueue {
	return &buildQueue{
		entries: make(map[ir.Address]*queueEntry),
		pending: make([]ir.Address, 0, 64),
	}
}

// Add marks addr unbuilt. Returns false if addr was already queued or built.
func (q *buildQueue) Add(addr ir.Address) bool {
	if _, exists := q.entries[addr]; exists {
		return false
	}
	q.entries[addr] = &queueEntry{addr: addr, state: stateUnbuilt}
	q.pending = append(q.pending, addr)
	q.order = append(q.order, addr)
	return true
}

// Contains reports whether addr is unbuilt or built.
func (q *buildQueue) Contains(addr ir.Address) bool {
	_, exists := q.entries[addr]
	return exists
}

// Peek returns the oldest unbuilt address without removing it.
func (q *buildQueue) Peek() (ir.Address, bool) {
	if len(q.pending) == 0 {
		return ir.Address{}, false
	}
	return q.pending[0], true
}

// Complete records result for addr, which must be the address returned by
// the last Peek, and moves it to built.
func (q *buildQueue) Complete(addr ir.Address, result any, seq int64) {
	entry := q.entries[addr]
	entry.state = stateBuilt
	entry.result = result
	entry.seq = seq
	q.built = append(q.built, entry)

	if len(q.pending) == 1 {
		q.pending = q.pending[:0]
	} else {
		q.pending = q.pending[1:]
	}
}

// Unbuilt returns the unbuilt addresses in FIFO order.
func (q *buildQueue) Unbuilt() []ir.Address {
	return append([]ir.Address(nil), q.pending...)
}

// Built returns the built entries in build order.
func (q *buildQueue) Built() []*queueEntry {
	return append([]*queueEntry(nil), q.built...)
}

// Lookup returns the entry for addr.
func (q *buildQueue) Lookup(addr ir.Address) (*queueEntry, bool) {
	entry, ok := q.entries[addr]
	return entry, ok
}

// Len returns the number of unbuilt addresses.
func (q *buildQueue) Len() int {
	return len(q.pending)
}
