package emu

import (
	"maps"
	"slices"
)

// BreakpointSet is a set of linear code addresses.
type BreakpointSet struct {
	addrs map[uint32]struct{}
}

// NewBreakpointSet creates an empty set.
func NewBreakpointSet() *BreakpointSet {
	return &BreakpointSet{addrs: make(map[uint32]struct{})}
}

// Set adds addr. Adding an address twice keeps a single breakpoint.
func (b *BreakpointSet) Set(addr uint32) {
	b.addrs[addr] = struct{}{}
}

// Clear removes addr and reports whether it was present.
func (b *BreakpointSet) Clear(addr uint32) bool {
	_, ok := b.addrs[addr]
	delete(b.addrs, addr)
	return ok
}

// ClearAll removes every breakpoint.
func (b *BreakpointSet) ClearAll() {
	clear(b.addrs)
}

// Has reports whether addr is a breakpoint.
func (b *BreakpointSet) Has(addr uint32) bool {
	_, ok := b.addrs[addr]
	return ok
}

// Len returns the number of breakpoints.
func (b *BreakpointSet) Len() int {
	return len(b.addrs)
}

// List returns the breakpoints in ascending order.
func (b *BreakpointSet) List() []uint32 {
	return slices.Sorted(maps.Keys(b.addrs))
}
