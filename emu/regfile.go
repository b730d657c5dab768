// Package emu provides functional IA-32 emulation.
package emu

import (
	"fmt"

	"github.com/sarchlab/x86emu/insts"
)

// Slot is the canonical storage of one independent hardware register.
type Slot struct {
	// Value holds the slot bits; only the low slot-width bits are used.
	Value uint64

	// Defined is set once the slot has been written.
	Defined bool
}

// alias locates a register inside its slot.
type alias struct {
	slot   int
	width  uint8
	offset uint8
}

// RegFile represents the register file. Registers are views (aliases) onto
// a fixed table of slots, so writing AL is visible through AX and EAX.
type RegFile struct {
	slots      []Slot
	slotWidths []uint8
	aliases    []alias
	present    []bool
}

// NewRegFile creates a register file for the given register table. The
// table is indexed by RegID; the width of each slot is the widest extent
// of any register mapped onto it.
func NewRegFile(regs []insts.Register) *RegFile {
	numSlots := 0
	maxID := -1
	for _, r := range regs {
		if r.Slot+1 > numSlots {
			numSlots = r.Slot + 1
		}
		if int(r.ID) > maxID {
			maxID = int(r.ID)
		}
	}

	rf := &RegFile{
		slots:      make([]Slot, numSlots),
		slotWidths: make([]uint8, numSlots),
		aliases:    make([]alias, maxID+1),
		present:    make([]bool, maxID+1),
	}

	for _, r := range regs {
		rf.aliases[r.ID] = alias{slot: r.Slot, width: r.Width, offset: r.Offset}
		rf.present[r.ID] = true
		if extent := r.Offset + r.Width; extent > rf.slotWidths[r.Slot] {
			rf.slotWidths[r.Slot] = extent
		}
	}

	return rf
}

// NumSlots returns the number of canonical slots.
func (rf *RegFile) NumSlots() int {
	return len(rf.slots)
}

// Slot returns a copy of slot i.
func (rf *RegFile) Slot(i int) Slot {
	return rf.slots[i]
}

func (rf *RegFile) lookup(reg insts.Register) alias {
	if int(reg.ID) >= len(rf.aliases) || !rf.present[reg.ID] {
		panic(fmt.Sprintf("emu: register %q (id %d) not in register file", reg.Name, reg.ID))
	}
	return rf.aliases[reg.ID]
}

// Read returns the bits of reg, zero-extended.
func (rf *RegFile) Read(reg insts.Register) uint64 {
	a := rf.lookup(reg)
	return (rf.slots[a.slot].Value >> a.offset) & mask(a.width)
}

// Read32 returns the low 32 bits of reg.
func (rf *RegFile) Read32(reg insts.Register) uint32 {
	return uint32(rf.Read(reg))
}

// Write stores value into reg. A register that covers its whole slot
// replaces the slot (truncated to the slot width); a narrower register only
// replaces its own bit range.
func (rf *RegFile) Write(reg insts.Register, value uint64) {
	a := rf.lookup(reg)
	s := &rf.slots[a.slot]

	if a.offset == 0 && a.width == rf.slotWidths[a.slot] {
		s.Value = value & mask(a.width)
	} else {
		m := mask(a.width) << a.offset
		s.Value = (s.Value &^ m) | ((value << a.offset) & m)
	}
	s.Defined = true
}

// Defined reports whether the slot behind reg has been written.
func (rf *RegFile) Defined(reg insts.Register) bool {
	return rf.slots[rf.lookup(reg).slot].Defined
}

// mask returns a mask of the low width bits.
func mask(width uint8) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}
