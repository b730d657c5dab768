package emu

import "strings"

// Flags is the condition-flag word. Only Carry, Zero and Overflow are
// modeled; their bit positions match EFLAGS.
type Flags uint32

// Flag masks.
const (
	CarryMask    Flags = 1 << 0
	ZeroMask     Flags = 1 << 6
	OverflowMask Flags = 1 << 11
)

// Carry reports whether the carry flag is set.
func (f Flags) Carry() bool { return f&CarryMask != 0 }

// Zero reports whether the zero flag is set.
func (f Flags) Zero() bool { return f&ZeroMask != 0 }

// Overflow reports whether the overflow flag is set.
func (f Flags) Overflow() bool { return f&OverflowMask != 0 }

// String lists the set flags, e.g. "CZ" or "-".
func (f Flags) String() string {
	var sb strings.Builder
	if f.Carry() {
		sb.WriteByte('C')
	}
	if f.Zero() {
		sb.WriteByte('Z')
	}
	if f.Overflow() {
		sb.WriteByte('O')
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// zeroFlag returns ZeroMask if result is zero.
func zeroFlag(result uint32) Flags {
	if result == 0 {
		return ZeroMask
	}
	return 0
}

// carryFlag returns CarryMask if c is true.
func carryFlag(c bool) Flags {
	if c {
		return CarryMask
	}
	return 0
}

// overflowFlag moves bit 31 of v into the overflow position.
func overflowFlag(v uint32) Flags {
	return Flags((v & 0x80000000) >> 20)
}
