package emu

// ALU implements IA-32 arithmetic and logic on 32-bit words. Every
// operation returns its result and updates the flag word it is connected
// to; writing the result back is the caller's job.
type ALU struct {
	flags *Flags
}

// NewALU creates a new ALU connected to the given flag word.
func NewALU(flags *Flags) *ALU {
	return &ALU{flags: flags}
}

// Add computes l + r.
func (a *ALU) Add(l, r uint32) uint32 {
	sum := l + r
	a.setAddFlags(l, r, sum)
	return sum
}

// Adc computes l + r + Carry.
func (a *ALU) Adc(l, r uint32) uint32 {
	sum := l + r + uint32(*a.flags&CarryMask)
	a.setAddFlags(l, r, sum)
	return sum
}

// Sub computes l - r as l plus the two's complement of r.
func (a *ALU) Sub(l, r uint32) uint32 {
	neg := ^r + 1
	diff := l + neg
	*a.flags = carryFlag(l < diff) |
		zeroFlag(diff) |
		overflowFlag(^(l^neg)&(l^diff))
	return diff
}

// Cmp sets the flags of l - r and discards the difference.
func (a *ALU) Cmp(l, r uint32) {
	a.Sub(l, r)
}

// Or computes l | r. Carry and Overflow are cleared.
func (a *ALU) Or(l, r uint32) uint32 {
	result := l | r
	*a.flags = zeroFlag(result)
	return result
}

// Xor computes l ^ r. Carry and Overflow are cleared.
func (a *ALU) Xor(l, r uint32) uint32 {
	result := l ^ r
	*a.flags = zeroFlag(result)
	return result
}

// Inc computes old + 1. Carry is preserved.
func (a *ALU) Inc(old uint32) uint32 {
	result := old + 1
	*a.flags = *a.flags&CarryMask |
		zeroFlag(result) |
		overflowFlag((old^result)&result)
	return result
}

// Dec computes old - 1. Carry is preserved; Overflow is set when the sign
// bit flips from clear to set (0x00000000 wrapping to 0xFFFFFFFF).
func (a *ALU) Dec(old uint32) uint32 {
	result := old - 1
	*a.flags = *a.flags&CarryMask |
		zeroFlag(result) |
		overflowFlag((old^result)&^old)
	return result
}

// Shl computes l << count. Only the low 5 bits of the byte count are used.
// Carry and Overflow are not modeled and are left clear.
func (a *ALU) Shl(l uint32, count uint8) uint32 {
	result := l << (count & 31)
	*a.flags = zeroFlag(result)
	return result
}

// setAddFlags sets the flags for l + r = sum.
func (a *ALU) setAddFlags(l, r, sum uint32) {
	*a.flags = carryFlag(r > sum) |
		zeroFlag(sum) |
		overflowFlag(^(l^r)&(l^sum))
}
