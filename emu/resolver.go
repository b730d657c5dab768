package emu

import (
	"fmt"

	"github.com/sarchlab/x86emu/insts"
)

// Memory is the byte-addressable image the emulator executes against.
// Addresses are absolute linear addresses except for WriteLE32At, which
// takes an offset from BaseAddress.
type Memory interface {
	insts.CodeReader
	ReadLE32(addr uint32) (uint32, error)
	Write8(addr uint32, value byte) error
	WriteLE32(addr uint32, value uint32) error
	WriteLE32At(offset uint32, value uint32) error
	BaseAddress() uint32
}

// Resolver turns operands into readable and writable locations in the
// register file or memory.
type Resolver struct {
	regFile *RegFile
	memory  Memory
}

// NewResolver creates a new Resolver connected to the given register file
// and memory.
func NewResolver(regFile *RegFile, memory Memory) *Resolver {
	return &Resolver{
		regFile: regFile,
		memory:  memory,
	}
}

// EffectiveAddress computes Offset + Index*Scale + Base, skipping absent
// terms. The sum wraps modulo 2^32.
func (r *Resolver) EffectiveAddress(m insts.MemoryOperand) uint32 {
	var ea uint32
	if m.HasOffset {
		ea += m.Offset
	}
	if m.Index != nil {
		ea += r.regFile.Read32(*m.Index) * uint32(m.Scale)
	}
	if m.Base != nil {
		ea += r.regFile.Read32(*m.Base)
	}
	return ea
}

// Read returns the value of op truncated to 32 bits.
func (r *Resolver) Read(op insts.Operand) (uint32, error) {
	switch o := op.(type) {
	case insts.RegisterOperand:
		return r.regFile.Read32(o.Reg), nil
	case insts.ImmediateOperand:
		return o.Value, nil
	case insts.MemoryOperand:
		ea := r.EffectiveAddress(o)
		switch o.Size {
		case 1:
			b, err := r.memory.Read8(ea)
			return uint32(b), err
		case 4:
			return r.memory.ReadLE32(ea)
		}
		return 0, fmt.Errorf("%w: %d-byte read at 0x%08X", ErrUnsupportedWidth, o.Size, ea)
	case insts.AddressOperand:
		return o.Target, nil
	}
	return 0, fmt.Errorf("%w: cannot read %v", ErrInvalidOperand, op)
}

// Write stores value into op. Only register and memory operands are
// writable.
func (r *Resolver) Write(op insts.Operand, value uint32) error {
	switch o := op.(type) {
	case insts.RegisterOperand:
		r.regFile.Write(o.Reg, uint64(value))
		return nil
	case insts.MemoryOperand:
		ea := r.EffectiveAddress(o)
		switch o.Size {
		case 1:
			return r.memory.Write8(ea, byte(value))
		case 4:
			return r.memory.WriteLE32(ea, value)
		}
		return fmt.Errorf("%w: %d-byte write at 0x%08X", ErrUnsupportedWidth, o.Size, ea)
	}
	return fmt.Errorf("%w: cannot write %v", ErrInvalidOperand, op)
}

// ReadSource reads src as the source of a two-operand operation with
// destination dst. A source narrower than the destination is taken to be a
// signed byte and sign-extended; this holds for every narrower width, not
// just one-byte sources.
func (r *Resolver) ReadSource(dst, src insts.Operand) (uint32, error) {
	v, err := r.Read(src)
	if err != nil {
		return 0, err
	}
	return SignExtendSource(dst, src, v), nil
}

// SignExtendSource applies the narrow-source rule of ReadSource to v.
func SignExtendSource(dst, src insts.Operand, v uint32) uint32 {
	if src.Width() < dst.Width() {
		return uint32(int32(int8(v)))
	}
	return v
}
