package emu

import "github.com/sarchlab/x86emu/insts"

// StackUnit implements PUSH and PUSHA on top of the register file and
// memory. It holds no state of its own.
type StackUnit struct {
	regFile *RegFile
	memory  Memory
	sp      insts.Register
	order   []insts.Register
}

// NewStackUnit creates a StackUnit that uses sp as the stack pointer and
// pushes order for PUSHA.
func NewStackUnit(regFile *RegFile, memory Memory, sp insts.Register, order []insts.Register) *StackUnit {
	return &StackUnit{
		regFile: regFile,
		memory:  memory,
		sp:      sp,
		order:   order,
	}
}

// Push decrements the stack pointer by 4 and stores value at the new top of
// stack. The stack pointer holds a linear address; the store goes to its
// offset from the image base.
func (s *StackUnit) Push(value uint32) error {
	sp := s.regFile.Read32(s.sp) - 4
	offset := sp - s.memory.BaseAddress()
	if err := s.memory.WriteLE32At(offset, value); err != nil {
		return err
	}
	s.regFile.Write(s.sp, uint64(sp))
	return nil
}

// Pusha pushes the registers of the PUSHA order. The stack pointer's own
// entry is its value before the first push.
func (s *StackUnit) Pusha() error {
	original := s.regFile.Read32(s.sp)
	for _, reg := range s.order {
		value := s.regFile.Read32(reg)
		if reg.ID == s.sp.ID {
			value = original
		}
		if err := s.Push(value); err != nil {
			return err
		}
	}
	return nil
}
