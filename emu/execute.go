package emu

import (
	"fmt"

	"github.com/sarchlab/x86emu/insts"
)

// Execute executes a single decoded instruction. Control-flow instructions
// change the instruction pointer through SetInstructionPointer; HLT halts
// the emulator. A failing instruction may leave earlier writes in place.
func (e *Emulator) Execute(inst *insts.Instruction) error {
	switch inst.Op {
	case insts.OpADC:
		return e.executeBinary(inst, e.alu.Adc)
	case insts.OpADD:
		return e.executeBinary(inst, e.alu.Add)
	case insts.OpCMP:
		return e.executeCmp(inst)
	case insts.OpDEC:
		return e.executeUnary(inst, e.alu.Dec)
	case insts.OpHLT:
		e.state = StateHalted
		e.stopReason = StopHalt
		return nil
	case insts.OpINC:
		return e.executeUnary(inst, e.alu.Inc)
	case insts.OpJA, insts.OpJBE, insts.OpJC, insts.OpJMP,
		insts.OpJNC, insts.OpJNZ, insts.OpJZ:
		return e.jump(inst)
	case insts.OpLEA:
		return e.executeLea(inst)
	case insts.OpMOV:
		return e.executeMov(inst)
	case insts.OpOR:
		return e.executeBinary(inst, e.alu.Or)
	case insts.OpPUSH:
		return e.executePush(inst)
	case insts.OpPUSHA:
		return e.stack.Pusha()
	case insts.OpSHL:
		return e.executeShl(inst)
	case insts.OpSUB:
		return e.executeBinary(inst, e.alu.Sub)
	case insts.OpXOR:
		return e.executeBinary(inst, e.alu.Xor)
	}

	return fmt.Errorf("%w: %v at 0x%08X", ErrUnsupportedOpcode, inst, inst.Address)
}

// executeBinary runs dst = op(dst, src) for the two-operand ALU forms. A
// narrower source is sign-extended from a byte.
func (e *Emulator) executeBinary(inst *insts.Instruction, op func(l, r uint32) uint32) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}

	l, err := e.resolver.Read(inst.Op1)
	if err != nil {
		return err
	}
	r, err := e.resolver.ReadSource(inst.Op1, inst.Op2)
	if err != nil {
		return err
	}

	return e.resolver.Write(inst.Op1, op(l, r))
}

// executeCmp sets the flags of a subtraction without writing the result.
func (e *Emulator) executeCmp(inst *insts.Instruction) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}

	l, err := e.resolver.Read(inst.Op1)
	if err != nil {
		return err
	}
	r, err := e.resolver.ReadSource(inst.Op1, inst.Op2)
	if err != nil {
		return err
	}

	e.alu.Cmp(l, r)
	return nil
}

// executeUnary runs dst = op(dst) for INC and DEC.
func (e *Emulator) executeUnary(inst *insts.Instruction, op func(uint32) uint32) error {
	if err := requireOperands(inst, 1); err != nil {
		return err
	}

	v, err := e.resolver.Read(inst.Op1)
	if err != nil {
		return err
	}
	return e.resolver.Write(inst.Op1, op(v))
}

func (e *Emulator) executeShl(inst *insts.Instruction) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}

	l, err := e.resolver.Read(inst.Op1)
	if err != nil {
		return err
	}
	count, err := e.resolver.Read(inst.Op2)
	if err != nil {
		return err
	}

	return e.resolver.Write(inst.Op1, e.alu.Shl(l, uint8(count)))
}

func (e *Emulator) executeMov(inst *insts.Instruction) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}

	v, err := e.resolver.Read(inst.Op2)
	if err != nil {
		return err
	}
	return e.resolver.Write(inst.Op1, v)
}

// executeLea writes the effective address of the memory source, not the
// value stored there.
func (e *Emulator) executeLea(inst *insts.Instruction) error {
	if err := requireOperands(inst, 2); err != nil {
		return err
	}

	m, ok := inst.Op2.(insts.MemoryOperand)
	if !ok {
		return invalidOperand(inst, inst.Op2)
	}
	return e.resolver.Write(inst.Op1, e.resolver.EffectiveAddress(m))
}

func (e *Emulator) executePush(inst *insts.Instruction) error {
	if err := requireOperands(inst, 1); err != nil {
		return err
	}

	v, err := e.resolver.Read(inst.Op1)
	if err != nil {
		return err
	}
	return e.stack.Push(v)
}

// requireOperands checks that the first n operands are present.
func requireOperands(inst *insts.Instruction, n int) error {
	if n >= 1 && inst.Op1 == nil {
		return fmt.Errorf("%w: %v at 0x%08X is missing its destination", ErrInvalidOperand, inst.Op, inst.Address)
	}
	if n >= 2 && inst.Op2 == nil {
		return fmt.Errorf("%w: %v at 0x%08X is missing its source", ErrInvalidOperand, inst.Op, inst.Address)
	}
	return nil
}

func invalidOperand(inst *insts.Instruction, op insts.Operand) error {
	return fmt.Errorf("%w: %v operand %v at 0x%08X", ErrInvalidOperand, inst.Op, op, inst.Address)
}
