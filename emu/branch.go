package emu

import "github.com/sarchlab/x86emu/insts"

// jumpConditions maps each jump opcode to the flag test that makes it
// taken.
var jumpConditions = map[insts.Op]func(f Flags) bool{
	insts.OpJA:  func(f Flags) bool { return f&(CarryMask|ZeroMask) == 0 },
	insts.OpJBE: func(f Flags) bool { return f&(CarryMask|ZeroMask) != 0 },
	insts.OpJC:  func(f Flags) bool { return f&CarryMask != 0 },
	insts.OpJNC: func(f Flags) bool { return f&CarryMask == 0 },
	insts.OpJNZ: func(f Flags) bool { return f&ZeroMask == 0 },
	insts.OpJZ:  func(f Flags) bool { return f&ZeroMask != 0 },
	insts.OpJMP: func(Flags) bool { return true },
}

// Taken reports whether the jump opcode op is taken under flags f. It
// returns false for opcodes that are not jumps.
func Taken(op insts.Op, f Flags) bool {
	cond, ok := jumpConditions[op]
	return ok && cond(f)
}

// jump transfers control to the target of inst if its condition holds. The
// target must be an address operand.
func (e *Emulator) jump(inst *insts.Instruction) error {
	target, ok := inst.Op1.(insts.AddressOperand)
	if !ok {
		return invalidOperand(inst, inst.Op1)
	}

	if Taken(inst.Op, e.flags) {
		e.SetInstructionPointer(target.Target)
	}
	return nil
}
