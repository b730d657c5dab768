package emu

import "github.com/sarchlab/akita/v4/sim"

// Hook positions invoked by the emulator. Hooks run synchronously on the
// goroutine that called Run or Step and may inspect or change emulator
// state, including calling Stop or SetInstructionPointer. The instruction
// being reported still executes; a new instruction pointer takes effect
// after it.
var (
	// HookPosBeforeStart is invoked once at the start of Run.
	HookPosBeforeStart = &sim.HookPos{Name: "BeforeStart"}

	// HookPosBreakpoint is invoked before an instruction whose address is a
	// breakpoint. Item is the *insts.Instruction, Detail the uint32 address.
	HookPosBreakpoint = &sim.HookPos{Name: "Breakpoint"}

	// HookPosInstruction is invoked before every instruction is executed.
	// Item is the *insts.Instruction.
	HookPosInstruction = &sim.HookPos{Name: "Instruction"}

	// HookPosException is invoked when Run stops on an error. Item is the
	// failing *insts.Instruction (a nil interface if decoding failed), Detail
	// the error.
	HookPosException = &sim.HookPos{Name: "Exception"}
)

// PosHook calls Fn for hook invocations at Pos. It is used through a
// pointer so that AcceptHook can tell registered hooks apart.
type PosHook struct {
	Pos *sim.HookPos
	Fn  func(ctx sim.HookCtx)
}

// Func implements sim.Hook.
func (h *PosHook) Func(ctx sim.HookCtx) {
	if ctx.Pos == h.Pos {
		h.Fn(ctx)
	}
}

// OnPos returns a hook that calls fn only for the given position.
func OnPos(pos *sim.HookPos, fn func(ctx sim.HookCtx)) sim.Hook {
	return &PosHook{Pos: pos, Fn: fn}
}
