package emu

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/x86emu/insts"
)

// State is the run state of the emulator.
type State int

// Emulator states. Ready moves to Running on Run; Running ends in Halted or
// Faulted.
const (
	StateReady State = iota
	StateRunning
	StateHalted
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateFaulted:
		return "faulted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StopReason tells why Run returned.
type StopReason int

// Stop reasons.
const (
	StopNone       StopReason = iota
	StopHalt                  // HLT executed
	StopEndOfImage            // No instruction at the instruction pointer
	StopRequested             // Stop called, typically from a hook
	StopFault                 // An error ended the run
)

func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopHalt:
		return "halt"
	case StopEndOfImage:
		return "end of image"
	case StopRequested:
		return "requested"
	case StopFault:
		return "fault"
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Inst is the instruction that was fetched, nil if none was.
	Inst *insts.Instruction

	// EndOfImage is true if there was no instruction to fetch.
	EndOfImage bool

	// Err is set if decoding or executing the instruction failed.
	Err error
}

// RunResult summarizes a call to Run.
type RunResult struct {
	State        State
	Reason       StopReason
	Err          error
	Instructions uint64 // Instructions executed during this run
}

// Emulator executes IA-32 instructions functionally against a memory image.
// Callers observe execution through akita hooks registered with AcceptHook.
type Emulator struct {
	*sim.HookableBase

	regFile     *RegFile
	flags       Flags
	memory      Memory
	decoder     *insts.Decoder
	cursor      *insts.Cursor
	ip          uint32
	breakpoints *BreakpointSet

	// Execution units
	alu      *ALU
	resolver *Resolver
	stack    *StackUnit

	log logr.Logger

	// Execution state
	state            State
	stopReason       StopReason
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithLogger sets the logger. Executed instructions are logged at V(1).
func WithLogger(log logr.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.log = log
	}
}

// WithMaxInstructions sets the maximum number of instructions a single call
// to Run executes before faulting with ErrInstructionLimit. Each Run starts
// a fresh count. A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithDecoder sets the instruction decoder.
func WithDecoder(d *insts.Decoder) EmulatorOption {
	return func(e *Emulator) {
		e.decoder = d
	}
}

// NewEmulator creates a new emulator over memory. The instruction pointer
// starts at the image base address.
func NewEmulator(memory Memory, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		HookableBase: sim.NewHookableBase(),
		regFile:      NewRegFile(insts.Registers),
		memory:       memory,
		decoder:      insts.NewDecoder(),
		breakpoints:  NewBreakpointSet(),
		log:          logr.Discard(),
		state:        StateReady,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.alu = NewALU(&e.flags)
	e.resolver = NewResolver(e.regFile, e.memory)
	e.stack = NewStackUnit(e.regFile, e.memory, insts.StackPointer, insts.PushaOrder)

	e.SetInstructionPointer(memory.BaseAddress())

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() Memory {
	return e.memory
}

// Resolver returns the emulator's operand resolver.
func (e *Emulator) Resolver() *Resolver {
	return e.resolver
}

// ReadRegister returns the low 32 bits of reg.
func (e *Emulator) ReadRegister(reg insts.Register) uint32 {
	return e.regFile.Read32(reg)
}

// WriteRegister writes value to reg.
func (e *Emulator) WriteRegister(reg insts.Register, value uint32) {
	e.regFile.Write(reg, uint64(value))
}

// Flags returns the flag word.
func (e *Emulator) Flags() Flags {
	return e.flags
}

// SetFlags replaces the flag word.
func (e *Emulator) SetFlags(f Flags) {
	e.flags = f
}

// InstructionPointer returns the instruction pointer. Inside a hook it is
// the address of the instruction about to execute; between instructions it
// is the address of the next one.
func (e *Emulator) InstructionPointer() uint32 {
	return e.ip
}

// SetInstructionPointer moves execution to addr. The decode cursor is
// discarded and decoding restarts at addr.
func (e *Emulator) SetInstructionPointer(addr uint32) {
	e.ip = addr
	e.cursor = e.decoder.NewCursor(e.memory, addr)
}

// SetBreakpoint adds a breakpoint at addr.
func (e *Emulator) SetBreakpoint(addr uint32) {
	e.breakpoints.Set(addr)
}

// ClearBreakpoint removes the breakpoint at addr.
func (e *Emulator) ClearBreakpoint(addr uint32) bool {
	return e.breakpoints.Clear(addr)
}

// Breakpoints returns the breakpoint set.
func (e *Emulator) Breakpoints() *BreakpointSet {
	return e.breakpoints
}

// State returns the run state.
func (e *Emulator) State() State {
	return e.state
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Stop ends the current Run after the instruction in progress.
func (e *Emulator) Stop() {
	if e.state == StateRunning {
		e.state = StateHalted
		e.stopReason = StopRequested
	}
}

// Reset clears registers, flags and counters and moves the instruction
// pointer back to the image base. Breakpoints and hooks are kept.
func (e *Emulator) Reset() {
	e.regFile = NewRegFile(insts.Registers)
	e.flags = 0
	e.state = StateReady
	e.stopReason = StopNone
	e.instructionCount = 0

	e.resolver = NewResolver(e.regFile, e.memory)
	e.stack = NewStackUnit(e.regFile, e.memory, insts.StackPointer, insts.PushaOrder)

	e.SetInstructionPointer(e.memory.BaseAddress())
}

// Run executes instructions until HLT, the end of the image, a Stop request
// or an error. Errors are reported through HookPosException and the
// returned RunResult; Run never panics on them.
func (e *Emulator) Run() RunResult {
	start := e.instructionCount
	e.state = StateRunning
	e.stopReason = StopNone

	e.InvokeHook(sim.HookCtx{Domain: e, Pos: HookPosBeforeStart})

	var err error
	for e.state == StateRunning {
		if e.maxInstructions > 0 && e.instructionCount-start >= e.maxInstructions {
			err = fmt.Errorf("%w: %d", ErrInstructionLimit, e.maxInstructions)
			e.fault(nil, err)
			break
		}

		result := e.Step()
		if result.Err != nil {
			err = result.Err
			e.fault(result.Inst, err)
			break
		}
		if result.EndOfImage && e.state == StateRunning {
			e.state = StateHalted
			e.stopReason = StopEndOfImage
		}
	}

	return RunResult{
		State:        e.state,
		Reason:       e.stopReason,
		Err:          err,
		Instructions: e.instructionCount - start,
	}
}

// Step fetches and executes the next instruction. The breakpoint and
// instruction hooks are invoked; errors are returned, not reported. The
// instruction limit bounds Run only, so Step never fails with
// ErrInstructionLimit.
func (e *Emulator) Step() StepResult {
	if !e.cursor.Next() {
		if err := e.cursor.Err(); err != nil {
			return StepResult{Err: err}
		}
		return StepResult{EndOfImage: true}
	}

	inst := e.cursor.Instruction()
	cursor := e.cursor
	e.ip = inst.Address

	if e.breakpoints.Has(inst.Address) {
		e.InvokeHook(sim.HookCtx{Domain: e, Pos: HookPosBreakpoint, Item: inst, Detail: inst.Address})
	}
	e.InvokeHook(sim.HookCtx{Domain: e, Pos: HookPosInstruction, Item: inst})

	e.log.V(1).Info("execute", "addr", fmt.Sprintf("0x%08X", inst.Address), "inst", inst.String())

	err := e.Execute(inst)
	e.instructionCount++

	// Fall through unless a hook or the instruction moved the cursor.
	if e.cursor == cursor {
		e.ip = cursor.PC()
	}

	return StepResult{Inst: inst, Err: err}
}

// fault ends the run with err.
func (e *Emulator) fault(inst *insts.Instruction, err error) {
	e.state = StateFaulted
	e.stopReason = StopFault

	if inst != nil {
		e.log.Error(err, "emulator exception", "addr", fmt.Sprintf("0x%08X", inst.Address), "inst", inst.String())
	} else {
		e.log.Error(err, "emulator exception", "addr", fmt.Sprintf("0x%08X", e.ip))
	}

	ctx := sim.HookCtx{Domain: e, Pos: HookPosException, Detail: err}
	if inst != nil {
		ctx.Item = inst
	}
	e.InvokeHook(ctx)
}

// DumpRegisters writes the general registers, instruction pointer and flags
// to w.
func (e *Emulator) DumpRegisters(w io.Writer) {
	for _, reg := range insts.GeneralRegisters {
		_, _ = fmt.Fprintf(w, "%s = 0x%08X\n", reg.Name, e.regFile.Read32(reg))
	}
	_, _ = fmt.Fprintf(w, "eip = 0x%08X\n", e.ip)
	_, _ = fmt.Fprintf(w, "flags = 0x%08X [%v]\n", uint32(e.flags), e.flags)
}
