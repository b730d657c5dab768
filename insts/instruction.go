package insts

import (
	"fmt"
	"strings"
)

// Op represents an IA-32 opcode mnemonic.
type Op uint16

// IA-32 opcodes known to the decoder.
const (
	OpUnknown Op = iota
	OpADC
	OpADD
	OpAND
	OpCALL
	OpCMP
	OpDEC
	OpHLT
	OpINC
	OpJA
	OpJBE
	OpJC
	OpJMP
	OpJNC
	OpJNZ
	OpJZ
	OpLEA
	OpMOV
	OpNOP
	OpOR
	OpPOP
	OpPUSH
	OpPUSHA
	OpRET
	OpSBB
	OpSHL
	OpSUB
	OpXOR
)

var opNames = [...]string{
	OpUnknown: "unknown",
	OpADC:     "adc",
	OpADD:     "add",
	OpAND:     "and",
	OpCALL:    "call",
	OpCMP:     "cmp",
	OpDEC:     "dec",
	OpHLT:     "hlt",
	OpINC:     "inc",
	OpJA:      "ja",
	OpJBE:     "jbe",
	OpJC:      "jc",
	OpJMP:     "jmp",
	OpJNC:     "jnc",
	OpJNZ:     "jnz",
	OpJZ:      "jz",
	OpLEA:     "lea",
	OpMOV:     "mov",
	OpNOP:     "nop",
	OpOR:      "or",
	OpPOP:     "pop",
	OpPUSH:    "push",
	OpPUSHA:   "pusha",
	OpRET:     "ret",
	OpSBB:     "sbb",
	OpSHL:     "shl",
	OpSUB:     "sub",
	OpXOR:     "xor",
}

// String returns the mnemonic of the opcode.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint16(op))
}

// Instruction represents a decoded IA-32 instruction.
type Instruction struct {
	Op      Op
	Op1     Operand // Destination (or only) operand, nil if absent
	Op2     Operand // Source operand, nil if absent
	Address uint32  // Linear address of the first byte
	Length  int     // Encoded length in bytes
}

// Next returns the address of the instruction that follows this one.
func (i *Instruction) Next() uint32 {
	return i.Address + uint32(i.Length)
}

// Operands returns the present operands in order.
func (i *Instruction) Operands() []Operand {
	ops := make([]Operand, 0, 2)
	if i.Op1 != nil {
		ops = append(ops, i.Op1)
	}
	if i.Op2 != nil {
		ops = append(ops, i.Op2)
	}
	return ops
}

// String formats the instruction in Intel syntax, e.g. "add eax,ebx".
func (i *Instruction) String() string {
	ops := i.Operands()
	if len(ops) == 0 {
		return i.Op.String()
	}

	parts := make([]string, len(ops))
	for n, op := range ops {
		parts[n] = op.String()
	}
	return i.Op.String() + " " + strings.Join(parts, ",")
}
