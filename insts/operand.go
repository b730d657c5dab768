package insts

import (
	"fmt"
	"strings"
)

// Operand is a decoded instruction operand. The set of operand kinds is
// closed: RegisterOperand, ImmediateOperand, MemoryOperand and
// AddressOperand are the only implementations.
type Operand interface {
	// Width returns the operand size in bytes.
	Width() int
	String() string

	operand()
}

// RegisterOperand names a register.
type RegisterOperand struct {
	Reg Register
}

// ImmediateOperand is a constant encoded in the instruction.
type ImmediateOperand struct {
	Value uint32
	Size  int // Encoded size in bytes
}

// MemoryOperand addresses memory through
// [Base + Index*Scale + Offset]; every term is optional.
type MemoryOperand struct {
	Base      *Register
	Index     *Register
	Scale     uint8
	Offset    uint32
	HasOffset bool
	Size      int // Access size in bytes
}

// AddressOperand is an absolute code address, the target of a jump or call.
type AddressOperand struct {
	Target uint32
}

func (RegisterOperand) operand()  {}
func (ImmediateOperand) operand() {}
func (MemoryOperand) operand()    {}
func (AddressOperand) operand()   {}

// Width implements Operand.
func (o RegisterOperand) Width() int { return o.Reg.Size() }

// Width implements Operand.
func (o ImmediateOperand) Width() int { return o.Size }

// Width implements Operand.
func (o MemoryOperand) Width() int { return o.Size }

// Width implements Operand. Code addresses are 32 bits wide.
func (o AddressOperand) Width() int { return 4 }

func (o RegisterOperand) String() string {
	return o.Reg.Name
}

func (o ImmediateOperand) String() string {
	return fmt.Sprintf("0x%X", o.Value)
}

func (o AddressOperand) String() string {
	return fmt.Sprintf("0x%08X", o.Target)
}

func (o MemoryOperand) String() string {
	var sb strings.Builder

	switch o.Size {
	case 1:
		sb.WriteString("byte ptr ")
	case 2:
		sb.WriteString("word ptr ")
	case 4:
		sb.WriteString("dword ptr ")
	}

	sb.WriteByte('[')
	terms := 0
	if o.Base != nil {
		sb.WriteString(o.Base.Name)
		terms++
	}
	if o.Index != nil {
		if terms > 0 {
			sb.WriteByte('+')
		}
		sb.WriteString(o.Index.Name)
		if o.Scale > 1 {
			fmt.Fprintf(&sb, "*%d", o.Scale)
		}
		terms++
	}
	if o.HasOffset || terms == 0 {
		switch {
		case terms == 0:
			fmt.Fprintf(&sb, "0x%08X", o.Offset)
		case int32(o.Offset) < 0:
			fmt.Fprintf(&sb, "-0x%X", uint32(-int32(o.Offset)))
		default:
			fmt.Fprintf(&sb, "+0x%X", o.Offset)
		}
	}
	sb.WriteByte(']')

	return sb.String()
}

// Reg is shorthand for a register operand.
func Reg(r Register) RegisterOperand {
	return RegisterOperand{Reg: r}
}

// Imm is shorthand for an immediate operand of the given size in bytes.
func Imm(value uint32, size int) ImmediateOperand {
	return ImmediateOperand{Value: value, Size: size}
}
