package insts

import "strings"

// RegID is the stable identifier of an architectural register.
type RegID uint8

// Register describes an architectural register as a view onto a bit range of
// a canonical register slot. Several registers may share a slot: AX, AL and
// AH are all views of the slot that EAX covers in full.
type Register struct {
	ID     RegID
	Name   string
	Slot   int   // Canonical slot index
	Width  uint8 // Width in bits
	Offset uint8 // Bit offset within the slot
}

// Size returns the register width in bytes.
func (r Register) Size() int {
	return int(r.Width) / 8
}

// String returns the register name.
func (r Register) String() string {
	return r.Name
}

// General-purpose 32-bit registers.
var (
	EAX = Register{ID: 0, Name: "eax", Slot: 0, Width: 32}
	ECX = Register{ID: 1, Name: "ecx", Slot: 1, Width: 32}
	EDX = Register{ID: 2, Name: "edx", Slot: 2, Width: 32}
	EBX = Register{ID: 3, Name: "ebx", Slot: 3, Width: 32}
	ESP = Register{ID: 4, Name: "esp", Slot: 4, Width: 32}
	EBP = Register{ID: 5, Name: "ebp", Slot: 5, Width: 32}
	ESI = Register{ID: 6, Name: "esi", Slot: 6, Width: 32}
	EDI = Register{ID: 7, Name: "edi", Slot: 7, Width: 32}
)

// 16-bit views of the general-purpose registers.
var (
	AX = Register{ID: 8, Name: "ax", Slot: 0, Width: 16}
	CX = Register{ID: 9, Name: "cx", Slot: 1, Width: 16}
	DX = Register{ID: 10, Name: "dx", Slot: 2, Width: 16}
	BX = Register{ID: 11, Name: "bx", Slot: 3, Width: 16}
	SP = Register{ID: 12, Name: "sp", Slot: 4, Width: 16}
	BP = Register{ID: 13, Name: "bp", Slot: 5, Width: 16}
	SI = Register{ID: 14, Name: "si", Slot: 6, Width: 16}
	DI = Register{ID: 15, Name: "di", Slot: 7, Width: 16}
)

// 8-bit views of the general-purpose registers.
var (
	AL = Register{ID: 16, Name: "al", Slot: 0, Width: 8}
	CL = Register{ID: 17, Name: "cl", Slot: 1, Width: 8}
	DL = Register{ID: 18, Name: "dl", Slot: 2, Width: 8}
	BL = Register{ID: 19, Name: "bl", Slot: 3, Width: 8}
	AH = Register{ID: 20, Name: "ah", Slot: 0, Width: 8, Offset: 8}
	CH = Register{ID: 21, Name: "ch", Slot: 1, Width: 8, Offset: 8}
	DH = Register{ID: 22, Name: "dh", Slot: 2, Width: 8, Offset: 8}
	BH = Register{ID: 23, Name: "bh", Slot: 3, Width: 8, Offset: 8}
)

// Segment registers.
var (
	ES = Register{ID: 24, Name: "es", Slot: 8, Width: 16}
	CS = Register{ID: 25, Name: "cs", Slot: 9, Width: 16}
	SS = Register{ID: 26, Name: "ss", Slot: 10, Width: 16}
	DS = Register{ID: 27, Name: "ds", Slot: 11, Width: 16}
	FS = Register{ID: 28, Name: "fs", Slot: 12, Width: 16}
	GS = Register{ID: 29, Name: "gs", Slot: 13, Width: 16}
)

// Registers lists every architectural register, indexed by RegID.
var Registers = []Register{
	EAX, ECX, EDX, EBX, ESP, EBP, ESI, EDI,
	AX, CX, DX, BX, SP, BP, SI, DI,
	AL, CL, DL, BL, AH, CH, DH, BH,
	ES, CS, SS, DS, FS, GS,
}

// StackPointer is the register used by PUSH and PUSHA.
var StackPointer = ESP

// PushaOrder is the order in which PUSHA stores the general registers.
// The ESP entry stores the stack pointer as it was before the first push.
var PushaOrder = []Register{EAX, ECX, EDX, EBX, ESP, EBP, ESI, EDI}

// GeneralRegisters lists the 32-bit general-purpose registers in encoding
// order.
var GeneralRegisters = []Register{EAX, ECX, EDX, EBX, ESP, EBP, ESI, EDI}

var (
	reg16 = [8]Register{AX, CX, DX, BX, SP, BP, SI, DI}
	reg8  = [8]Register{AL, CL, DL, BL, AH, CH, DH, BH}
)

// RegisterByName looks up a register by its (case-insensitive) name.
func RegisterByName(name string) (Register, bool) {
	name = strings.ToLower(name)
	for _, r := range Registers {
		if r.Name == name {
			return r, true
		}
	}
	return Register{}, false
}

// GeneralRegister returns the general-purpose register encoded as n (0-7)
// with the given operand size in bytes (1, 2 or 4).
func GeneralRegister(n uint8, size int) Register {
	n &= 7
	switch size {
	case 1:
		return reg8[n]
	case 2:
		return reg16[n]
	default:
		return GeneralRegisters[n]
	}
}
