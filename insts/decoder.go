package insts

import (
	"errors"
	"fmt"
)

// maxInstructionLength is the architectural limit on an encoded instruction.
const maxInstructionLength = 15

// CodeReader provides the bytes the decoder consumes.
type CodeReader interface {
	// Read8 reads the byte at an absolute linear address.
	Read8(addr uint32) (byte, error)
	// Contains reports whether addr lies inside the readable image.
	Contains(addr uint32) bool
}

// ErrUndecodable is matched by every DecodeError.
var ErrUndecodable = errors.New("undecodable instruction")

// DecodeError reports bytes the decoder does not recognize.
type DecodeError struct {
	Address uint32
	Bytes   []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("undecodable instruction at 0x%08X: % X", e.Address, e.Bytes)
}

// Is makes errors.Is(err, ErrUndecodable) succeed for any DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrUndecodable
}

// aluOps maps bits [5:3] of the 0x00-0x3F opcodes and the /r field of the
// 0x80-0x83 groups to their operation.
var aluOps = [8]Op{OpADD, OpOR, OpADC, OpSBB, OpAND, OpSUB, OpXOR, OpCMP}

// jccOps maps the low nibble of the 0x7x (and 0x0F 0x8x) opcodes.
var jccOps = map[byte]Op{
	0x2: OpJC,
	0x3: OpJNC,
	0x4: OpJZ,
	0x5: OpJNZ,
	0x6: OpJBE,
	0x7: OpJA,
}

// Decoder decodes IA-32 protected-mode machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new IA-32 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes the instruction starting at addr.
func (d *Decoder) Decode(r CodeReader, addr uint32) (*Instruction, error) {
	s := &source{r: r, start: addr, pos: addr}

	inst := d.decode(s)
	if s.err != nil {
		return nil, s.err
	}
	if inst == nil {
		return nil, &DecodeError{Address: addr, Bytes: s.bytes}
	}

	inst.Address = addr
	inst.Length = len(s.bytes)
	return inst, nil
}

// DecodeBytes decodes a single instruction from code, which is taken to be
// located at addr.
func (d *Decoder) DecodeBytes(code []byte, addr uint32) (*Instruction, error) {
	return d.Decode(byteCode{base: addr, data: code}, addr)
}

// decode returns nil for unrecognized encodings.
func (d *Decoder) decode(s *source) *Instruction {
	size := 4
	b := s.next()
	for b == 0x66 && s.err == nil {
		size = 2
		b = s.next()
	}
	if s.err != nil {
		return nil
	}

	switch {
	case b == 0x0F:
		return d.decodeTwoByte(s, size)
	case b < 0x40 && b&7 < 6:
		return d.decodeALU(s, b, size)
	case b >= 0x40 && b <= 0x47:
		return &Instruction{Op: OpINC, Op1: Reg(GeneralRegister(b&7, size))}
	case b >= 0x48 && b <= 0x4F:
		return &Instruction{Op: OpDEC, Op1: Reg(GeneralRegister(b&7, size))}
	case b >= 0x50 && b <= 0x57:
		return &Instruction{Op: OpPUSH, Op1: Reg(GeneralRegister(b&7, size))}
	case b >= 0x58 && b <= 0x5F:
		return &Instruction{Op: OpPOP, Op1: Reg(GeneralRegister(b&7, size))}
	case b >= 0x72 && b <= 0x77:
		rel := s.disp8()
		return &Instruction{Op: jccOps[b&0xF], Op1: AddressOperand{Target: s.pos + rel}}
	case b >= 0x80 && b <= 0x83 && b != 0x82:
		return d.decodeGroup1(s, b, size)
	case b >= 0x88 && b <= 0x8B:
		return d.decodeMov(s, b, size)
	case b >= 0xB0 && b <= 0xB7:
		return &Instruction{Op: OpMOV, Op1: Reg(GeneralRegister(b&7, 1)), Op2: Imm(s.imm(1), 1)}
	case b >= 0xB8 && b <= 0xBF:
		return &Instruction{Op: OpMOV, Op1: Reg(GeneralRegister(b&7, size)), Op2: Imm(s.imm(size), size)}
	case b >= 0xC0 && b <= 0xC1, b >= 0xD0 && b <= 0xD3:
		return d.decodeShift(s, b, size)
	}

	switch b {
	case 0x60:
		return &Instruction{Op: OpPUSHA}
	case 0x68:
		return &Instruction{Op: OpPUSH, Op1: Imm(s.imm(size), size)}
	case 0x6A:
		// PUSH imm8 pushes the sign-extended byte.
		return &Instruction{Op: OpPUSH, Op1: Imm(s.disp8(), size)}
	case 0x8D:
		reg, rm := s.modRM(size)
		if _, ok := rm.(MemoryOperand); !ok {
			return nil
		}
		return &Instruction{Op: OpLEA, Op1: Reg(GeneralRegister(reg, size)), Op2: rm}
	case 0x90:
		return &Instruction{Op: OpNOP}
	case 0xC3:
		return &Instruction{Op: OpRET}
	case 0xC6, 0xC7:
		opSize := size
		if b == 0xC6 {
			opSize = 1
		}
		reg, rm := s.modRM(opSize)
		if reg != 0 {
			return nil
		}
		return &Instruction{Op: OpMOV, Op1: rm, Op2: Imm(s.imm(opSize), opSize)}
	case 0xE8:
		rel := s.rel(size)
		return &Instruction{Op: OpCALL, Op1: AddressOperand{Target: s.pos + rel}}
	case 0xE9:
		rel := s.rel(size)
		return &Instruction{Op: OpJMP, Op1: AddressOperand{Target: s.pos + rel}}
	case 0xEB:
		rel := s.disp8()
		return &Instruction{Op: OpJMP, Op1: AddressOperand{Target: s.pos + rel}}
	case 0xF4:
		return &Instruction{Op: OpHLT}
	case 0xFE, 0xFF:
		return d.decodeGroup45(s, b, size)
	}

	return nil
}

// decodeTwoByte decodes the 0x0F escape: only near conditional jumps.
func (d *Decoder) decodeTwoByte(s *source, size int) *Instruction {
	b := s.next()
	if b < 0x82 || b > 0x87 {
		return nil
	}
	rel := s.rel(size)
	return &Instruction{Op: jccOps[b&0xF], Op1: AddressOperand{Target: s.pos + rel}}
}

// decodeALU decodes the 0x00-0x3D arithmetic/logic forms.
// Bits [5:3] select the operation, bits [2:0] the operand form.
func (d *Decoder) decodeALU(s *source, b byte, size int) *Instruction {
	inst := &Instruction{Op: aluOps[(b>>3)&7]}

	switch b & 7 {
	case 0: // r/m8, r8
		reg, rm := s.modRM(1)
		inst.Op1, inst.Op2 = rm, Reg(GeneralRegister(reg, 1))
	case 1: // r/m, r
		reg, rm := s.modRM(size)
		inst.Op1, inst.Op2 = rm, Reg(GeneralRegister(reg, size))
	case 2: // r8, r/m8
		reg, rm := s.modRM(1)
		inst.Op1, inst.Op2 = Reg(GeneralRegister(reg, 1)), rm
	case 3: // r, r/m
		reg, rm := s.modRM(size)
		inst.Op1, inst.Op2 = Reg(GeneralRegister(reg, size)), rm
	case 4: // al, imm8
		inst.Op1, inst.Op2 = Reg(AL), Imm(s.imm(1), 1)
	case 5: // eax, imm
		inst.Op1, inst.Op2 = Reg(GeneralRegister(0, size)), Imm(s.imm(size), size)
	}

	return inst
}

// decodeGroup1 decodes 0x80, 0x81 and 0x83. The 0x83 immediate keeps its
// one-byte size; sign extension is the executor's concern.
func (d *Decoder) decodeGroup1(s *source, b byte, size int) *Instruction {
	opSize := size
	if b == 0x80 {
		opSize = 1
	}
	reg, rm := s.modRM(opSize)

	immSize := opSize
	if b == 0x83 {
		immSize = 1
	}

	return &Instruction{Op: aluOps[reg], Op1: rm, Op2: Imm(s.imm(immSize), immSize)}
}

func (d *Decoder) decodeMov(s *source, b byte, size int) *Instruction {
	opSize := size
	if b&1 == 0 {
		opSize = 1
	}
	reg, rm := s.modRM(opSize)
	r := Reg(GeneralRegister(reg, opSize))

	if b&2 == 0 {
		return &Instruction{Op: OpMOV, Op1: rm, Op2: r}
	}
	return &Instruction{Op: OpMOV, Op1: r, Op2: rm}
}

// decodeShift decodes the shift groups; only SHL (/4, and its /6 alias) is
// recognized.
func (d *Decoder) decodeShift(s *source, b byte, size int) *Instruction {
	opSize := size
	if b&1 == 0 {
		opSize = 1
	}
	reg, rm := s.modRM(opSize)
	if reg != 4 && reg != 6 {
		return nil
	}

	inst := &Instruction{Op: OpSHL, Op1: rm}
	switch b {
	case 0xC0, 0xC1:
		inst.Op2 = Imm(s.imm(1), 1)
	case 0xD0, 0xD1:
		inst.Op2 = Imm(1, 1)
	case 0xD2, 0xD3:
		inst.Op2 = Reg(CL)
	}
	return inst
}

// decodeGroup45 decodes 0xFE (inc/dec r/m8) and 0xFF (inc/dec/push r/m).
func (d *Decoder) decodeGroup45(s *source, b byte, size int) *Instruction {
	opSize := size
	if b == 0xFE {
		opSize = 1
	}
	reg, rm := s.modRM(opSize)

	switch {
	case reg == 0:
		return &Instruction{Op: OpINC, Op1: rm}
	case reg == 1:
		return &Instruction{Op: OpDEC, Op1: rm}
	case reg == 6 && b == 0xFF:
		return &Instruction{Op: OpPUSH, Op1: rm}
	}
	return nil
}

// source is a byte cursor over a CodeReader. The first read error is
// latched; later reads return zero.
type source struct {
	r     CodeReader
	start uint32
	pos   uint32
	bytes []byte
	err   error
}

func (s *source) next() byte {
	if s.err != nil {
		return 0
	}
	if len(s.bytes) >= maxInstructionLength {
		s.err = &DecodeError{Address: s.start, Bytes: s.bytes}
		return 0
	}

	b, err := s.r.Read8(s.pos)
	if err != nil {
		s.err = err
		return 0
	}
	s.pos++
	s.bytes = append(s.bytes, b)
	return b
}

// imm reads a little-endian immediate of size bytes.
func (s *source) imm(size int) uint32 {
	var v uint32
	for i := 0; i < size; i++ {
		v |= uint32(s.next()) << (8 * i)
	}
	return v
}

// disp8 reads a byte and sign-extends it to 32 bits.
func (s *source) disp8() uint32 {
	return uint32(int32(int8(s.next())))
}

// rel reads a relative displacement of the operand size, sign-extended.
func (s *source) rel(size int) uint32 {
	if size == 2 {
		return uint32(int32(int16(s.imm(2))))
	}
	return s.imm(4)
}

// modRM decodes a ModR/M byte (and any SIB/displacement) using 32-bit
// addressing. It returns the reg field and the r/m operand.
//
//	mod(7:6) | reg(5:3) | rm(2:0)
func (s *source) modRM(size int) (uint8, Operand) {
	m := s.next()
	mod := m >> 6
	reg := (m >> 3) & 7
	rm := m & 7

	if mod == 3 {
		return reg, Reg(GeneralRegister(rm, size))
	}

	mem := MemoryOperand{Size: size, Scale: 1}

	switch {
	case rm == 4:
		// scale(7:6) | index(5:3) | base(2:0)
		sib := s.next()
		index := (sib >> 3) & 7
		base := sib & 7
		if index != 4 {
			r := GeneralRegister(index, 4)
			mem.Index = &r
			mem.Scale = 1 << (sib >> 6)
		}
		if base == 5 && mod == 0 {
			mem.Offset, mem.HasOffset = s.imm(4), true
		} else {
			r := GeneralRegister(base, 4)
			mem.Base = &r
		}
	case rm == 5 && mod == 0:
		mem.Offset, mem.HasOffset = s.imm(4), true
	default:
		r := GeneralRegister(rm, 4)
		mem.Base = &r
	}

	switch mod {
	case 1:
		mem.Offset, mem.HasOffset = s.disp8(), true
	case 2:
		mem.Offset, mem.HasOffset = s.imm(4), true
	}

	return reg, mem
}

// byteCode adapts a byte slice located at base to CodeReader.
type byteCode struct {
	base uint32
	data []byte
}

func (c byteCode) Contains(addr uint32) bool {
	return addr-c.base < uint32(len(c.data))
}

func (c byteCode) Read8(addr uint32) (byte, error) {
	if !c.Contains(addr) {
		return 0, fmt.Errorf("truncated instruction: address 0x%08X outside code", addr)
	}
	return c.data[addr-c.base], nil
}
