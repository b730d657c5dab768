package benchmarks

import (
	"encoding/binary"

	"github.com/sarchlab/x86emu/insts"
)

// Helper functions for building IA-32 programs. Registers must be 32-bit
// general registers; memory forms use a base register with an 8-bit
// displacement and cannot take esp as the base.

// BuildProgram concatenates encoded instructions.
func BuildProgram(instrs ...[]byte) []byte {
	n := 0
	for _, inst := range instrs {
		n += len(inst)
	}

	program := make([]byte, 0, n)
	for _, inst := range instrs {
		program = append(program, inst...)
	}
	return program
}

// Repeat returns n copies of inst.
func Repeat(n int, inst []byte) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = inst
	}
	return out
}

func regNum(r insts.Register) byte {
	return byte(r.ID) & 7
}

func modRMReg(reg, rm insts.Register) byte {
	return 0xC0 | regNum(reg)<<3 | regNum(rm)
}

func modRMDisp8(reg, base insts.Register) byte {
	return 0x40 | regNum(reg)<<3 | regNum(base)
}

// EncodeMovImm encodes MOV r32, imm32.
func EncodeMovImm(dst insts.Register, imm uint32) []byte {
	return binary.LittleEndian.AppendUint32([]byte{0xB8 + regNum(dst)}, imm)
}

// EncodeMovReg encodes MOV dst, src.
func EncodeMovReg(dst, src insts.Register) []byte {
	return []byte{0x89, modRMReg(src, dst)}
}

// EncodeLoad encodes MOV dst, [base+disp].
func EncodeLoad(dst, base insts.Register, disp int8) []byte {
	return []byte{0x8B, modRMDisp8(dst, base), byte(disp)}
}

// EncodeStore encodes MOV [base+disp], src.
func EncodeStore(base insts.Register, disp int8, src insts.Register) []byte {
	return []byte{0x89, modRMDisp8(src, base), byte(disp)}
}

// EncodeAddReg encodes ADD dst, src.
func EncodeAddReg(dst, src insts.Register) []byte {
	return []byte{0x01, modRMReg(src, dst)}
}

// EncodeAddLoad encodes ADD dst, [base+disp].
func EncodeAddLoad(dst, base insts.Register, disp int8) []byte {
	return []byte{0x03, modRMDisp8(dst, base), byte(disp)}
}

// EncodeAdcReg encodes ADC dst, src.
func EncodeAdcReg(dst, src insts.Register) []byte {
	return []byte{0x11, modRMReg(src, dst)}
}

// EncodeOrReg encodes OR dst, src.
func EncodeOrReg(dst, src insts.Register) []byte {
	return []byte{0x09, modRMReg(src, dst)}
}

// EncodeXorReg encodes XOR dst, src.
func EncodeXorReg(dst, src insts.Register) []byte {
	return []byte{0x31, modRMReg(src, dst)}
}

// group1Imm8 encodes the 83 /ext ib form.
func group1Imm8(ext byte, dst insts.Register, imm int8) []byte {
	return []byte{0x83, 0xC0 | ext<<3 | regNum(dst), byte(imm)}
}

// EncodeAddImm encodes ADD dst, imm8 (sign-extended).
func EncodeAddImm(dst insts.Register, imm int8) []byte {
	return group1Imm8(0, dst, imm)
}

// EncodeAdcImm encodes ADC dst, imm8 (sign-extended).
func EncodeAdcImm(dst insts.Register, imm int8) []byte {
	return group1Imm8(2, dst, imm)
}

// EncodeSubImm encodes SUB dst, imm8 (sign-extended).
func EncodeSubImm(dst insts.Register, imm int8) []byte {
	return group1Imm8(5, dst, imm)
}

// EncodeCmpImm encodes CMP dst, imm8 (sign-extended).
func EncodeCmpImm(dst insts.Register, imm int8) []byte {
	return group1Imm8(7, dst, imm)
}

// EncodeInc encodes INC r32.
func EncodeInc(r insts.Register) []byte {
	return []byte{0x40 + regNum(r)}
}

// EncodeDec encodes DEC r32.
func EncodeDec(r insts.Register) []byte {
	return []byte{0x48 + regNum(r)}
}

// EncodeShlImm encodes SHL r32, imm8.
func EncodeShlImm(r insts.Register, count uint8) []byte {
	return []byte{0xC1, 0xE0 | regNum(r), count}
}

// EncodeLeaScaled encodes LEA dst, [base+index*scale]. Scale is 1, 2, 4 or
// 8; base cannot be ebp.
func EncodeLeaScaled(dst, base, index insts.Register, scale uint8) []byte {
	var ss byte
	switch scale {
	case 2:
		ss = 1
	case 4:
		ss = 2
	case 8:
		ss = 3
	}
	return []byte{0x8D, 0x04 | regNum(dst)<<3, ss<<6 | regNum(index)<<3 | regNum(base)}
}

// EncodePush encodes PUSH r32.
func EncodePush(r insts.Register) []byte {
	return []byte{0x50 + regNum(r)}
}

// EncodePusha encodes PUSHA.
func EncodePusha() []byte {
	return []byte{0x60}
}

// Condition codes for EncodeJcc.
const (
	CondC   byte = 0x2
	CondNC  byte = 0x3
	CondZ   byte = 0x4
	CondNZ  byte = 0x5
	CondBE  byte = 0x6
	CondA   byte = 0x7
	condMax byte = 0xF
)

// EncodeJcc encodes a short conditional jump. rel is relative to the end
// of the jump.
func EncodeJcc(cond byte, rel int8) []byte {
	return []byte{0x70 | cond&condMax, byte(rel)}
}

// EncodeJmp encodes a short unconditional jump.
func EncodeJmp(rel int8) []byte {
	return []byte{0xEB, byte(rel)}
}

// EncodeHlt encodes HLT.
func EncodeHlt() []byte {
	return []byte{0xF4}
}
