package emu_test

import (
	"github.com/sarchlab/x86emu/emu"
	"github.com/sarchlab/x86emu/insts"
	"github.com/sarchlab/x86emu/mem"
)

const imageBase = uint32(0x00100000)

var jumpOps = map[string]insts.Op{
	"ja":  insts.OpJA,
	"jbe": insts.OpJBE,
	"jc":  insts.OpJC,
	"jnc": insts.OpJNC,
	"jnz": insts.OpJNZ,
	"jz":  insts.OpJZ,
	"jmp": insts.OpJMP,
	"add": insts.OpADD,
}

// code concatenates encoded instructions.
func code(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// newTestEmulator loads program at imageBase, padded with zeros to size
// bytes, and points esp 0xFFC bytes past the base.
func newTestEmulator(program []byte, size int, opts ...emu.EmulatorOption) (*emu.Emulator, *mem.Image) {
	data := make([]byte, max(size, len(program)))
	copy(data, program)

	img := mem.NewImageFromBytes(imageBase, data)
	e := emu.NewEmulator(img, opts...)
	e.WriteRegister(insts.ESP, imageBase+0x0FFC)
	return e, img
}

func memOp(base *insts.Register, offset uint32, size int) insts.MemoryOperand {
	return insts.MemoryOperand{Base: base, Scale: 1, Offset: offset, HasOffset: offset != 0, Size: size}
}

func regPtr(r insts.Register) *insts.Register {
	return &r
}
