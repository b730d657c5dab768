package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/x86emu/insts"
)

const base = uint32(0x00100000)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	decode := func(code ...byte) *insts.Instruction {
		inst, err := decoder.DecodeBytes(code, base)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		ExpectWithOffset(1, inst.Length).To(Equal(len(code)))
		ExpectWithOffset(1, inst.Address).To(Equal(base))
		return inst
	}

	Describe("arithmetic and logic", func() {
		// 01 D8 -> add eax,ebx
		It("should decode add r/m32, r32", func() {
			inst := decode(0x01, 0xD8)

			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Op1).To(Equal(insts.Reg(insts.EAX)))
			Expect(inst.Op2).To(Equal(insts.Reg(insts.EBX)))
		})

		// 11 DB -> adc ebx,ebx
		It("should decode adc", func() {
			Expect(decode(0x11, 0xDB).String()).To(Equal("adc ebx,ebx"))
		})

		// 2A C4 -> sub al,ah
		It("should decode byte forms", func() {
			inst := decode(0x2A, 0xC4)

			Expect(inst.Op).To(Equal(insts.OpSUB))
			Expect(inst.Op1).To(Equal(insts.Reg(insts.AL)))
			Expect(inst.Op2).To(Equal(insts.Reg(insts.AH)))
		})

		// 35 78 56 34 12 -> xor eax,0x12345678
		It("should decode the accumulator immediate form", func() {
			inst := decode(0x35, 0x78, 0x56, 0x34, 0x12)

			Expect(inst.Op).To(Equal(insts.OpXOR))
			Expect(inst.Op2).To(Equal(insts.Imm(0x12345678, 4)))
		})

		// 83 EE FC -> sub esi,-4
		It("should keep the 0x83 immediate one byte wide", func() {
			inst := decode(0x83, 0xEE, 0xFC)

			Expect(inst.Op).To(Equal(insts.OpSUB))
			Expect(inst.Op1).To(Equal(insts.Reg(insts.ESI)))
			Expect(inst.Op2).To(Equal(insts.Imm(0xFC, 1)))
		})

		// 81 FB 00 01 00 00 -> cmp ebx,0x100
		It("should decode cmp with a dword immediate", func() {
			inst := decode(0x81, 0xFB, 0x00, 0x01, 0x00, 0x00)

			Expect(inst.Op).To(Equal(insts.OpCMP))
			Expect(inst.Op2).To(Equal(insts.Imm(0x100, 4)))
		})

		// 40 -> inc eax, 4F -> dec edi, 66 41 -> inc cx
		It("should decode short inc and dec", func() {
			Expect(decode(0x40).String()).To(Equal("inc eax"))
			Expect(decode(0x4F).String()).To(Equal("dec edi"))
			Expect(decode(0x66, 0x41).String()).To(Equal("inc cx"))
		})

		// FE 03 -> inc byte ptr [ebx]
		It("should decode inc of a memory byte", func() {
			Expect(decode(0xFE, 0x03).String()).To(Equal("inc byte ptr [ebx]"))
		})

		// C1 E6 02 -> shl esi,2; D3 E0 -> shl eax,cl; D1 E2 -> shl edx,1
		It("should decode shl", func() {
			Expect(decode(0xC1, 0xE6, 0x02).String()).To(Equal("shl esi,0x2"))
			Expect(decode(0xD3, 0xE0).String()).To(Equal("shl eax,cl"))
			Expect(decode(0xD1, 0xE2).String()).To(Equal("shl edx,0x1"))
		})
	})

	Describe("data movement", func() {
		// 89 D8 -> mov eax,ebx
		It("should decode mov r/m32, r32", func() {
			Expect(decode(0x89, 0xD8).String()).To(Equal("mov eax,ebx"))
		})

		// 8B 43 F0 -> mov eax,[ebx-0x10]
		It("should decode a disp8 memory source", func() {
			inst := decode(0x8B, 0x43, 0xF0)

			m, ok := inst.Op2.(insts.MemoryOperand)
			Expect(ok).To(BeTrue())
			Expect(*m.Base).To(Equal(insts.EBX))
			Expect(m.Offset).To(Equal(uint32(0xFFFFFFF0)))
			Expect(m.Size).To(Equal(4))
		})

		// 88 25 00 00 10 00 -> mov [0x00100000],ah
		It("should decode a byte store to an absolute address", func() {
			Expect(decode(0x88, 0x25, 0x00, 0x00, 0x10, 0x00).String()).
				To(Equal("mov byte ptr [0x00100000],ah"))
		})

		// B8 34 12 00 00 -> mov eax,0x1234; 66 B8 34 12 -> mov ax,0x1234
		It("should decode register immediates by operand size", func() {
			inst := decode(0xB8, 0x34, 0x12, 0x00, 0x00)
			Expect(inst.Op2).To(Equal(insts.Imm(0x1234, 4)))

			inst = decode(0x66, 0xB8, 0x34, 0x12)
			Expect(inst.Op1).To(Equal(insts.Reg(insts.AX)))
			Expect(inst.Op2).To(Equal(insts.Imm(0x1234, 2)))
		})

		// B4 7F -> mov ah,0x7F
		It("should decode byte register immediates", func() {
			Expect(decode(0xB4, 0x7F).String()).To(Equal("mov ah,0x7F"))
		})

		// C7 45 08 01 00 00 00 -> mov dword ptr [ebp+0x8],1
		It("should decode mov r/m32, imm32", func() {
			Expect(decode(0xC7, 0x45, 0x08, 0x01, 0x00, 0x00, 0x00).String()).
				To(Equal("mov dword ptr [ebp+0x8],0x1"))
		})

		// 8D 04 92 -> lea eax,[edx+edx*4]
		It("should decode lea with a SIB byte", func() {
			Expect(decode(0x8D, 0x04, 0x92).String()).To(Equal("lea eax,dword ptr [edx+edx*4]"))
		})

		// 8D 04 8D 00 10 00 00 -> lea eax,[ecx*4+0x1000]
		It("should decode a SIB byte without a base", func() {
			inst := decode(0x8D, 0x04, 0x8D, 0x00, 0x10, 0x00, 0x00)

			m := inst.Op2.(insts.MemoryOperand)
			Expect(m.Base).To(BeNil())
			Expect(*m.Index).To(Equal(insts.ECX))
			Expect(m.Scale).To(Equal(uint8(4)))
			Expect(m.Offset).To(Equal(uint32(0x1000)))
		})

		// 8D C0 -> lea eax,eax is invalid
		It("should reject lea of a register", func() {
			_, err := decoder.DecodeBytes([]byte{0x8D, 0xC0}, base)
			Expect(err).To(MatchError(insts.ErrUndecodable))
		})
	})

	Describe("stack", func() {
		It("should decode push forms", func() {
			Expect(decode(0x53).String()).To(Equal("push ebx"))
			Expect(decode(0x60).Op).To(Equal(insts.OpPUSHA))
			Expect(decode(0x68, 0x00, 0x10, 0x00, 0x00).Op2).To(BeNil())
			Expect(decode(0x6A, 0xFF).Op1).To(Equal(insts.Imm(0xFFFFFFFF, 4)))
			Expect(decode(0xFF, 0x35, 0x00, 0x00, 0x10, 0x00).String()).
				To(Equal("push dword ptr [0x00100000]"))
		})
	})

	Describe("control flow", func() {
		// 74 05 -> jz +5
		It("should resolve short jump targets", func() {
			inst := decode(0x74, 0x05)

			Expect(inst.Op).To(Equal(insts.OpJZ))
			Expect(inst.Op1).To(Equal(insts.AddressOperand{Target: base + 7}))
		})

		// EB FE -> jmp $
		It("should resolve backward jumps", func() {
			Expect(decode(0xEB, 0xFE).Op1).To(Equal(insts.AddressOperand{Target: base}))
		})

		// 0F 87 00 01 00 00 -> ja +0x100
		It("should decode near conditional jumps", func() {
			inst := decode(0x0F, 0x87, 0x00, 0x01, 0x00, 0x00)

			Expect(inst.Op).To(Equal(insts.OpJA))
			Expect(inst.Op1).To(Equal(insts.AddressOperand{Target: base + 6 + 0x100}))
		})

		DescribeTable("condition codes",
			func(opcode byte, op insts.Op) {
				Expect(decode(opcode, 0x00).Op).To(Equal(op))
			},
			Entry("jc", byte(0x72), insts.OpJC),
			Entry("jnc", byte(0x73), insts.OpJNC),
			Entry("jz", byte(0x74), insts.OpJZ),
			Entry("jnz", byte(0x75), insts.OpJNZ),
			Entry("jbe", byte(0x76), insts.OpJBE),
			Entry("ja", byte(0x77), insts.OpJA),
		)

		It("should decode the remaining one-byte opcodes", func() {
			Expect(decode(0xF4).Op).To(Equal(insts.OpHLT))
			Expect(decode(0x90).Op).To(Equal(insts.OpNOP))
			Expect(decode(0xC3).Op).To(Equal(insts.OpRET))
			Expect(decode(0xE8, 0x00, 0x00, 0x00, 0x00).Op1).
				To(Equal(insts.AddressOperand{Target: base + 5}))
		})
	})

	Describe("errors", func() {
		It("should report unknown opcodes with their bytes", func() {
			_, err := decoder.DecodeBytes([]byte{0x0F, 0x0B}, base)

			Expect(err).To(MatchError(insts.ErrUndecodable))
			var de *insts.DecodeError
			Expect(err).To(BeAssignableToTypeOf(de))
			Expect(err.(*insts.DecodeError).Bytes).To(Equal([]byte{0x0F, 0x0B}))
		})

		It("should report truncated instructions", func() {
			_, err := decoder.DecodeBytes([]byte{0xB8, 0x01}, base)

			Expect(err).To(HaveOccurred())
			Expect(err).NotTo(MatchError(insts.ErrUndecodable))
		})

		It("should stop at the maximum instruction length", func() {
			code := make([]byte, 20)
			for i := range code {
				code[i] = 0x66
			}

			_, err := decoder.DecodeBytes(code, base)
			Expect(err).To(MatchError(insts.ErrUndecodable))
		})
	})
})
