package emu_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/x86emu/emu"
)

var _ = Describe("ALU", func() {
	var (
		flags emu.Flags
		alu   *emu.ALU
	)

	BeforeEach(func() {
		flags = 0
		alu = emu.NewALU(&flags)
	})

	Describe("Add", func() {
		It("should set carry and zero when the sum wraps to zero", func() {
			Expect(alu.Add(4, 0xFFFFFFFC)).To(BeZero())
			Expect(flags).To(Equal(emu.CarryMask | emu.ZeroMask))
		})

		It("should set overflow when two negatives make a positive", func() {
			Expect(alu.Add(0x80000000, 0x80000000)).To(BeZero())
			Expect(flags).To(Equal(emu.CarryMask | emu.ZeroMask | emu.OverflowMask))
		})

		It("should set overflow when two positives make a negative", func() {
			Expect(alu.Add(0x7FFFFFFF, 1)).To(Equal(uint32(0x80000000)))
			Expect(flags).To(Equal(emu.OverflowMask))
		})

		It("should match 64-bit arithmetic for random operands", func() {
			r := rand.New(rand.NewSource(1))
			for i := 0; i < 1000; i++ {
				a, b := r.Uint32(), r.Uint32()
				wide := uint64(a) + uint64(b)
				sum := alu.Add(a, b)

				Expect(sum).To(Equal(uint32(wide)))
				Expect(flags.Carry()).To(Equal(wide >= 1<<32))
				Expect(flags.Zero()).To(Equal(sum == 0))
				sameSign := a>>31 == b>>31
				Expect(flags.Overflow()).To(Equal(sameSign && sum>>31 != a>>31))
			}
		})
	})

	Describe("Adc", func() {
		It("should add the incoming carry", func() {
			alu.Add(0xFFFFFFFF, 1)
			Expect(alu.Adc(1, 0)).To(Equal(uint32(2)))
			Expect(flags.Carry()).To(BeFalse())
		})

		It("should behave like Add without carry", func() {
			Expect(alu.Adc(2, 3)).To(Equal(uint32(5)))
		})
	})

	Describe("Sub", func() {
		It("should set only overflow for 0x80000000 - 1", func() {
			Expect(alu.Sub(0x80000000, 1)).To(Equal(uint32(0x7FFFFFFF)))
			Expect(flags).To(Equal(emu.OverflowMask))
		})

		It("should set only carry for 0 - 4", func() {
			Expect(alu.Sub(0, 4)).To(Equal(uint32(0xFFFFFFFC)))
			Expect(flags).To(Equal(emu.CarryMask))
		})

		It("should set zero without carry or overflow for equal operands", func() {
			Expect(alu.Sub(0xFFFFFFFC, 0xFFFFFFFC)).To(BeZero())
			Expect(flags).To(Equal(emu.ZeroMask))
		})

		It("should compute the carry from the two's complement sum", func() {
			r := rand.New(rand.NewSource(2))
			for i := 0; i < 1000; i++ {
				a, b := r.Uint32(), r.Uint32()
				diff := alu.Sub(a, b)

				Expect(diff).To(Equal(a - b))
				Expect(flags.Carry()).To(Equal(a < a+(^b+1)))
				Expect(flags.Zero()).To(Equal(diff == 0))
			}
		})
	})

	Describe("Cmp", func() {
		It("should set the flags of Sub", func() {
			alu.Cmp(0, 4)
			Expect(flags).To(Equal(emu.CarryMask))
		})
	})

	Describe("Or and Xor", func() {
		BeforeEach(func() {
			flags = emu.CarryMask | emu.OverflowMask
		})

		It("should clear carry and overflow on Or", func() {
			Expect(alu.Or(1, 1)).To(Equal(uint32(1)))
			Expect(flags).To(BeZero())
		})

		It("should set only zero on a self Xor", func() {
			Expect(alu.Xor(1, 1)).To(BeZero())
			Expect(flags).To(Equal(emu.ZeroMask))
		})
	})

	Describe("Inc", func() {
		It("should set overflow on 0x7FFFFFFF", func() {
			Expect(alu.Inc(0x7FFFFFFF)).To(Equal(uint32(0x80000000)))
			Expect(flags.Overflow()).To(BeTrue())
			Expect(flags.Zero()).To(BeFalse())
		})

		It("should preserve carry", func() {
			flags = emu.CarryMask
			Expect(alu.Inc(0xFFFFFFFF)).To(BeZero())
			Expect(flags).To(Equal(emu.CarryMask | emu.ZeroMask))

			flags = 0
			alu.Inc(0xFFFFFFFF)
			Expect(flags.Carry()).To(BeFalse())
		})
	})

	Describe("Dec", func() {
		It("should set overflow when wrapping from zero", func() {
			Expect(alu.Dec(0)).To(Equal(uint32(0xFFFFFFFF)))
			Expect(flags.Overflow()).To(BeTrue())
		})

		It("should not set overflow on 0x80000000", func() {
			Expect(alu.Dec(0x80000000)).To(Equal(uint32(0x7FFFFFFF)))
			Expect(flags.Overflow()).To(BeFalse())
		})

		It("should set zero and preserve carry", func() {
			flags = emu.CarryMask
			Expect(alu.Dec(1)).To(BeZero())
			Expect(flags).To(Equal(emu.CarryMask | emu.ZeroMask))
		})
	})

	Describe("Shl", func() {
		It("should shift left", func() {
			Expect(alu.Shl(4, 2)).To(Equal(uint32(16)))
			Expect(flags).To(BeZero())
		})

		It("should mask the count to five bits", func() {
			Expect(alu.Shl(1, 33)).To(Equal(uint32(2)))
		})

		It("should set zero when all bits are shifted out", func() {
			flags = emu.CarryMask
			Expect(alu.Shl(0x80000000, 1)).To(BeZero())
			Expect(flags).To(Equal(emu.ZeroMask))
		})
	})
})

var _ = Describe("Flags", func() {
	It("should list the set flags", func() {
		Expect(emu.Flags(0).String()).To(Equal("-"))
		Expect((emu.CarryMask | emu.OverflowMask).String()).To(Equal("CO"))
		Expect((emu.CarryMask | emu.ZeroMask | emu.OverflowMask).String()).To(Equal("CZO"))
	})

	It("should use the EFLAGS bit positions", func() {
		Expect(uint32(emu.CarryMask)).To(Equal(uint32(0x001)))
		Expect(uint32(emu.ZeroMask)).To(Equal(uint32(0x040)))
		Expect(uint32(emu.OverflowMask)).To(Equal(uint32(0x800)))
	})
})

var _ = DescribeTable("Taken",
	func(op string, f emu.Flags, want bool) {
		Expect(emu.Taken(jumpOps[op], f)).To(Equal(want))
	},
	Entry("ja with no flags", "ja", emu.Flags(0), true),
	Entry("ja with carry", "ja", emu.CarryMask, false),
	Entry("ja with zero", "ja", emu.ZeroMask, false),
	Entry("jbe with zero", "jbe", emu.ZeroMask, true),
	Entry("jbe with no flags", "jbe", emu.Flags(0), false),
	Entry("jc with carry", "jc", emu.CarryMask, true),
	Entry("jnc with carry", "jnc", emu.CarryMask, false),
	Entry("jz with zero", "jz", emu.ZeroMask, true),
	Entry("jnz with zero", "jnz", emu.ZeroMask, false),
	Entry("jnz ignores overflow", "jnz", emu.OverflowMask, true),
	Entry("jmp always", "jmp", emu.CarryMask|emu.ZeroMask, true),
	Entry("non-jumps never", "add", emu.ZeroMask, false),
)
