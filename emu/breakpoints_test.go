package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/x86emu/emu"
)

var _ = Describe("BreakpointSet", func() {
	var b *emu.BreakpointSet

	BeforeEach(func() {
		b = emu.NewBreakpointSet()
	})

	It("should keep a single entry for a repeated address", func() {
		b.Set(0x100000)
		b.Set(0x100000)

		Expect(b.Len()).To(Equal(1))
		Expect(b.Has(0x100000)).To(BeTrue())
	})

	It("should report whether a cleared address was present", func() {
		b.Set(0x100004)

		Expect(b.Clear(0x100004)).To(BeTrue())
		Expect(b.Clear(0x100004)).To(BeFalse())
		Expect(b.Has(0x100004)).To(BeFalse())
	})

	It("should list addresses in order", func() {
		b.Set(0x30)
		b.Set(0x10)
		b.Set(0x20)

		Expect(b.List()).To(Equal([]uint32{0x10, 0x20, 0x30}))

		b.ClearAll()
		Expect(b.Len()).To(BeZero())
	})
})
