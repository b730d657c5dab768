package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/x86emu/config"
	"github.com/sarchlab/x86emu/emu"
	"github.com/sarchlab/x86emu/insts"
	"github.com/sarchlab/x86emu/mem"
)

var _ = Describe("RunConfig", func() {
	Describe("DefaultRunConfig", func() {
		It("should load at 0x00100000 with a 4KB stack", func() {
			c := config.DefaultRunConfig()

			Expect(c.BaseAddress).To(Equal(uint32(0x00100000)))
			Expect(c.StackSize).To(Equal(uint32(0x1000)))
			Expect(c.MaxInstructions).To(BeZero())
			Expect(c.EntryPoint()).To(Equal(uint32(0x00100000)))
			Expect(c.Validate()).To(Succeed())
		})
	})

	Describe("Validation", func() {
		It("should reject an empty stack", func() {
			c := config.DefaultRunConfig()
			c.StackSize = 0
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("should reject unknown registers", func() {
			c := config.DefaultRunConfig()
			c.Registers = map[string]uint32{"rax": 1}
			Expect(c.Validate()).To(MatchError(ContainSubstring("rax")))
		})

		It("should reject negative verbosity", func() {
			c := config.DefaultRunConfig()
			c.Verbosity = -1
			Expect(c.Validate()).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := config.DefaultRunConfig()
			original.Registers = map[string]uint32{"eax": 1}
			original.Breakpoints = []uint32{0x100000}

			clone := original.Clone()
			clone.Registers["eax"] = 2
			clone.Breakpoints[0] = 0x200000
			clone.StackSize = 0x20

			Expect(original.Registers["eax"]).To(Equal(uint32(1)))
			Expect(original.Breakpoints[0]).To(Equal(uint32(0x100000)))
			Expect(original.StackSize).To(Equal(uint32(0x1000)))
		})
	})

	Describe("Apply", func() {
		var e *emu.Emulator

		BeforeEach(func() {
			e = emu.NewEmulator(mem.NewImage(0x00100000, 0x10))
		})

		It("should write registers and set breakpoints", func() {
			c := config.DefaultRunConfig()
			c.Registers = map[string]uint32{"EBX": 4, "esp": 0x00100FFC}
			c.Breakpoints = []uint32{0x00100004, 0x00100004}

			Expect(c.Apply(e)).To(Succeed())

			Expect(e.ReadRegister(insts.EBX)).To(Equal(uint32(4)))
			Expect(e.ReadRegister(insts.ESP)).To(Equal(uint32(0x00100FFC)))
			Expect(e.Breakpoints().List()).To(Equal([]uint32{0x00100004}))
		})

		It("should write narrower aliases last", func() {
			c := config.DefaultRunConfig()
			c.Registers = map[string]uint32{"eax": 0x12345678, "al": 0xFF}

			Expect(c.Apply(e)).To(Succeed())

			Expect(e.ReadRegister(insts.EAX)).To(Equal(uint32(0x123456FF)))
		})

		It("should refuse an invalid configuration", func() {
			c := config.DefaultRunConfig()
			c.Registers = map[string]uint32{"xmm0": 1}

			Expect(c.Apply(e)).NotTo(Succeed())
		})
	})

	Describe("EmulatorOptions", func() {
		It("should carry the instruction limit", func() {
			c := config.DefaultRunConfig()
			c.MaxInstructions = 3
			// jmp $
			e := emu.NewEmulator(mem.NewImageFromBytes(0x00100000, []byte{0xEB, 0xFE}), c.EmulatorOptions()...)

			result := e.Run()

			Expect(result.Err).To(MatchError(emu.ErrInstructionLimit))
			Expect(result.Instructions).To(Equal(uint64(3)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "run-config-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			path := filepath.Join(tempDir, "run.json")
			original := config.DefaultRunConfig()
			original.EntryOffset = 4
			original.Registers = map[string]uint32{"ebx": 0x00100010}
			original.Breakpoints = []uint32{0x00100004}
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := config.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"max_instructions": 100}`), 0644)).To(Succeed())

			loaded, err := config.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.MaxInstructions).To(Equal(uint64(100)))
			Expect(loaded.BaseAddress).To(Equal(uint32(0x00100000)))
			Expect(loaded.StackSize).To(Equal(uint32(0x1000)))
		})

		It("should return error for non-existent file", func() {
			_, err := config.LoadConfig("/nonexistent/path/run.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			Expect(os.WriteFile(path, []byte("not valid json"), 0644)).To(Succeed())

			_, err := config.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
