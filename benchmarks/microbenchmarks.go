package benchmarks

import (
	"github.com/sarchlab/x86emu/emu"
	"github.com/sarchlab/x86emu/insts"
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each one
// exercises a different group of instructions and ends in HLT with a known
// value in eax.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		branchTaken(),
		compareBranch(),
		carryChain(),
		scaledAddress(),
		registerSave(),
		countedLoop(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		countedLoop(),
		carryChain(),
		branchTaken(),
	}
}

// 20 independent adds rotated over five registers.
func arithmeticSequential() Benchmark {
	regs := []insts.Register{insts.EAX, insts.ECX, insts.EDX, insts.EBX, insts.ESI}

	var code [][]byte
	for i := 0; i < 20; i++ {
		code = append(code, EncodeAddImm(regs[i%len(regs)], 1))
	}
	code = append(code, EncodeHlt())

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent ADD operations over five registers",
		Program:     BuildProgram(code...),
		ExpectedEAX: 4,
	}
}

func dependencyChain() Benchmark {
	code := append(Repeat(20, EncodeInc(insts.EAX)), EncodeHlt())

	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent INC operations on eax",
		Program:     BuildProgram(code...),
		ExpectedEAX: 20,
	}
}

// Stores four values below the frame pointer and sums them back.
func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "4 stores and 4 loads through ebp-relative addressing",
		Setup: func(e *emu.Emulator) {
			e.WriteRegister(insts.EBP, e.ReadRegister(insts.ESP))
		},
		Program: BuildProgram(
			EncodeMovImm(insts.EAX, 1),
			EncodeStore(insts.EBP, -4, insts.EAX),
			EncodeMovImm(insts.EAX, 2),
			EncodeStore(insts.EBP, -8, insts.EAX),
			EncodeMovImm(insts.EAX, 3),
			EncodeStore(insts.EBP, -12, insts.EAX),
			EncodeMovImm(insts.EAX, 4),
			EncodeStore(insts.EBP, -16, insts.EAX),
			EncodeXorReg(insts.EAX, insts.EAX),
			EncodeAddLoad(insts.EAX, insts.EBP, -4),
			EncodeAddLoad(insts.EAX, insts.EBP, -8),
			EncodeAddLoad(insts.EAX, insts.EBP, -12),
			EncodeAddLoad(insts.EAX, insts.EBP, -16),
			EncodeHlt(),
		),
		ExpectedEAX: 10,
	}
}

// Each block jumps over a HLT to an INC.
func branchTaken() Benchmark {
	var code [][]byte
	for i := 0; i < 5; i++ {
		code = append(code, EncodeJmp(1), EncodeHlt(), EncodeInc(insts.EAX))
	}
	code = append(code, EncodeHlt())

	return Benchmark{
		Name:        "branch_taken",
		Description: "5 unconditional jumps over HLT",
		Program:     BuildProgram(code...),
		ExpectedEAX: 5,
	}
}

// One untaken and one taken conditional jump after CMP.
func compareBranch() Benchmark {
	return Benchmark{
		Name:        "compare_branch",
		Description: "CMP followed by untaken JA and taken JBE",
		Program: BuildProgram(
			EncodeMovImm(insts.EAX, 3),
			EncodeCmpImm(insts.EAX, 5),
			EncodeJcc(CondA, 1),
			EncodeInc(insts.EAX),
			EncodeCmpImm(insts.EAX, 5),
			EncodeJcc(CondBE, 1),
			EncodeHlt(),
			EncodeInc(insts.EAX),
			EncodeHlt(),
		),
		ExpectedEAX: 5,
	}
}

// 64-bit add of 1 to edx:eax = 0x00000001_FFFFFFFF; eax ends as the high
// word.
func carryChain() Benchmark {
	return Benchmark{
		Name:        "carry_chain",
		Description: "64-bit increment through ADD and ADC",
		Program: BuildProgram(
			EncodeMovImm(insts.EAX, 0xFFFFFFFF),
			EncodeMovImm(insts.EDX, 1),
			EncodeAddImm(insts.EAX, 1),
			EncodeAdcImm(insts.EDX, 0),
			EncodeOrReg(insts.EAX, insts.EDX),
			EncodeHlt(),
		),
		ExpectedEAX: 2,
	}
}

// eax = (edx*5) << 1 using LEA for the multiply.
func scaledAddress() Benchmark {
	return Benchmark{
		Name:        "scaled_address",
		Description: "LEA with a scaled index followed by SHL",
		Program: BuildProgram(
			EncodeMovImm(insts.EDX, 7),
			EncodeLeaScaled(insts.EAX, insts.EDX, insts.EDX, 4),
			EncodeShlImm(insts.EAX, 1),
			EncodeHlt(),
		),
		ExpectedEAX: 70,
	}
}

// PUSHA then reads the saved eax back from the top of the save area.
func registerSave() Benchmark {
	return Benchmark{
		Name:        "register_save",
		Description: "PUSHA and PUSH followed by a load of the saved eax",
		Program: BuildProgram(
			EncodeMovImm(insts.EAX, 5),
			EncodePusha(),
			EncodePush(insts.EAX),
			EncodeXorReg(insts.EAX, insts.EAX),
			EncodeMovReg(insts.EBP, insts.ESP),
			EncodeLoad(insts.EAX, insts.EBP, 0x20),
			EncodeAddLoad(insts.EAX, insts.EBP, 0),
			EncodeHlt(),
		),
		ExpectedEAX: 10,
	}
}

// Sums 10..1 with a DEC/JNZ loop.
func countedLoop() Benchmark {
	return Benchmark{
		Name:        "counted_loop",
		Description: "10-iteration loop summing the counter with DEC and JNZ",
		Program: BuildProgram(
			EncodeMovImm(insts.ECX, 10),
			EncodeXorReg(insts.EAX, insts.EAX),
			EncodeAddReg(insts.EAX, insts.ECX), // loop:
			EncodeDec(insts.ECX),
			EncodeJcc(CondNZ, -5),
			EncodeHlt(),
		),
		ExpectedEAX: 55,
	}
}
