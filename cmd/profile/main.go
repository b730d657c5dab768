// Package main provides a profiling wrapper for x86emu to identify
// performance bottlenecks in the emulator.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/x86emu/emu"
	"github.com/sarchlab/x86emu/insts"
	"github.com/sarchlab/x86emu/loader"
)

var (
	cpuProfile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile  = flag.String("memprofile", "", "write memory profile to file")
	base        = flag.Uint("base", loader.DefaultBaseAddress, "load address of a flat binary")
	stackSize   = flag.Uint("stack", loader.DefaultStackSize, "stack bytes placed after the program")
	repeat      = flag.Int("repeat", 1, "number of times to run the program")
	instruction = flag.Uint64("max-instr", 1000000, "max instructions per run (0 = unlimited)")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	programPath := flag.Arg(0)

	prog, err := loader.LoadFile(programPath, uint32(*base), 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Entry point: 0x%08X\n", prog.EntryPoint)

	start := time.Now()

	var result emu.RunResult
	var instrCount uint64
	for i := 0; i < *repeat; i++ {
		result, err = runEmulationProfile(prog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		instrCount += result.Instructions
	}

	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Stopped: %v (%v)\n", result.State, result.Reason)
	if result.Err != nil {
		fmt.Printf("Last error: %v\n", result.Err)
	}
	fmt.Printf("Runs: %d\n", *repeat)
	fmt.Printf("Instructions executed: %d\n", instrCount)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
}

// runEmulationProfile runs the program once on a fresh image.
func runEmulationProfile(prog *loader.Program) (emu.RunResult, error) {
	image, sp, err := prog.NewImage(uint32(*stackSize))
	if err != nil {
		return emu.RunResult{}, err
	}

	emulator := emu.NewEmulator(image, emu.WithMaxInstructions(*instruction))
	emulator.WriteRegister(insts.StackPointer, sp)
	emulator.SetInstructionPointer(prog.EntryPoint)

	return emulator.Run(), nil
}
