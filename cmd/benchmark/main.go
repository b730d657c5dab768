// Command benchmark runs the x86emu microbenchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv   Output results in CSV format (default: human-readable)
//	-json  Output results as a JSON report
//	-core  Run only the core benchmarks
//	-max   Instruction limit per benchmark (0 = unlimited)
//	-v     Log each benchmark as it finishes
//
// Example:
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
//
// The command exits with status 1 if any benchmark does not produce its
// expected eax.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/x86emu/benchmarks"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as a JSON report")
	coreOnly := flag.Bool("core", false, "Run only the core benchmarks")
	maxInstr := flag.Uint64("max", 1_000_000, "Instruction limit per benchmark (0 = unlimited)")
	verbose := flag.Bool("v", false, "Log each benchmark as it finishes")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.MaxInstructions = *maxInstr
	config.Output = os.Stdout
	config.Verbose = *verbose
	config.Logger = funcr.New(func(prefix, args string) {
		fmt.Fprintln(os.Stderr, prefix, args)
	}, funcr.Options{})

	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	results := harness.RunAll()

	var err error
	switch {
	case *jsonOutput:
		err = harness.PrintJSON(results)
	case *csvOutput:
		err = harness.PrintCSV(results)
	default:
		fmt.Println("x86emu Benchmark Harness")
		fmt.Println("========================")
		fmt.Printf("Base address: 0x%08X\n", config.BaseAddress)
		fmt.Printf("Stack size:   0x%X\n", config.StackSize)
		fmt.Println("")

		harness.PrintResults(results)

		summary := benchmarks.Summarize(results)
		fmt.Println("=== Summary ===")
		fmt.Printf("Passed:       %d/%d\n", summary.Passed, summary.TotalBenchmarks)
		fmt.Printf("Instructions: %d\n", summary.TotalInstructions)
		fmt.Printf("Rate:         %.0f instructions/second\n", summary.InstructionsPerSecond)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing results: %v\n", err)
		os.Exit(1)
	}

	if summary := benchmarks.Summarize(results); summary.Passed != summary.TotalBenchmarks {
		os.Exit(1)
	}
}
