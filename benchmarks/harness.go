// Package benchmarks provides a microbenchmark harness for measuring the
// emulator's instruction throughput and checking its results.
package benchmarks

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-logr/logr"

	"github.com/sarchlab/x86emu/emu"
	"github.com/sarchlab/x86emu/insts"
	"github.com/sarchlab/x86emu/loader"
)

// Version is reported in JSON benchmark reports.
const Version = "0.1.0"

// BenchmarkResult holds the results of a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Instructions is the number of instructions executed
	Instructions uint64 `json:"instructions"`

	// State and Reason describe how the run ended
	State  string `json:"state"`
	Reason string `json:"reason"`

	// EAX is the final value of eax
	EAX uint32 `json:"eax"`

	// Passed is true if the run halted without error with the expected eax
	Passed bool `json:"passed"`

	// Error is the run error, if any
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the program
	WallTime time.Duration `json:"wall_time_ns"`
}

// InstructionsPerSecond returns the emulation rate of the run.
func (r BenchmarkResult) InstructionsPerSecond() float64 {
	if r.WallTime <= 0 {
		return 0
	}
	return float64(r.Instructions) / r.WallTime.Seconds()
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares the emulator state after esp is set, e.g. registers
	// or memory
	Setup func(e *emu.Emulator)

	// Program is the IA-32 machine code to execute, loaded at BaseAddress
	Program []byte

	// ExpectedEAX is the expected final eax (for validation)
	ExpectedEAX uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// BaseAddress is where programs are loaded
	BaseAddress uint32

	// StackSize is the stack space placed after each program
	StackSize uint32

	// MaxInstructions bounds every run; 0 means no limit
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives a line per benchmark when Verbose is set
	Logger logr.Logger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		BaseAddress:     loader.DefaultBaseAddress,
		StackSize:       loader.DefaultStackSize,
		MaxInstructions: 1_000_000,
		Output:          os.Stdout,
		Logger:          logr.Discard(),
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Logger.GetSink() == nil {
		config.Logger = logr.Discard()
	}
	if config.StackSize == 0 {
		config.StackSize = loader.DefaultStackSize
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		if h.config.Verbose {
			h.config.Logger.Info("benchmark finished", "name", result.Name,
				"instructions", result.Instructions, "passed", result.Passed, "wall", result.WallTime)
		}
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark on a fresh emulator.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	prog := &loader.Program{
		EntryPoint: h.config.BaseAddress,
		Segments: []loader.Segment{{
			VirtAddr: h.config.BaseAddress,
			Data:     bench.Program,
			MemSize:  uint32(len(bench.Program)),
			Flags:    loader.SegmentFlagRead | loader.SegmentFlagExecute,
		}},
	}

	image, sp, err := prog.NewImage(h.config.StackSize)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	e := emu.NewEmulator(image, emu.WithMaxInstructions(h.config.MaxInstructions))
	e.WriteRegister(insts.StackPointer, sp)
	e.SetInstructionPointer(prog.EntryPoint)

	if bench.Setup != nil {
		bench.Setup(e)
	}

	start := time.Now()
	run := e.Run()
	result.WallTime = time.Since(start)

	result.Instructions = run.Instructions
	result.State = run.State.String()
	result.Reason = run.Reason.String()
	result.EAX = e.ReadRegister(insts.EAX)
	if run.Err != nil {
		result.Error = run.Err.Error()
	}
	result.Passed = run.Err == nil && run.Reason == emu.StopHalt && result.EAX == bench.ExpectedEAX

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== x86emu Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}

		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s [%s]\n", r.Name, status)
		_, _ = fmt.Fprintf(h.config.Output, "  Description:  %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Stopped:      %s (%s)\n", r.State, r.Reason)
		_, _ = fmt.Fprintf(h.config.Output, "  eax:          0x%08X\n", r.EAX)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions: %d\n", r.Instructions)
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error:        %s\n", r.Error)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time:    %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) error {
	w := csv.NewWriter(h.config.Output)
	_ = w.Write([]string{"name", "instructions", "state", "reason", "eax", "passed", "wall_time_ns"})

	for _, r := range results {
		_ = w.Write([]string{
			r.Name,
			strconv.FormatUint(r.Instructions, 10),
			r.State,
			r.Reason,
			fmt.Sprintf("0x%08X", r.EAX),
			strconv.FormatBool(r.Passed),
			strconv.FormatInt(r.WallTime.Nanoseconds(), 10),
		})
	}

	w.Flush()
	return w.Error()
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	Timestamp       string `json:"timestamp"`
	Version         string `json:"version"`
	BaseAddress     uint32 `json:"base_address"`
	StackSize       uint32 `json:"stack_size"`
	MaxInstructions uint64 `json:"max_instructions"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks       int           `json:"total_benchmarks"`
	Passed                int           `json:"passed"`
	TotalInstructions     uint64        `json:"total_instructions"`
	TotalWallTime         time.Duration `json:"total_wall_time_ns"`
	InstructionsPerSecond float64       `json:"instructions_per_second"`
}

// Summarize computes aggregate statistics over results.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		}
		s.TotalInstructions += r.Instructions
		s.TotalWallTime += r.WallTime
	}

	if s.TotalWallTime > 0 {
		s.InstructionsPerSecond = float64(s.TotalInstructions) / s.TotalWallTime.Seconds()
	}
	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp:       time.Now().UTC().Format(time.RFC3339),
			Version:         Version,
			BaseAddress:     h.config.BaseAddress,
			StackSize:       h.config.StackSize,
			MaxInstructions: h.config.MaxInstructions,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
