// Package main provides the x86emu command, which runs an IA-32 program
// image in the functional emulator and prints the final register state.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/x86emu/config"
	"github.com/sarchlab/x86emu/emu"
	"github.com/sarchlab/x86emu/insts"
	"github.com/sarchlab/x86emu/loader"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the command-line overrides of the run configuration.
type options struct {
	configPath  string
	base        *uint32
	entry       *uint32
	maxInsts    *uint64
	verbosity   *int
	breakpoints []uint32
	registers   map[string]uint32
	trace       bool
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	opts := &options{registers: make(map[string]uint32)}

	fs := flag.NewFlagSet("x86emu", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: x86emu [options] <program>\n")
		fmt.Fprintf(stderr, "\nThe program is an i386 ELF executable or a flat binary.\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "Path to run configuration JSON file")
	fs.BoolVar(&opts.trace, "trace", false, "Print every instruction before it executes")
	fs.Func("base", "Load address of a flat binary (default 0x00100000)", func(s string) error {
		v, err := parseAddress(s)
		opts.base = &v
		return err
	})
	fs.Func("entry", "Entry offset from the base of a flat binary", func(s string) error {
		v, err := parseAddress(s)
		opts.entry = &v
		return err
	})
	fs.Func("max", "Maximum number of instructions to execute (0 = no limit)", func(s string) error {
		v, err := strconv.ParseUint(s, 0, 64)
		opts.maxInsts = &v
		return err
	})
	fs.Func("v", "Log verbosity; 1 logs every instruction", func(s string) error {
		v, err := strconv.Atoi(s)
		opts.verbosity = &v
		return err
	})
	fs.Func("break", "Breakpoint address (repeatable)", func(s string) error {
		v, err := parseAddress(s)
		opts.breakpoints = append(opts.breakpoints, v)
		return err
	})
	fs.Func("reg", "Initial register value as name=value (repeatable)", func(s string) error {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("expected name=value, got %q", s)
		}
		v, err := parseAddress(value)
		opts.registers[name] = v
		return err
	})

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return opts, fs.Args(), nil
}

// runConfig loads the configuration file, if any, and applies the flag
// overrides on top of it.
func (o *options) runConfig() (*config.RunConfig, error) {
	cfg := config.DefaultRunConfig()
	if o.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
	}

	if o.base != nil {
		cfg.BaseAddress = *o.base
	}
	if o.entry != nil {
		cfg.EntryOffset = *o.entry
	}
	if o.maxInsts != nil {
		cfg.MaxInstructions = *o.maxInsts
	}
	if o.verbosity != nil {
		cfg.Verbosity = *o.verbosity
	}
	cfg.Breakpoints = append(cfg.Breakpoints, o.breakpoints...)
	if len(o.registers) > 0 && cfg.Registers == nil {
		cfg.Registers = make(map[string]uint32, len(o.registers))
	}
	for name, v := range o.registers {
		cfg.Registers[name] = v
	}

	return cfg, cfg.Validate()
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, rest, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	if len(rest) < 1 {
		fmt.Fprintf(stderr, "Usage: x86emu [options] <program>\n")
		return 2
	}
	programPath := rest[0]

	cfg, err := opts.runConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	prog, err := loader.LoadFile(programPath, cfg.BaseAddress, cfg.EntryOffset)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	img, sp, err := prog.NewImage(cfg.StackSize)
	if err != nil {
		fmt.Fprintf(stderr, "Error building image: %v\n", err)
		return 1
	}

	log := newLogger(stderr, cfg.Verbosity)
	emulator := emu.NewEmulator(img, append(cfg.EmulatorOptions(), emu.WithLogger(log))...)
	emulator.WriteRegister(insts.StackPointer, sp)
	emulator.SetInstructionPointer(prog.EntryPoint)
	if err := cfg.Apply(emulator); err != nil {
		fmt.Fprintf(stderr, "Error applying config: %v\n", err)
		return 1
	}

	emulator.AcceptHook(emu.OnPos(emu.HookPosBreakpoint, func(ctx sim.HookCtx) {
		fmt.Fprintf(stdout, "breakpoint at 0x%08X: %v\n", ctx.Detail, ctx.Item)
		emulator.DumpRegisters(stdout)
	}))
	if opts.trace {
		emulator.AcceptHook(emu.OnPos(emu.HookPosInstruction, func(ctx sim.HookCtx) {
			inst := ctx.Item.(*insts.Instruction)
			fmt.Fprintf(stdout, "0x%08X  %v\n", inst.Address, inst)
		}))
	}

	log.V(1).Info("loaded", "program", programPath, "entry", fmt.Sprintf("0x%08X", prog.EntryPoint),
		"base", fmt.Sprintf("0x%08X", img.BaseAddress()), "size", img.Size())

	result := emulator.Run()

	emulator.DumpRegisters(stdout)
	fmt.Fprintf(stdout, "state = %v (%v), %d instructions\n",
		result.State, result.Reason, result.Instructions)

	if result.Err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", result.Err)
		return 1
	}
	return 0
}

func newLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity})
}

// parseAddress parses a 32-bit number in Go syntax, e.g. 0x00100000.
func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	return uint32(v), err
}
