// Package config provides the JSON run configuration of the emulator.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/sarchlab/x86emu/emu"
	"github.com/sarchlab/x86emu/insts"
)

// RunConfig describes how a program is loaded and run.
type RunConfig struct {
	// BaseAddress is the load address of flat binaries.
	// Default: 0x00100000.
	BaseAddress uint32 `json:"base_address"`

	// EntryOffset is added to BaseAddress to get the entry point of a flat
	// binary. ELF binaries use their own entry point. Default: 0.
	EntryOffset uint32 `json:"entry_offset"`

	// StackSize is the number of bytes reserved after the program for the
	// stack. Default: 0x1000.
	StackSize uint32 `json:"stack_size"`

	// Registers holds initial register values by name, e.g. "ebx": 4.
	Registers map[string]uint32 `json:"registers,omitempty"`

	// Breakpoints holds linear breakpoint addresses.
	Breakpoints []uint32 `json:"breakpoints,omitempty"`

	// MaxInstructions stops the run with an error after this many
	// instructions. Default: 0 (no limit).
	MaxInstructions uint64 `json:"max_instructions"`

	// Verbosity is the logr verbosity; 1 traces every instruction.
	Verbosity int `json:"verbosity"`
}

// DefaultRunConfig returns a RunConfig with default values.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		BaseAddress: 0x00100000,
		StackSize:   0x1000,
	}
}

// LoadConfig loads a RunConfig from a JSON file. Fields missing from the
// file keep their defaults.
func LoadConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config file: %w", err)
	}

	config := DefaultRunConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse run config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a RunConfig to a JSON file.
func (c *RunConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize run config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run config file: %w", err)
	}

	return nil
}

// Validate checks that the register names are known and the stack is not
// empty.
func (c *RunConfig) Validate() error {
	if c.StackSize == 0 {
		return fmt.Errorf("stack_size must be > 0")
	}
	if c.Verbosity < 0 {
		return fmt.Errorf("verbosity must be >= 0")
	}
	for name := range c.Registers {
		if _, ok := insts.RegisterByName(name); !ok {
			return fmt.Errorf("unknown register %q", name)
		}
	}
	return nil
}

// Clone returns a deep copy of the RunConfig.
func (c *RunConfig) Clone() *RunConfig {
	clone := *c
	if c.Registers != nil {
		clone.Registers = make(map[string]uint32, len(c.Registers))
		for name, v := range c.Registers {
			clone.Registers[name] = v
		}
	}
	clone.Breakpoints = slices.Clone(c.Breakpoints)
	return &clone
}

// EntryPoint returns the entry address of a flat binary.
func (c *RunConfig) EntryPoint() uint32 {
	return c.BaseAddress + c.EntryOffset
}

// EmulatorOptions returns the emulator options the configuration implies.
func (c *RunConfig) EmulatorOptions() []emu.EmulatorOption {
	return []emu.EmulatorOption{emu.WithMaxInstructions(c.MaxInstructions)}
}

// Apply writes the initial registers and sets the breakpoints on e.
// Wider registers are written first, so "al" refines "eax" when both are
// given.
func (c *RunConfig) Apply(e *emu.Emulator) error {
	if err := c.Validate(); err != nil {
		return err
	}

	regs := make([]insts.Register, 0, len(c.Registers))
	values := make(map[insts.RegID]uint32, len(c.Registers))
	for name, v := range c.Registers {
		reg, _ := insts.RegisterByName(name)
		regs = append(regs, reg)
		values[reg.ID] = v
	}
	slices.SortFunc(regs, func(a, b insts.Register) int {
		if a.Width != b.Width {
			return int(b.Width) - int(a.Width)
		}
		return int(a.ID) - int(b.ID)
	})

	for _, reg := range regs {
		e.WriteRegister(reg, values[reg.ID])
	}

	for _, addr := range c.Breakpoints {
		e.SetBreakpoint(addr)
	}

	return nil
}
