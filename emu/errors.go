package emu

import "errors"

var (
	// ErrUnsupportedOpcode is returned for opcodes outside the modeled subset.
	ErrUnsupportedOpcode = errors.New("unsupported opcode")

	// ErrInvalidOperand is returned when an operand does not have the shape a
	// handler requires, such as a non-address jump target.
	ErrInvalidOperand = errors.New("invalid operand")

	// ErrUnsupportedWidth is returned for memory accesses other than 1 or 4
	// bytes.
	ErrUnsupportedWidth = errors.New("unsupported access width")

	// ErrInstructionLimit is returned by Run when the configured instruction
	// limit is reached.
	ErrInstructionLimit = errors.New("instruction limit reached")
)
