// Package insts provides IA-32 instruction definitions and decoding.
//
// This package describes the machine the emulator executes: the register
// table (with sub-register aliases), the operand variants, and a decoder for
// the protected-mode instruction subset used by the emulator. It supports:
//   - ALU groups: ADD, OR, ADC, SBB, AND, SUB, XOR, CMP (register, memory and
//     immediate forms, including the 0x80/0x81/0x83 groups)
//   - INC, DEC, SHL, LEA, MOV, PUSH, PUSHA, POP, NOP, HLT
//   - Control flow: JMP, CALL, RET and the JA/JBE/JC/JNC/JNZ/JZ conditions
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.DecodeBytes([]byte{0x01, 0xD8}, 0x1000) // add eax,ebx
//	fmt.Printf("%v at 0x%X, %d bytes\n", inst, inst.Address, inst.Length)
package insts
