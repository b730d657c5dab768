// Package main provides the entry point for x86emu.
// x86emu is a functional IA-32 instruction emulator.
//
// For the full CLI, use: go run ./cmd/x86emu
package main

import (
	"fmt"
	"io"
	"os"
)

// command describes one of the tools under cmd/.
type command struct {
	name    string
	usage   string
	summary string
}

var commands = []command{
	{"x86emu", "[options] <program>", "run an ELF32 or flat binary and dump the registers"},
	{"benchmark", "[-csv|-json] [-core]", "run the microbenchmarks and check their results"},
	{"profile", "[-cpuprofile f] <program>", "run a program under pprof and report instructions/second"},
}

func main() {
	printUsage(os.Stdout)

	if len(os.Args) > 1 {
		_, _ = fmt.Fprintf(os.Stdout, "\nNote: You provided arguments. Use 'go run ./cmd/%s' instead.\n", commands[0].name)
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "x86emu - IA-32 Instruction Emulator")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		_, _ = fmt.Fprintf(w, "  go run ./cmd/%-10s %s\n", c.name, c.usage)
		_, _ = fmt.Fprintf(w, "      %s\n", c.summary)
	}
}
