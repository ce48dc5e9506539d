package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/teris-io/cli"
	"n2tcore/pkg/cpu"
	"n2tcore/pkg/hack"
)

// defaultSteps bounds the run when the user doesn't pass --steps: the emulator is
// caller-driven and a program that never halts (they all are, on real Hack) would
// otherwise spin forever.
const defaultSteps = 1_000_000

var Description = strings.ReplaceAll(`
The Hack Emulator loads a compiled machine code (.hack) file and executes it on an
emulated Hack CPU, one fetch-decode-execute cycle at a time. After the run (bounded by
--steps) it prints the CPU registers and any RAM locations requested with --dump.
`, "\n", " ")

var HackEmulator = cli.New(Description).
	WithArg(cli.NewArg("input", "The machine code (.hack) file to execute")).
	WithOption(cli.NewOption("steps", "Maximum number of CPU cycles to run").
		WithType(cli.TypeInt)).
	WithOption(cli.NewOption("dump", "Comma separated RAM addresses to print after the run").
		WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	input, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	// Decodes the textual '0'/'1' lines to machine words and then to instructions.
	words, err := hack.ParseBinaryText(string(input))
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'decode' pass: %s\n", err)
		return -1
	}
	program, err := hack.Disassemble(words)
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'disassemble' pass: %s\n", err)
		return -1
	}

	steps := defaultSteps
	if options["steps"] != "" {
		if steps, err = strconv.Atoi(options["steps"]); err != nil {
			fmt.Printf("ERROR: Invalid --steps value: %s\n", err)
			return -1
		}
	}

	// The caller drives the iteration: the emulator itself only ever takes one step.
	state := cpu.NewState(program)
	for i := 0; i < steps && state.Running(); i++ {
		state.Step()
	}

	fmt.Printf("PC = %d, D = %d, A = %d, running = %t\n", state.PC, state.D, state.A, state.Running())
	if options["dump"] != "" {
		for _, field := range strings.Split(options["dump"], ",") {
			addr, err := strconv.ParseUint(strings.TrimSpace(field), 10, 16)
			if err != nil {
				fmt.Printf("ERROR: Invalid --dump address %q: %s\n", field, err)
				return -1
			}
			fmt.Printf("RAM[%d] = %d\n", addr, state.RAM[addr])
		}
	}

	return 0
}

func main() { os.Exit(HackEmulator.Run(os.Args, os.Stdout)) }
