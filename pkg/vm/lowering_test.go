package vm_test

import (
	"strconv"
	"strings"
	"testing"

	"n2tcore/pkg/asm"
	"n2tcore/pkg/cpu"
	"n2tcore/pkg/vm"
)

// execute lowers the given single-module VM source all the way down to a hack.Program
// and runs it on the emulator for at most maxSteps cycles: the same pipeline the real
// translator drives, which is the only honest way to check stack discipline.
func execute(t *testing.T, source string, maxSteps int, setup func(*cpu.State)) *cpu.State {
	t.Helper()

	parser := vm.NewParser(strings.NewReader(source))
	module, err := parser.Parse()
	if err != nil {
		t.Fatalf("parse: %s", err)
	}

	lowerer := vm.NewLowerer(vm.Program{"Test.vm": module})
	asmProgram, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("lower: %s", err)
	}

	hackProgram, _, err := asm.NewLowerer(asmProgram).Lower()
	if err != nil {
		t.Fatalf("assemble: %s", err)
	}

	state := cpu.NewState(hackProgram)
	state.RAM[0] = 256 // SP
	if setup != nil {
		setup(state)
	}
	for i := 0; i < maxSteps && state.Running(); i++ {
		state.Step()
	}
	return state
}

func TestLowerStackDiscipline(t *testing.T) {
	// After 'push a; push b; <op>; pop static 0' the result must land in RAM[16] (the
	// first variable the assembler allocates) and SP must be back at its initial value.
	test := func(op string, a, b, expected int16) {
		t.Run(op, func(t *testing.T) {
			source := strings.Join([]string{
				"push constant " + strconv.Itoa(int(a)),
				"push constant " + strconv.Itoa(int(b)),
				op,
				"pop static 0",
			}, "\n")
			state := execute(t, source, 100, nil)

			if got := state.RAM[16]; got != expected {
				t.Errorf("%d %s %d: expected %d, got %d", a, op, b, expected, got)
			}
			if state.RAM[0] != 256 {
				t.Errorf("SP not restored: expected 256, got %d", state.RAM[0])
			}
		})
	}

	test("add", 2, 3, 5)
	test("sub", 10, 3, 7)
	test("sub", 3, 10, -7)
	test("and", 0b1100, 0b1010, 0b1000)
	test("or", 0b1100, 0b1010, 0b1110)

	// Comparisons push the canonical -1 (true) / 0 (false).
	test("eq", 5, 5, -1)
	test("eq", 5, 6, 0)
	test("gt", 7, 3, -1)
	test("gt", 3, 7, 0)
	test("gt", 3, 3, 0)
	test("lt", 3, 7, -1)
	test("lt", 7, 3, 0)

	// Wrap-around is intentional: 32767 + 1 = -32768 in 16-bit two's complement.
	test("add", 32767, 1, -32768)
}

func TestLowerUnaryOps(t *testing.T) {
	state := execute(t, "push constant 5\nneg\npop static 0\npush constant 5\nnot\npop static 1", 100, nil)
	if state.RAM[16] != -5 {
		t.Errorf("neg 5: expected -5, got %d", state.RAM[16])
	}
	if state.RAM[17] != ^int16(5) {
		t.Errorf("not 5: expected %d, got %d", ^int16(5), state.RAM[17])
	}
}

func TestLowerSegments(t *testing.T) {
	source := `
push constant 10
pop local 0
push constant 21
pop argument 2
push constant 36
pop this 6
push constant 42
pop that 5
push constant 45
pop temp 6
push local 0
push argument 2
add
pop static 0
`
	state := execute(t, source, 1000, func(s *cpu.State) {
		s.RAM[1] = 300  // LCL
		s.RAM[2] = 400  // ARG
		s.RAM[3] = 3000 // THIS
		s.RAM[4] = 3010 // THAT
	})

	checks := map[uint16]int16{
		300: 10, 402: 21, 3006: 36, 3015: 42, 11: 45,
		16: 31, // static 0 = local 0 + argument 2
	}
	for addr, expected := range checks {
		if got := state.RAM[addr]; got != expected {
			t.Errorf("RAM[%d]: expected %d, got %d", addr, expected, got)
		}
	}
	if state.RAM[0] != 256 {
		t.Errorf("SP not restored: expected 256, got %d", state.RAM[0])
	}
}

func TestLowerPointerSegment(t *testing.T) {
	source := `
push constant 3030
pop pointer 0
push constant 3040
pop pointer 1
push constant 32
pop this 2
push constant 46
pop that 6
push pointer 0
push pointer 1
add
pop static 0
`
	state := execute(t, source, 1000, nil)

	if state.RAM[3] != 3030 || state.RAM[4] != 3040 {
		t.Errorf("pointer writes: THIS=%d THAT=%d", state.RAM[3], state.RAM[4])
	}
	if state.RAM[3032] != 32 || state.RAM[3046] != 46 {
		t.Errorf("this/that writes: RAM[3032]=%d RAM[3046]=%d", state.RAM[3032], state.RAM[3046])
	}
	if state.RAM[16] != 3030+3040 {
		t.Errorf("static 0: expected %d, got %d", 3030+3040, state.RAM[16])
	}
}

func TestLowerControlFlow(t *testing.T) {
	// Sums 1..10 with a loop driven by label/goto/if-goto.
	source := `
push constant 0
pop static 0
push constant 10
pop static 1
label LOOP
push static 1
push static 0
add
pop static 0
push static 1
push constant 1
sub
pop static 1
push static 1
if-goto LOOP
label END
goto END
`
	state := execute(t, source, 10000, nil)
	if state.RAM[16] != 55 {
		t.Errorf("sum 1..10: expected 55, got %d", state.RAM[16])
	}
}

func TestLowerCallingConvention(t *testing.T) {
	// A call immediately answered by a return must restore LCL/ARG/THIS/THAT and SP to
	// their pre-call values, with the return value on top of the stack.
	source := `
function Sys.init 0
push constant 42
call Test.answer 1
pop static 0
label HALT
goto HALT
function Test.answer 3
push constant 99
return
`
	state := execute(t, source, 10000, func(s *cpu.State) {
		s.RAM[1] = 300  // LCL
		s.RAM[2] = 400  // ARG
		s.RAM[3] = 3000 // THIS
		s.RAM[4] = 3010 // THAT
	})

	if state.RAM[16] != 99 {
		t.Errorf("return value: expected 99, got %d", state.RAM[16])
	}
	if state.RAM[0] != 256 {
		t.Errorf("SP: expected 256, got %d", state.RAM[0])
	}
	for addr, expected := range map[uint16]int16{1: 300, 2: 400, 3: 3000, 4: 3010} {
		if got := state.RAM[addr]; got != expected {
			t.Errorf("RAM[%d] not restored: expected %d, got %d", addr, expected, got)
		}
	}
}

func TestLowerFunctionLocals(t *testing.T) {
	// The locals-init loop must zero exactly NLocal cells and leave SP past them; the
	// callee then proves the locals are usable by summing constants into them.
	source := `
function Sys.init 0
call Test.sum 0
pop static 0
label HALT
goto HALT
function Test.sum 2
push constant 30
pop local 0
push constant 12
pop local 1
push local 0
push local 1
add
return
`
	state := execute(t, source, 10000, nil)
	if state.RAM[16] != 42 {
		t.Errorf("expected 42, got %d", state.RAM[16])
	}
	if state.RAM[0] != 256 {
		t.Errorf("SP: expected 256, got %d", state.RAM[0])
	}
}

func TestLowerFibonacci(t *testing.T) {
	source := `
function Sys.init 0
push constant 9
call Main.fibonacci 1
pop static 0
label HALT
goto HALT
` + fibonacci
	state := execute(t, source, 200000, nil)
	if state.RAM[16] != 34 {
		t.Errorf("fibonacci(9): expected 34, got %d", state.RAM[16])
	}
}

func TestLowerConstantRange(t *testing.T) {
	// A constant must fit the 15-bit A-instruction immediate; a larger value would
	// only be rejected later, as an out-of-range address in the assembler.
	parser := vm.NewParser(strings.NewReader("push constant 40000"))
	module, err := parser.Parse()
	if err != nil {
		t.Fatalf("parse: %s", err)
	}
	if _, err := vm.NewLowerer(vm.Program{"Test.vm": module}).Lower(); err == nil {
		t.Fatal("expected an out-of-range error for 'push constant 40000'")
	}

	// The largest representable constant still lowers and executes.
	state := execute(t, "push constant 32767\npop static 0", 100, nil)
	if state.RAM[16] != 32767 {
		t.Errorf("push constant 32767: expected 32767, got %d", state.RAM[16])
	}
}

func TestLowerStaticPerModule(t *testing.T) {
	// Two modules both using 'static 0' must get two distinct RAM cells.
	parse := func(source string) vm.Module {
		parser := vm.NewParser(strings.NewReader(source))
		module, err := parser.Parse()
		if err != nil {
			t.Fatalf("parse: %s", err)
		}
		return module
	}

	program := vm.Program{
		"A.vm": parse("push constant 1\npop static 0"),
		"B.vm": parse("push constant 2\npop static 0"),
	}
	asmProgram, err := vm.NewLowerer(program).Lower()
	if err != nil {
		t.Fatalf("lower: %s", err)
	}
	hackProgram, _, err := asm.NewLowerer(asmProgram).Lower()
	if err != nil {
		t.Fatalf("assemble: %s", err)
	}

	state := cpu.NewState(hackProgram)
	state.RAM[0] = 256
	for state.Running() {
		state.Step()
	}

	if state.RAM[16] != 1 || state.RAM[17] != 2 {
		t.Errorf("expected RAM[16]=1 RAM[17]=2, got %d and %d", state.RAM[16], state.RAM[17])
	}
}
