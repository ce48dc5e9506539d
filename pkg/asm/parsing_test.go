package asm_test

import (
	"strings"
	"testing"

	"n2tcore/pkg/asm"
)

func parse(t *testing.T, source string) asm.Program {
	t.Helper()
	parser := asm.NewParser(strings.NewReader(source))
	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	return program
}

func TestParseProgram(t *testing.T) {
	program := parse(t, "@2\nD=A\n@3\nD=D+A\n@0\nM=D\n")

	expected := asm.Program{
		asm.AInstruction{Location: "2"},
		asm.CInstruction{Comp: "A", Dest: "D"},
		asm.AInstruction{Location: "3"},
		asm.CInstruction{Comp: "D+A", Dest: "D"},
		asm.AInstruction{Location: "0"},
		asm.CInstruction{Comp: "D", Dest: "M"},
	}
	if len(program) != len(expected) {
		t.Fatalf("expected %d instructions, got %d", len(expected), len(program))
	}
	for i := range expected {
		if program[i] != expected[i] {
			t.Errorf("instruction %d: expected %+v, got %+v", i, expected[i], program[i])
		}
	}
}

func TestParseLabelsAndSymbols(t *testing.T) {
	program := parse(t, "(LOOP)\n@LOOP\n0;JMP\n")

	if decl, ok := program[0].(asm.LabelDecl); !ok || decl.Name != "LOOP" {
		t.Errorf("expected label declaration, got %+v", program[0])
	}
	if inst, ok := program[1].(asm.AInstruction); !ok || inst.Location != "LOOP" {
		t.Errorf("expected @LOOP, got %+v", program[1])
	}
	if inst, ok := program[2].(asm.CInstruction); !ok || inst.Jump != "JMP" || inst.Dest != "" {
		t.Errorf("expected 0;JMP, got %+v", program[2])
	}
}

func TestParseDestPermutations(t *testing.T) {
	// Multi-letter destinations are order-insensitive.
	for _, spelling := range []string{"AMD", "ADM", "MAD", "MDA", "DAM", "DMA", "MD", "DM", "AM", "MA"} {
		program := parse(t, spelling+"=D+1\n")
		inst, ok := program[0].(asm.CInstruction)
		if !ok || inst.Dest != spelling || inst.Comp != "D+1" {
			t.Errorf("%s=D+1: got %+v", spelling, program[0])
		}
	}
}

func TestParseCommutativeComp(t *testing.T) {
	for _, spelling := range []string{"A+D", "M+D", "A&D", "M&D", "A|D", "M|D"} {
		program := parse(t, "D="+spelling+"\n")
		inst, ok := program[0].(asm.CInstruction)
		if !ok || inst.Comp != spelling {
			t.Errorf("D=%s: got %+v", spelling, program[0])
		}
	}
}

func TestParseDestAndJumpTogether(t *testing.T) {
	program := parse(t, "D=D-1;JGT\n")
	inst := program[0].(asm.CInstruction)
	if inst.Dest != "D" || inst.Comp != "D-1" || inst.Jump != "JGT" {
		t.Errorf("got %+v", inst)
	}
}

func TestParseComments(t *testing.T) {
	source := `
// whole-line comment
@2 // trailing comment
/* block
   spanning lines */
D=A
`
	program := parse(t, source)
	if len(program) != 2 {
		t.Fatalf("expected 2 instructions with comments skipped, got %d", len(program))
	}
}
