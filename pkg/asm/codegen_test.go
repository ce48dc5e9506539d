package asm_test

import (
	"testing"

	"n2tcore/pkg/asm"
)

func TestGenerateAInst(t *testing.T) {
	codegen := asm.NewCodeGenerator(nil)

	test := func(inst asm.AInstruction, expected string, fail bool) {
		res, err := codegen.GenerateAInst(inst)
		if err != nil && !fail {
			t.Errorf("unexpected error for %+v: %v", inst, err)
		}
		if err == nil && fail {
			t.Errorf("expected failure for %+v", inst)
		}
		if err == nil && res != expected {
			t.Errorf("got %q, want %q", res, expected)
		}
	}

	t.Run("valid locations", func(t *testing.T) {
		test(asm.AInstruction{Location: "38"}, "@38", false)
		test(asm.AInstruction{Location: "SCREEN"}, "@SCREEN", false)
		test(asm.AInstruction{Location: "LOOP"}, "@LOOP", false)
	})
	t.Run("empty location", func(t *testing.T) {
		test(asm.AInstruction{Location: ""}, "", true)
	})
}

func TestGenerateCInst(t *testing.T) {
	codegen := asm.NewCodeGenerator(nil)

	test := func(inst asm.CInstruction, expected string, fail bool) {
		res, err := codegen.GenerateCInst(inst)
		if err != nil && !fail {
			t.Errorf("unexpected error for %+v: %v", inst, err)
		}
		if err == nil && fail {
			t.Errorf("expected failure for %+v", inst)
		}
		if err == nil && res != expected {
			t.Errorf("got %q, want %q", res, expected)
		}
	}

	t.Run("dest only", func(t *testing.T) {
		test(asm.CInstruction{Comp: "D", Dest: "M"}, "M=D", false)
	})
	t.Run("jump only", func(t *testing.T) {
		test(asm.CInstruction{Comp: "0", Jump: "JMP"}, "0;JMP", false)
	})
	t.Run("dest and jump together", func(t *testing.T) {
		test(asm.CInstruction{Comp: "D+1", Dest: "D", Jump: "JGT"}, "D=D+1;JGT", false)
	})
	t.Run("missing comp", func(t *testing.T) {
		test(asm.CInstruction{Dest: "M", Jump: "JGT"}, "", true)
	})
	t.Run("comp alone is rejected", func(t *testing.T) {
		test(asm.CInstruction{Comp: "D"}, "", true)
	})
}

func TestGenerateLabelDecl(t *testing.T) {
	codegen := asm.NewCodeGenerator(nil)

	test := func(inst asm.LabelDecl, expected string, fail bool) {
		res, err := codegen.GenerateLabelDecl(inst)
		if err != nil && !fail {
			t.Errorf("unexpected error for %+v: %v", inst, err)
		}
		if err == nil && fail {
			t.Errorf("expected failure for %+v", inst)
		}
		if err == nil && res != expected {
			t.Errorf("got %q, want %q", res, expected)
		}
	}

	t.Run("fuzzy labels", func(t *testing.T) {
		test(asm.LabelDecl{Name: "LOOP_START"}, "(LOOP_START)", false)
		test(asm.LabelDecl{Name: "test123"}, "(test123)", false)
	})
	t.Run("malformed or conflicting", func(t *testing.T) {
		test(asm.LabelDecl{Name: ""}, "", true)
		test(asm.LabelDecl{Name: "SP"}, "", true)
		test(asm.LabelDecl{Name: "R15"}, "", true)
	})
}
