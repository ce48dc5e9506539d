package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHackAssembler(t *testing.T) {
	test := func(t *testing.T, source string, expected string) {
		dir := t.TempDir()
		input := filepath.Join(dir, "program.asm")
		output := filepath.Join(dir, "program.hack")

		if err := os.WriteFile(input, []byte(source), 0o644); err != nil {
			t.Fatalf("error writing input file: %v", err)
		}

		status := Handler([]string{input, output}, nil)
		if status != 0 {
			t.Fatalf("Unexpected exit status code: expected 0 got: %d", status)
		}

		compiled, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("Error reading output file %s: %v", output, err)
		}
		if string(compiled) != expected {
			t.Fatalf("Output mismatch:\ngot:\n%s\nexpected:\n%s", compiled, expected)
		}
	}

	t.Run("Add.asm", func(t *testing.T) {
		test(t, "// Computes 2 + 3 and stores the result in RAM[0]\n@2\nD=A\n@3\nD=D+A\n@0\nM=D\n",
			"0000000000000010\n"+
				"1110110000010000\n"+
				"0000000000000011\n"+
				"1110000010010000\n"+
				"0000000000000000\n"+
				"1110001100001000\n")
	})

	t.Run("Labels and variables", func(t *testing.T) {
		// @counter allocates the first variable slot (16); (LOOP) binds ROM index 2.
		test(t, "@counter\nM=0\n(LOOP)\n@counter\nM=M+1\n@LOOP\n0;JMP\n",
			"0000000000010000\n"+
				"1110101010001000\n"+
				"0000000000010000\n"+
				"1111110111001000\n"+
				"0000000000000010\n"+
				"1110101010000111\n")
	})

	t.Run("Missing input file", func(t *testing.T) {
		dir := t.TempDir()
		status := Handler([]string{filepath.Join(dir, "missing.asm"), filepath.Join(dir, "out.hack")}, nil)
		if status == 0 {
			t.Fatal("expected a non-zero exit status for a missing input file")
		}
	})
}
