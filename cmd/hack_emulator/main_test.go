package main

import (
	"os"
	"path/filepath"
	"testing"
)

// The assembled form of: @2 D=A @3 D=D+A @0 M=D (computes 5 into RAM[0]).
const addProgram = "0000000000000010\n" +
	"1110110000010000\n" +
	"0000000000000011\n" +
	"1110000010010000\n" +
	"0000000000000000\n" +
	"1110001100001000\n"

func TestHackEmulator(t *testing.T) {
	write := func(t *testing.T, content string) string {
		input := filepath.Join(t.TempDir(), "program.hack")
		if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
			t.Fatalf("error writing input file: %v", err)
		}
		return input
	}

	t.Run("Add program", func(t *testing.T) {
		input := write(t, addProgram)
		if status := Handler([]string{input}, map[string]string{"dump": "0"}); status != 0 {
			t.Fatalf("Unexpected exit status code: expected 0 got: %d", status)
		}
	})

	t.Run("Bounded steps", func(t *testing.T) {
		input := write(t, addProgram)
		if status := Handler([]string{input}, map[string]string{"steps": "2"}); status != 0 {
			t.Fatalf("Unexpected exit status code: expected 0 got: %d", status)
		}
	})

	t.Run("Malformed machine code", func(t *testing.T) {
		input := write(t, "010101\n")
		if status := Handler([]string{input}, nil); status == 0 {
			t.Fatal("expected a non-zero exit status for a short line")
		}
	})

	t.Run("Invalid comp pattern", func(t *testing.T) {
		// Bit 15 set with an undefined comp code must fail the disassemble pass.
		input := write(t, "1111111111111111\n")
		if status := Handler([]string{input}, nil); status == 0 {
			t.Fatal("expected a non-zero exit status for an invalid comp code")
		}
	})

	t.Run("Missing input file", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "missing.hack")
		if status := Handler([]string{missing}, nil); status == 0 {
			t.Fatal("expected a non-zero exit status for a missing input file")
		}
	})
}
