package hack_test

import (
	"testing"

	"n2tcore/pkg/hack"
)

func TestCompTableAliases(t *testing.T) {
	// Commutative mnemonics must resolve to the identical bit pattern.
	pairs := [][2]string{
		{"D+A", "A+D"}, {"D+M", "M+D"},
		{"D&A", "A&D"}, {"D&M", "M&D"},
		{"D|A", "A|D"}, {"D|M", "M|D"},
	}
	for _, p := range pairs {
		left, okL := hack.CompTable[p[0]]
		right, okR := hack.CompTable[p[1]]
		if !okL || !okR {
			t.Fatalf("missing mnemonic in pair %v", p)
		}
		if left != right {
			t.Errorf("%s (%#b) != %s (%#b)", p[0], left, p[1], right)
		}
	}
	if len(hack.CompTable) < 28 {
		t.Fatalf("expected at least 28 comp mnemonics, got %d", len(hack.CompTable))
	}
}

func TestDestTablePermutations(t *testing.T) {
	for _, spelling := range []string{"AMD", "ADM", "MAD", "MDA", "DAM", "DMA"} {
		if hack.DestTable[spelling] != hack.DestAMD {
			t.Errorf("%q should decode to DestAMD", spelling)
		}
	}
}

// TestEvalComp checks every one of the 28 computation codes against its mathematical
// definition over a small grid of operand values (16-bit wrap-around included, since
// both sides of the comparison use int16 arithmetic).
func TestEvalComp(t *testing.T) {
	ops := map[hack.Comp]func(d, a, m int16) int16{
		hack.Comp0:    func(d, a, m int16) int16 { return 0 },
		hack.Comp1:    func(d, a, m int16) int16 { return 1 },
		hack.CompNeg1: func(d, a, m int16) int16 { return -1 },

		hack.CompD: func(d, a, m int16) int16 { return d },
		hack.CompA: func(d, a, m int16) int16 { return a },
		hack.CompM: func(d, a, m int16) int16 { return m },

		hack.CompNotD: func(d, a, m int16) int16 { return ^d },
		hack.CompNotA: func(d, a, m int16) int16 { return ^a },
		hack.CompNotM: func(d, a, m int16) int16 { return ^m },

		hack.CompNegD: func(d, a, m int16) int16 { return -d },
		hack.CompNegA: func(d, a, m int16) int16 { return -a },
		hack.CompNegM: func(d, a, m int16) int16 { return -m },

		hack.CompDPlus1: func(d, a, m int16) int16 { return d + 1 },
		hack.CompAPlus1: func(d, a, m int16) int16 { return a + 1 },
		hack.CompMPlus1: func(d, a, m int16) int16 { return m + 1 },

		hack.CompDMinus1: func(d, a, m int16) int16 { return d - 1 },
		hack.CompAMinus1: func(d, a, m int16) int16 { return a - 1 },
		hack.CompMMinus1: func(d, a, m int16) int16 { return m - 1 },

		hack.CompDPlusA: func(d, a, m int16) int16 { return d + a },
		hack.CompDPlusM: func(d, a, m int16) int16 { return d + m },

		hack.CompDMinusA: func(d, a, m int16) int16 { return d - a },
		hack.CompDMinusM: func(d, a, m int16) int16 { return d - m },
		hack.CompAMinusD: func(d, a, m int16) int16 { return a - d },
		hack.CompMMinusD: func(d, a, m int16) int16 { return m - d },

		hack.CompDAndA: func(d, a, m int16) int16 { return d & a },
		hack.CompDAndM: func(d, a, m int16) int16 { return d & m },
		hack.CompDOrA:  func(d, a, m int16) int16 { return d | a },
		hack.CompDOrM:  func(d, a, m int16) int16 { return d | m },
	}
	if len(ops) != 28 {
		t.Fatalf("expected definitions for all 28 comp codes, got %d", len(ops))
	}

	values := []int16{-1, 0, 1, 2, 32767, -32768}
	for comp, fn := range ops {
		for _, d := range values {
			for _, a := range values {
				for _, m := range values {
					if got, want := hack.EvalComp(comp, d, a, m), fn(d, a, m); got != want {
						t.Errorf("EvalComp(%07b, d=%d a=%d m=%d) = %d, want %d", comp, d, a, m, got, want)
					}
				}
			}
		}
	}
}

// TestJumpShould checks every branch condition against every sign of the ALU output.
func TestJumpShould(t *testing.T) {
	conds := map[hack.Jump]func(v int16) bool{
		hack.JumpNull: func(v int16) bool { return false },
		hack.JGT:      func(v int16) bool { return v > 0 },
		hack.JEQ:      func(v int16) bool { return v == 0 },
		hack.JGE:      func(v int16) bool { return v >= 0 },
		hack.JLT:      func(v int16) bool { return v < 0 },
		hack.JNE:      func(v int16) bool { return v != 0 },
		hack.JLE:      func(v int16) bool { return v <= 0 },
		hack.JMP:      func(v int16) bool { return true },
	}
	for jump, fn := range conds {
		for _, val := range []int16{-1, 0, 1} {
			if got, want := jump.Should(val), fn(val); got != want {
				t.Errorf("%03b.Should(%d) = %v, want %v", jump, val, got, want)
			}
		}
	}
}
