// Package cpu implements the Hack CPU emulator: a cycle-stepped interpreter of the
// 16-bit instruction stream produced by pkg/asm and pkg/hack.
package cpu

import (
	"strconv"

	"n2tcore/pkg/hack"
)

// ramSize is the full addressable range of the Hack memory bus: every value the A
// register can hold is a valid RAM index.
const ramSize = 1 << 16

// State is one Hack CPU: the D/A registers, the program counter, RAM and the loaded
// ROM. Zero value is not useful; construct with NewState.
type State struct {
	D, A int16
	PC   int

	RAM [ramSize]int16
	ROM hack.Program
}

// NewState loads rom and returns a CPU state with D, A, PC and RAM all zeroed.
func NewState(rom hack.Program) *State {
	return &State{ROM: rom}
}

// Running reports whether the next Step call will execute an instruction: the program
// counter must be strictly inside the ROM.
func (s *State) Running() bool {
	return s.PC >= 0 && s.PC < len(s.ROM)
}

// Step performs exactly one fetch-decode-execute cycle. Once the PC runs out of the
// ROM the machine has halted and Step becomes a no-op.
func (s *State) Step() {
	if !s.Running() {
		return
	}
	switch inst := s.ROM[s.PC].(type) {
	case hack.AInstruction:
		s.execA(inst)
		s.PC++
	case hack.CInstruction:
		s.execC(inst)
	default:
		s.PC++
	}
}

// execA loads the A register. The CPU only ever executes fully resolved ROM -- the
// assembler's SymbolTable has already turned every Label/BuiltIn reference into a Raw
// literal by the time a Program reaches here (pkg/hack.Disassemble likewise only ever
// produces Raw locations) -- so a non-Raw AInstruction indicates a Program handed to
// the emulator before assembly, and is treated as address zero.
func (s *State) execA(inst hack.AInstruction) {
	if inst.LocType != hack.Raw {
		s.A = 0
		return
	}
	val, err := strconv.Atoi(inst.LocName)
	if err != nil {
		s.A = 0
		return
	}
	s.A = int16(val)
}

func (s *State) execC(inst hack.CInstruction) {
	val := hack.EvalComp(inst.Comp, s.D, s.A, s.RAM[uint16(s.A)])
	// Destination writes must use the A register's value from *before* this
	// instruction updates it: dest=AM with comp=A+1 stores the new value into both A
	// and RAM[old A], not RAM[new A].
	writeAddr := uint16(s.A)
	if inst.Dest.Has(hack.DestA) {
		s.A = val
	}
	if inst.Dest.Has(hack.DestD) {
		s.D = val
	}
	if inst.Dest.Has(hack.DestM) {
		s.RAM[writeAddr] = val
	}
	if inst.Jump.Should(val) {
		s.PC = int(uint16(s.A))
	} else {
		s.PC++
	}
}
