// Package hack implements the Hack instruction-set architecture: the tagged-variant
// instruction model, the 16-bit word encoding/decoding, and the 28-entry comp/dest/jump
// bit-code tables that both the assembler and the CPU emulator are built on.
package hack

// Instruction ties together AInstruction and CInstruction; use a type switch to
// disambiguate.
type Instruction interface{}

// Program is an assembled (or not-yet-assembled) sequence of Hack instructions.
type Program []Instruction

// MaxAddressableMemory is the upper bound (exclusive) on an A-instruction's immediate:
// bit 15 is the opcode discriminator, leaving 15 bits (2^15) to address memory.
const MaxAddressableMemory uint16 = 1 << 15

// LocationType disambiguates how an AInstruction's location was spelled in source.
type LocationType uint8

const (
	Raw     LocationType = iota // A raw address literal, e.g. @2345
	Label                       // A user-defined label or variable, e.g. @LOOP
	BuiltIn                     // A pre-seeded symbol from hack.BuiltInTable, e.g. @SCREEN
)

// AInstruction loads an address/immediate into the A register.
type AInstruction struct {
	LocType LocationType
	LocName string // the literal digits, or the symbol name
}

// CInstruction computes an ALU result, optionally storing it and/or branching on it.
type CInstruction struct {
	Comp Comp
	Dest Dest
	Jump Jump
}
