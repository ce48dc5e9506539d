// Package asm implements the Hack assembler: parsing assembly source text into an
// intermediate instruction list, and lowering that list into pkg/hack's instruction
// model with two-pass symbol resolution.
package asm

// Instruction ties together AInstruction, CInstruction and LabelDecl; a type switch
// disambiguates, mirroring pkg/hack.Instruction one layer up the pipeline.
type Instruction interface{}

// Program is a parsed-but-not-yet-lowered assembly source file.
type Program []Instruction

// LabelDecl is a `(name)` line: it defines no instruction, only binds name to the ROM
// address of whatever instruction follows it.
type LabelDecl struct {
	Name string
}

// AInstruction is `@n` or `@sym`, parsed but not yet classified as Raw/Label/BuiltIn --
// that classification happens in the Lowerer, once the full symbol table is available.
type AInstruction struct {
	Location string
}

// CInstruction is `[dest=]comp[;jump]`. Comp, Dest and Jump are held as their source
// mnemonics; the Lowerer resolves them against pkg/hack's tables.
type CInstruction struct {
	Comp string
	Dest string
	Jump string
}
