package asm

import (
	"fmt"

	"n2tcore/pkg/hack"
)

// CodeGenerator renders asm.Instruction values back to their textual assembly form --
// used by disassembly-style tooling and by tests that want to assert on the mnemonic
// rather than the encoded bits.
type CodeGenerator struct {
	program []Instruction
}

func NewCodeGenerator(p []Instruction) CodeGenerator {
	return CodeGenerator{program: p}
}

func (cg *CodeGenerator) Generate() ([]string, error) {
	lines := make([]string, 0, len(cg.program))
	for _, stmt := range cg.program {
		var line string
		var err error
		switch s := stmt.(type) {
		case AInstruction:
			line, err = cg.GenerateAInst(s)
		case CInstruction:
			line, err = cg.GenerateCInst(s)
		case LabelDecl:
			line, err = cg.GenerateLabelDecl(s)
		default:
			err = fmt.Errorf("asm: unrecognized instruction %T", stmt)
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (CodeGenerator) GenerateAInst(stmt AInstruction) (string, error) {
	if stmt.Location == "" {
		return "", fmt.Errorf("asm: A-instruction has an empty location")
	}
	return fmt.Sprintf("@%s", stmt.Location), nil
}

// GenerateCInst renders `[dest=]comp[;jump]`, requiring comp and at least one of
// dest/jump -- a bare comp with neither is a no-op instruction this generator rejects
// (the parser itself accepts it, since dest and jump are each optional there).
func (CodeGenerator) GenerateCInst(stmt CInstruction) (string, error) {
	if stmt.Comp == "" {
		return "", fmt.Errorf("asm: C-instruction missing required 'comp'")
	}
	if stmt.Dest == "" && stmt.Jump == "" {
		return "", fmt.Errorf("asm: C-instruction requires a 'dest' or a 'jump'")
	}

	line := stmt.Comp
	if stmt.Dest != "" {
		line = fmt.Sprintf("%s=%s", stmt.Dest, line)
	}
	if stmt.Jump != "" {
		line = fmt.Sprintf("%s;%s", line, stmt.Jump)
	}
	return line, nil
}

func (CodeGenerator) GenerateLabelDecl(stmt LabelDecl) (string, error) {
	if stmt.Name == "" {
		return "", fmt.Errorf("asm: empty label declaration")
	}
	if _, found := hack.BuiltInTable[stmt.Name]; found {
		return "", fmt.Errorf("asm: cannot declare label over built-in name %q", stmt.Name)
	}
	return fmt.Sprintf("(%s)", stmt.Name), nil
}
