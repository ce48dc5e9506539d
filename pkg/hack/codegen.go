package hack

import (
	"fmt"
	"strconv"

	"n2tcore/pkg/utils"
)

// firstFreeVariable is the first RAM address handed out to a user-defined variable;
// addresses below it are reserved for the built-ins and the VM's virtual registers.
const firstFreeVariable uint16 = 16

// SymbolTable tracks every label and variable an assembly program refers to, seeded
// with hack.BuiltInTable so a lookup never needs to fall back to a second map.
type SymbolTable struct {
	entries utils.OrderedMap[string, uint16]
	nextVar uint16
}

// NewSymbolTable returns a table pre-seeded with the built-in symbols.
func NewSymbolTable() *SymbolTable {
	t := &SymbolTable{entries: utils.NewOrderedMap[string, uint16](), nextVar: firstFreeVariable}
	for name, addr := range BuiltInTable {
		t.entries.Set(name, addr)
	}
	return t
}

// DefineLabel records a label's ROM address; it is an error for the name to already be
// bound at all (duplicate definitions), checked by the caller.
func (t *SymbolTable) DefineLabel(name string, romAddr uint16) { t.entries.Set(name, romAddr) }

// Has reports whether name is already bound, to a label, a variable, or a built-in.
func (t *SymbolTable) Has(name string) bool { return t.entries.Has(name) }

// Resolve returns the address bound to name, lazily allocating it as a new variable at
// the next free RAM cell on first reference if it is not already bound. The two-pass
// resolution collapses into this single lazy step: by the time code generation runs,
// every label has already been recorded by DefineLabel during the first sweep, so any
// name still unbound at lookup time can only be a variable.
func (t *SymbolTable) Resolve(name string) uint16 {
	if addr, ok := t.entries.Get(name); ok {
		return addr
	}
	addr := t.nextVar
	t.nextVar++
	t.entries.Set(name, addr)
	return addr
}

// CodeGenerator lowers a Program into 16-bit machine words, resolving symbols
// against table as it goes.
type CodeGenerator struct {
	program Program
	table   *SymbolTable
}

func NewCodeGenerator(program Program, table *SymbolTable) *CodeGenerator {
	return &CodeGenerator{program: program, table: table}
}

// Assemble encodes the whole program into 16-bit words, in order.
func (g *CodeGenerator) Assemble() ([]uint16, error) {
	words := make([]uint16, 0, len(g.program))
	for i, instr := range g.program {
		word, err := g.encode(instr)
		if err != nil {
			return nil, fmt.Errorf("hack: instruction %d: %w", i, err)
		}
		words = append(words, word)
	}
	return words, nil
}

// Generate is Assemble followed by the canonical 16-character '0'/'1' text rendering
// the assembler's Handler ultimately writes to the .hack output file.
func (g *CodeGenerator) Generate() ([]string, error) {
	words, err := g.Assemble()
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(words))
	for i, w := range words {
		lines[i] = fmt.Sprintf("%016b", w)
	}
	return lines, nil
}

func (g *CodeGenerator) encode(instr Instruction) (uint16, error) {
	switch inst := instr.(type) {
	case AInstruction:
		return g.encodeA(inst)
	case CInstruction:
		return encodeC(inst), nil
	default:
		return 0, fmt.Errorf("unknown instruction type %T", instr)
	}
}

func (g *CodeGenerator) encodeA(inst AInstruction) (uint16, error) {
	var addr uint16
	switch inst.LocType {
	case Raw:
		// Bounds-check the full parsed value before narrowing: truncating first would
		// silently wrap a literal like 70000 to 4464 and sneak it past the check.
		parsed, err := strconv.ParseUint(inst.LocName, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid address literal %q: %w", inst.LocName, err)
		}
		if parsed >= uint64(MaxAddressableMemory) {
			return 0, fmt.Errorf("address %d exceeds addressable memory (%d)", parsed, MaxAddressableMemory)
		}
		addr = uint16(parsed)
	case Label, BuiltIn:
		addr = g.table.Resolve(inst.LocName)
	default:
		return 0, fmt.Errorf("unknown address kind %v for @%s", inst.LocType, inst.LocName)
	}
	if addr >= MaxAddressableMemory {
		return 0, fmt.Errorf("address %d exceeds addressable memory (%d)", addr, MaxAddressableMemory)
	}
	// Bit 15 clear marks an A-instruction; the low 15 bits are the address.
	return addr & (MaxAddressableMemory - 1), nil
}

func encodeC(inst CInstruction) uint16 {
	// 111 a cccccc ddd jjj: the three leading 1s are the C-instruction opcode.
	return 0b1110_0000_0000_0000 | uint16(inst.Comp)<<6 | uint16(inst.Dest)<<3 | uint16(inst.Jump)
}
