package asm

import (
	"errors"
	"fmt"
	"strconv"

	"n2tcore/pkg/hack"
)

// ErrDuplicateLabel is returned when a (label) re-binds a name already in the symbol
// table, whether a prior label or a built-in.
var ErrDuplicateLabel = errors.New("asm: duplicate label definition")

// Lowerer converts an asm.Program into a hack.Program plus the resolved hack.SymbolTable
// with two-pass resolution: pass 1 sweeps the program recording every label's ROM
// address (label declarations emit no instruction); pass 2 emits instructions, resolving
// each A-instruction's symbol -- built-in, already-labeled, or, failing both, a freshly
// allocated variable -- via the symbol table's lazy Resolve.
type Lowerer struct {
	program Program
	table   *hack.SymbolTable
}

func NewLowerer(p Program) *Lowerer {
	return &Lowerer{program: p, table: hack.NewSymbolTable()}
}

// Lower runs both passes and returns the resolved hack.Program and hack.SymbolTable.
func (l *Lowerer) Lower() (hack.Program, *hack.SymbolTable, error) {
	if len(l.program) == 0 {
		return nil, nil, fmt.Errorf("asm: empty program")
	}

	if err := l.firstPass(); err != nil {
		return nil, nil, err
	}

	converted, err := l.secondPass()
	if err != nil {
		return nil, nil, err
	}

	return converted, l.table, nil
}

// firstPass records every label's ROM address without emitting instructions. Re-defining
// a name already bound -- whether a prior label or a built-in -- is an error.
func (l *Lowerer) firstPass() error {
	romIndex := uint16(0)
	for _, stmt := range l.program {
		switch s := stmt.(type) {
		case LabelDecl:
			if s.Name == "" {
				return fmt.Errorf("asm: empty label declaration")
			}
			if l.table.Has(s.Name) {
				return fmt.Errorf("%w: %q already bound", ErrDuplicateLabel, s.Name)
			}
			l.table.DefineLabel(s.Name, romIndex)
		case AInstruction, CInstruction:
			romIndex++
		default:
			return fmt.Errorf("asm: unrecognized instruction %T", stmt)
		}
	}
	return nil
}

// secondPass emits the final hack.Program, resolving A-instruction symbols against the
// now-complete label set (variables are allocated lazily on first reference here, which
// is exactly the "pass 2: allocate next variable address" step since every label is
// already known by this point).
func (l *Lowerer) secondPass() (hack.Program, error) {
	converted := make(hack.Program, 0, len(l.program))
	for _, stmt := range l.program {
		switch s := stmt.(type) {
		case LabelDecl:
			continue
		case AInstruction:
			inst, err := l.lowerAInst(s)
			if err != nil {
				return nil, err
			}
			converted = append(converted, inst)
		case CInstruction:
			inst, err := l.lowerCInst(s)
			if err != nil {
				return nil, err
			}
			converted = append(converted, inst)
		}
	}
	return converted, nil
}

func (l *Lowerer) lowerAInst(inst AInstruction) (hack.Instruction, error) {
	if inst.Location == "" {
		return nil, fmt.Errorf("asm: A-instruction has an empty location")
	}
	if _, found := hack.BuiltInTable[inst.Location]; found {
		addr := l.table.Resolve(inst.Location)
		return hack.AInstruction{LocType: hack.Raw, LocName: strconv.Itoa(int(addr))}, nil
	}
	// A location with a leading digit can only be an address literal (identifiers
	// cannot start with a digit), so an out-of-range value like @40000 is an error
	// here and must never fall through to symbol resolution and become a variable.
	if c := inst.Location[0]; c >= '0' && c <= '9' {
		addr, err := strconv.ParseUint(inst.Location, 10, 64)
		if err != nil || addr >= uint64(hack.MaxAddressableMemory) {
			return nil, fmt.Errorf("asm: address @%s exceeds addressable memory (%d)", inst.Location, hack.MaxAddressableMemory)
		}
		return hack.AInstruction{LocType: hack.Raw, LocName: inst.Location}, nil
	}
	// Not a raw literal or a built-in: either an already-recorded label or a variable
	// to be allocated on first reference. Resolve eagerly here so the lowered word
	// carries the final numeric address rather than a symbol name.
	addr := l.table.Resolve(inst.Location)
	return hack.AInstruction{LocType: hack.Raw, LocName: strconv.Itoa(int(addr))}, nil
}

func (l *Lowerer) lowerCInst(inst CInstruction) (hack.Instruction, error) {
	if inst.Comp == "" {
		return nil, fmt.Errorf("asm: C-instruction missing required 'comp'")
	}
	comp, ok := hack.CompTable[inst.Comp]
	if !ok {
		return nil, fmt.Errorf("asm: unknown comp mnemonic %q", inst.Comp)
	}
	dest, ok := hack.DestTable[inst.Dest]
	if !ok {
		return nil, fmt.Errorf("asm: unknown dest mnemonic %q", inst.Dest)
	}
	jump, ok := hack.JumpTable[inst.Jump]
	if !ok {
		return nil, fmt.Errorf("asm: unknown jump mnemonic %q", inst.Jump)
	}
	return hack.CInstruction{Comp: comp, Dest: dest, Jump: jump}, nil
}
