package vm

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"n2tcore/pkg/asm"
)

// segmentPointer maps the four base-pointer segments to the built-in symbol holding
// their base address in RAM (LCL=1, ARG=2, THIS=3, THAT=4).
var segmentPointer = map[SegmentType]string{
	Local: "LCL", Argument: "ARG", This: "THIS", That: "THAT",
}

// tempBase is the first RAM cell of the 'temp' segment (RAM[5..12]).
const tempBase = 5

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a 'vm.Program' and produces its 'asm.Program' counterpart.
//
// Every VM operation becomes a short sequence of 'asm.Instruction' values (A and C
// instructions held by their source mnemonics, plus label declarations). The lowerer
// never touches machine words: the emitted asm.Program flows through the very same
// asm.Lowerer + hack.CodeGenerator pipeline that hand-written .asm files do, so there
// is exactly one place in the module that knows how comp/dest/jump become bits.
//
// The lowering preserves the Hack stack discipline: SP (RAM[0]) always points one past
// the top of the stack, the segment base pointers live at LCL/ARG/THIS/THAT, R13/R14
// are the only scratch registers used (during segment pops, 'return' and the
// locals-init loop).
type Lowerer struct {
	program Program

	labelCounter int    // fresh label ids for eq/gt/lt compare sequences
	callCounter  int    // fresh label ids for call return addresses
	currentFn    string // encloses label/goto scoping, mirrors the parser's backpatch scope
	module       string // current translation unit, prefixes 'static' symbols
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires that argument Program 'p' (what we want to translate) is non-nil.
func NewLowerer(p Program) *Lowerer {
	return &Lowerer{program: p}
}

// Lower walks every module (in deterministic name order) and emits the full assembly
// program. Comparison and call sites get globally unique labels (CMP_EQ_<n>,
// RET_<fn>_<n>) so that no two expansions collide, no matter which module they're in.
func (l *Lowerer) Lower() (asm.Program, error) {
	names := make([]string, 0, len(l.program))
	for name := range l.program {
		names = append(names, name)
	}
	sort.Strings(names)

	program := asm.Program{}
	for _, name := range names {
		// "Main.vm" owns the static symbols Main.0, Main.1, ...
		l.module = name[:len(name)-len(path.Ext(name))]
		l.currentFn = ""

		for _, op := range l.program[name] {
			var lowered []asm.Instruction
			var err error

			switch tOp := op.(type) {
			case MemoryOp:
				lowered, err = l.handleMemoryOp(tOp)
			case ArithmeticOp:
				lowered, err = l.handleArithmeticOp(tOp)
			case LabelDecl:
				lowered, err = l.handleLabelDecl(tOp)
			case GotoOp:
				lowered, err = l.handleGotoOp(tOp)
			case FuncDecl:
				lowered, err = l.handleFuncDecl(tOp)
			case FuncCallOp:
				lowered, err = l.handleFuncCall(tOp)
			case ReturnOp:
				lowered, err = l.handleReturn(tOp)
			default:
				err = fmt.Errorf("vm: unrecognized operation %T", op)
			}

			if err != nil {
				return nil, fmt.Errorf("vm: module %s: %w", name, err)
			}
			program = append(program, lowered...)
		}
	}

	return program, nil
}

// pushD appends the canonical push-the-D-register sequence: *SP = D; SP++.
func pushD(seq []asm.Instruction) []asm.Instruction {
	return append(seq,
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	)
}

// popD appends the canonical pop-into-D sequence: SP--; D = *SP.
func popD(seq []asm.Instruction) []asm.Instruction {
	return append(seq,
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
	)
}

// staticSymbol names the RAM-resident variable backing 'static <offset>' for the
// current module; the assembler's lazy variable allocation (from RAM[16] up) is what
// actually assigns it an address.
func (l *Lowerer) staticSymbol(offset uint16) string {
	return fmt.Sprintf("%s.%d", l.module, offset)
}

// Specialized function to convert a 'MemoryOp' to a list of 'asm.Instruction'.
func (l *Lowerer) handleMemoryOp(op MemoryOp) ([]asm.Instruction, error) {
	// Bound checking on segments that do have an upper bound to the allowed offsets
	if op.Segment == Pointer && op.Offset > 1 {
		return nil, fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
	}
	if op.Segment == Temp && op.Offset > 7 {
		return nil, fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
	}
	// A constant becomes an A-instruction immediate, so it is capped at 15 bits: letting
	// a larger value through would only fail later, as an out-of-range address in the
	// assembler.
	if op.Segment == Constant && op.Offset >= 1<<15 {
		return nil, fmt.Errorf("invalid 'constant' value, got %d", op.Offset)
	}

	switch op.Operation {
	case Push:
		return l.handlePush(op)
	case Pop:
		return l.handlePop(op)
	}
	return nil, fmt.Errorf("unrecognized OperationType '%s'", op.Operation)
}

func (l *Lowerer) handlePush(op MemoryOp) ([]asm.Instruction, error) {
	switch op.Segment {
	case Constant:
		// D = <constant>, then push
		return pushD([]asm.Instruction{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
		}), nil

	case Local, Argument, This, That:
		// D = *(base + offset), then push
		return pushD([]asm.Instruction{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: segmentPointer[op.Segment]},
			asm.CInstruction{Dest: "A", Comp: "D+M"},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}), nil

	case Temp:
		return pushD([]asm.Instruction{
			asm.AInstruction{Location: fmt.Sprint(tempBase + op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}), nil

	case Pointer:
		// pointer 0 aliases THIS, pointer 1 aliases THAT
		alias := "THIS"
		if op.Offset == 1 {
			alias = "THAT"
		}
		return pushD([]asm.Instruction{
			asm.AInstruction{Location: alias},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}), nil

	case Static:
		return pushD([]asm.Instruction{
			asm.AInstruction{Location: l.staticSymbol(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}), nil
	}
	return nil, fmt.Errorf("unrecognized SegmentType '%s'", op.Segment)
}

func (l *Lowerer) handlePop(op MemoryOp) ([]asm.Instruction, error) {
	switch op.Segment {
	case Constant:
		return nil, fmt.Errorf("cannot pop into the virtual 'constant' segment")

	case Local, Argument, This, That:
		// R13 = base + offset; pop into D; *R13 = D
		seq := []asm.Instruction{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: segmentPointer[op.Segment]},
			asm.CInstruction{Dest: "D", Comp: "D+M"},
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}
		seq = popD(seq)
		return append(seq,
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		), nil

	case Temp:
		return append(popD(nil),
			asm.AInstruction{Location: fmt.Sprint(tempBase + op.Offset)},
			asm.CInstruction{Dest: "M", Comp: "D"},
		), nil

	case Pointer:
		alias := "THIS"
		if op.Offset == 1 {
			alias = "THAT"
		}
		return append(popD(nil),
			asm.AInstruction{Location: alias},
			asm.CInstruction{Dest: "M", Comp: "D"},
		), nil

	case Static:
		return append(popD(nil),
			asm.AInstruction{Location: l.staticSymbol(op.Offset)},
			asm.CInstruction{Dest: "M", Comp: "D"},
		), nil
	}
	return nil, fmt.Errorf("unrecognized SegmentType '%s'", op.Segment)
}

// binaryComp maps each two-operand VM operation to the comp mnemonic applied with D
// holding the popped right operand and M the (in-place) left operand.
var binaryComp = map[ArithOpType]string{
	Add: "D+M", Sub: "M-D", And: "D&M", Or: "D|M",
}

// compareJump maps each comparison to the jump condition over 'left - right'.
var compareJump = map[ArithOpType]string{
	Eq: "JEQ", Gt: "JGT", Lt: "JLT",
}

// Specialized function to convert an 'ArithmeticOp' to a list of 'asm.Instruction'.
func (l *Lowerer) handleArithmeticOp(op ArithmeticOp) ([]asm.Instruction, error) {
	if comp, found := binaryComp[op.Operation]; found {
		// Pop right operand into D, rewrite the new stack top in place.
		return append(popD(nil),
			asm.CInstruction{Dest: "A", Comp: "A-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		), nil
	}

	if op.Operation == Neg || op.Operation == Not {
		comp := "-M"
		if op.Operation == Not {
			comp = "!M"
		}
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		}, nil
	}

	if jump, found := compareJump[op.Operation]; found {
		// Compute D = left - right, optimistically write true (-1) on the stack top,
		// then overwrite with false (0) unless the comparison's jump fires.
		label := fmt.Sprintf("CMP_%s_%d", strings.ToUpper(string(op.Operation)), l.labelCounter)
		l.labelCounter++

		seq := popD(nil)
		return append(seq,
			asm.CInstruction{Dest: "A", Comp: "A-1"},
			asm.CInstruction{Dest: "D", Comp: "M-D"},
			asm.CInstruction{Dest: "M", Comp: "-1"},
			asm.AInstruction{Location: label},
			asm.CInstruction{Comp: "D", Jump: jump},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: "0"},
			asm.LabelDecl{Name: label},
		), nil
	}

	return nil, fmt.Errorf("unrecognized ArithOpType '%s'", op.Operation)
}

// Specialized function to convert a 'LabelDecl' to a list of 'asm.Instruction'.
func (l *Lowerer) handleLabelDecl(op LabelDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower empty label declaration")
	}
	return []asm.Instruction{asm.LabelDecl{Name: ScopedLabel(l.currentFn, op.Name)}}, nil
}

// Specialized function to convert a 'GotoOp' to a list of 'asm.Instruction'.
func (l *Lowerer) handleGotoOp(op GotoOp) ([]asm.Instruction, error) {
	if op.Label == "" {
		return nil, fmt.Errorf("unable to lower empty jump label")
	}
	scoped := ScopedLabel(l.currentFn, op.Label)

	if op.Jump == Unconditional {
		return []asm.Instruction{
			asm.AInstruction{Location: scoped},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	}

	// if-goto: pop the stack top, branch when it is non-zero.
	return append(popD(nil),
		asm.AInstruction{Location: scoped},
		asm.CInstruction{Comp: "D", Jump: "JNE"},
	), nil
}

// Specialized function to convert a 'FuncDecl' to a list of 'asm.Instruction'.
//
// The NLocal zero-initialized locals are pushed by a small counted loop (R13 holds the
// remaining count) instead of NLocal unrolled 'push constant 0' expansions, so a
// function with a large local count does not inflate the ROM proportionally.
func (l *Lowerer) handleFuncDecl(op FuncDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower empty function declaration")
	}
	l.currentFn = op.Name

	seq := []asm.Instruction{asm.LabelDecl{Name: op.Name}}
	if op.NLocal == 0 {
		return seq, nil
	}

	loop := op.Name + "$LOCALS"
	done := op.Name + "$LOCALS_END"
	return append(seq,
		// R13 = NLocal
		asm.AInstruction{Location: fmt.Sprint(op.NLocal)},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// while (R13 != 0) { push 0; R13-- }
		asm.LabelDecl{Name: loop},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: done},
		asm.CInstruction{Comp: "D", Jump: "JEQ"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "0"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "M-1"},
		asm.AInstruction{Location: loop},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: done},
	), nil
}

// Specialized function to convert a 'FuncCallOp' to a list of 'asm.Instruction'.
//
// Pushes the return address and the caller's LCL/ARG/THIS/THAT (in that order), then
// repoints ARG to the first of the NArgs arguments (SP-5-NArgs), repoints LCL to the
// new frame base (SP) and jumps to the callee.
func (l *Lowerer) handleFuncCall(op FuncCallOp) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower empty function call")
	}

	ret := fmt.Sprintf("RET_%s_%d", op.Name, l.callCounter)
	l.callCounter++

	seq := pushD([]asm.Instruction{
		asm.AInstruction{Location: ret},
		asm.CInstruction{Dest: "D", Comp: "A"},
	})
	for _, saved := range []string{"LCL", "ARG", "THIS", "THAT"} {
		seq = pushD(append(seq,
			asm.AInstruction{Location: saved},
			asm.CInstruction{Dest: "D", Comp: "M"},
		))
	}

	return append(seq,
		// ARG = SP - 5 - NArgs
		asm.AInstruction{Location: fmt.Sprint(5 + op.NArgs)},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// LCL = SP
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// transfer control, then land back here on the callee's return
		asm.AInstruction{Location: op.Name},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: ret},
	), nil
}

// Specialized function to convert a 'ReturnOp' to a list of 'asm.Instruction'.
//
// R13 walks the saved frame (from LCL downwards), R14 holds the return address: the
// return address must be saved before *ARG is overwritten with the return value, since
// for a zero-argument callee RAM[ARG] is the very cell the return address lives in.
func (l *Lowerer) handleReturn(ReturnOp) ([]asm.Instruction, error) {
	seq := []asm.Instruction{
		// R13 = LCL (the frame pointer)
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// R14 = *(frame - 5) (the return address)
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}
	// *ARG = pop() (the return value lands where the caller expects the result)
	seq = popD(seq)
	seq = append(seq,
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// SP = ARG + 1
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)
	// THAT, THIS, ARG, LCL = *(--frame), in that order
	for _, restored := range []string{"THAT", "THIS", "ARG", "LCL"} {
		seq = append(seq,
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: restored},
			asm.CInstruction{Dest: "M", Comp: "D"},
		)
	}
	// goto the saved return address
	return append(seq,
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	), nil
}
