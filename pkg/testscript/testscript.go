// Package testscript parses the nand2tetris hardware-simulator test formats: .tst
// scripts into a structured instruction list, and .cmp comparison files into typed
// tables. The runner that executes scripts against a simulated chip is a consumer of
// these structures, not part of this package.
package testscript

// CellType classifies a script/table value: the clock column ('%S' in an output-list
// spec), a binary bit string ('%B') or a signed decimal ('%D').
type CellType int

const (
	Clock CellType = iota
	Binary
	Decimal
)

func (t CellType) String() string {
	switch t {
	case Clock:
		return "clock"
	case Binary:
		return "binary"
	case Decimal:
		return "decimal"
	}
	return "unknown"
}

// Cell is one typed value: the bits of a Binary cell, or the number of a Decimal /
// Clock cell. Tock marks the '+'-suffixed half-phase rows of a .cmp clock column.
type Cell struct {
	Type  CellType
	Bits  []bool
	Value int
	Tock  bool
}

// OutputSpec is one 'name%<B|D|S><pad.width.pad>' entry of a .tst output-list: which
// variable to print, how to type it, and the left-pad/width/right-pad display triplet.
type OutputSpec struct {
	Name     string
	Type     CellType
	PadLeft  int
	Width    int
	PadRight int
}

// Script is one parsed .tst file: the chip to load, the optional output/compare/
// output-list header triplet, and the flattened instruction sequence.
type Script struct {
	Load       string
	OutputFile string
	CompareTo  string
	OutputList []OutputSpec

	Instructions []Instruction
}

// Spec returns the output-list entry for name, if any.
func (s *Script) Spec(name string) (OutputSpec, bool) {
	for _, spec := range s.OutputList {
		if spec.Name == name {
			return spec, true
		}
	}
	return OutputSpec{}, false
}

// Instruction is the tagged variant over the .tst statement set; the runner drives a
// type switch over it.
type Instruction interface{}

type (
	// Set assigns a typed value to a pin named in the output-list.
	Set struct {
		Name  string
		Value Cell
	}

	Tick     struct{} // first clock half-phase
	Tock     struct{} // second clock half-phase
	TickTock struct{} // a full clock cycle
	Eval     struct{} // combinational re-evaluation
	Output   struct{} // append an output-list row to the output file

	// Echo prints its quoted string verbatim.
	Echo struct{ Text string }

	// BeginRepeat opens a 'repeat [n] { ... }' block; Bounded is false for the
	// count-less infinite form.
	BeginRepeat struct {
		Count   int
		Bounded bool
	}
	EndRepeat struct{} // closes the innermost repeat block

	// EndInstruction marks a ';' statement terminator (',' separates steps inside
	// one statement, and emits nothing).
	EndInstruction struct{}
)

// CmpTable is one parsed .cmp file: the column names from the header row and the data
// rows, row-major, each cell typed per the externally supplied column typing.
type CmpTable struct {
	Names []string
	Rows  [][]Cell
}
