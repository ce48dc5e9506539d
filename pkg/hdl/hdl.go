// Package hdl parses Hack hardware-description files (.hdl) into netlist chip
// definitions with bus-range expansion. The gate-level simulator that evaluates the
// resulting netlists is a consumer of this package, not part of it.
package hdl

// ChipDef is one CHIP block: its name, the ordered input and output pin lists, and the
// ordered component instantiations under PARTS. A pin list that used bus-slice syntax
// ('in[0..3]') arrives here already expanded to individual pins.
type ChipDef struct {
	Name    string
	Inputs  []string
	Outputs []string
	Parts   []Part
}

// Part is a single instantiation of another chip, wired to the enclosing chip's
// signals by an ordered list of pin assignments.
type Part struct {
	ChipName string
	WireMap  []Assignment
}

// Assignment is one 'lhs=rhs' wiring equation: LHS names a pin of the instantiated
// chip, RHS the signal of the enclosing chip it connects to. Bus slices expand before
// this point, so both sides are always single pins; an equation whose two sides expand
// to different widths never produces Assignments at all (ErrBusWidthMismatch).
type Assignment struct {
	LHS string
	RHS string
}
