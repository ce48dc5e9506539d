// Package token provides a generic token-stream abstraction shared by the HDL and
// test-script parsers (pkg/hdl, pkg/testscript). The assembly and VM parsers instead
// drive goparsec combinators directly; this package exists for the two languages that
// need explicit lookahead (HDL's 'name[a..b]' bus slices) and read more naturally as
// hand-written recursive descent over an explicit stream.
package token

import "fmt"

// Kind identifies a token's grammar role. Each consumer package (hdl, testscript)
// defines its own small set of Kind constants via iota.
//
// Because a Token separates Kind from its payload (Value), "same kind regardless of
// payload" is just comparing the Kind field. See Token.Is.
type Kind int

// Position locates a token in the source text for error reporting.
type Position struct {
	Line   int // 1-based line number
	Offset int // 0-based byte offset from the start of input
	Length int // length in bytes of the token's lexeme
}

func (p Position) String() string {
	return fmt.Sprintf("line %d (byte %d)", p.Line, p.Offset)
}

// Token is one lexeme: its grammar Kind, the raw text it matched, and its Position.
type Token struct {
	Kind  Kind
	Value string
	Pos   Position
}

// Is reports whether t belongs to the given Kind, ignoring Value. Kept as a named
// predicate (rather than overloading equality) so value equality stays usable.
func (t Token) Is(kind Kind) bool { return t.Kind == kind }

// IsAny reports whether t belongs to any of the given Kinds.
func (t Token) IsAny(kinds ...Kind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}

// Error is a position-annotated lex/parse failure.
type Error struct {
	Pos      Position
	Expected []Kind
	Got      Token
	Msg      string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s at %s", e.Msg, e.Pos)
	}
	if len(e.Expected) == 1 {
		return fmt.Sprintf("expected token kind %v but got %v (%q) at %s", e.Expected[0], e.Got.Kind, e.Got.Value, e.Pos)
	}
	return fmt.Sprintf("expected one of %v but got %v (%q) at %s", e.Expected, e.Got.Kind, e.Got.Value, e.Pos)
}
