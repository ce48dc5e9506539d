package hdl

import (
	"errors"
	"fmt"
	"strconv"

	"n2tcore/pkg/token"
)

// ErrBusWidthMismatch is returned when the two sides of a wiring equation expand to a
// different number of pins ('a[0..3]=b[0..1]').
var ErrBusWidthMismatch = errors.New("hdl: bus width mismatch in wiring equation")

// Parser is a hand-written recursive descent over the HDL grammar:
//
//	CHIP Name { IN pins; OUT pins; PARTS: component* }
//	pins       := pin (',' pin)*
//	pin        := Identifier ('[' Number '..' Number ']')?
//	component  := Identifier '(' eq (',' eq)* ')' ';'
//	eq         := pin '=' pin
//
// Unlike the goparsec-based assembly and VM parsers, HDL needs one token of lookahead
// past every identifier (to see whether a '[' bus slice follows), which an explicit
// token.Stream expresses directly.
type Parser struct {
	stream *token.Stream
}

func NewParser(src []byte) *Parser {
	return &Parser{stream: token.NewStream(NewLexer(src))}
}

// Parse reads chip definitions until the input is exhausted; a single .hdl file may
// define any number of chips.
func Parse(src []byte) ([]ChipDef, error) {
	return NewParser(src).Parse()
}

func (p *Parser) Parse() ([]ChipDef, error) {
	var chips []ChipDef
	for {
		if p.stream.NextIs(EOF) {
			return chips, nil
		}
		chip, err := p.parseChip()
		if err != nil {
			return nil, err
		}
		chips = append(chips, chip)
	}
}

func (p *Parser) parseChip() (ChipDef, error) {
	var chip ChipDef

	if _, err := p.stream.Expect(Chip); err != nil {
		return chip, err
	}
	name, err := p.stream.Expect(Identifier)
	if err != nil {
		return chip, err
	}
	chip.Name = name.Value

	if _, err := p.stream.Expect(OpenBrace); err != nil {
		return chip, err
	}

	if _, err := p.stream.Expect(In); err != nil {
		return chip, err
	}
	if chip.Inputs, err = p.parsePinList(); err != nil {
		return chip, err
	}
	if _, err := p.stream.Expect(Semicolon); err != nil {
		return chip, err
	}

	if _, err := p.stream.Expect(Out); err != nil {
		return chip, err
	}
	if chip.Outputs, err = p.parsePinList(); err != nil {
		return chip, err
	}
	if _, err := p.stream.Expect(Semicolon); err != nil {
		return chip, err
	}

	if _, err := p.stream.Expect(Parts); err != nil {
		return chip, err
	}
	if _, err := p.stream.Expect(Colon); err != nil {
		return chip, err
	}
	for p.stream.NextIs(Identifier) {
		part, err := p.parsePart()
		if err != nil {
			return chip, err
		}
		chip.Parts = append(chip.Parts, part)
	}

	_, err = p.stream.Expect(CloseBrace)
	return chip, err
}

// parsePinList reads 'pin (, pin)*', flattening each bus slice into its single pins.
func (p *Parser) parsePinList() ([]string, error) {
	pins, err := p.parsePin()
	if err != nil {
		return nil, err
	}
	for p.stream.NextIs(Comma) {
		p.stream.Next()
		more, err := p.parsePin()
		if err != nil {
			return nil, err
		}
		pins = append(pins, more...)
	}
	return pins, nil
}

// parsePin reads one pin, expanding 'name[a..b]' to name<a>..name<b> inclusive on both
// ends; a bare identifier yields a single pin.
func (p *Parser) parsePin() ([]string, error) {
	ident, err := p.stream.Expect(Identifier)
	if err != nil {
		return nil, err
	}
	if !p.stream.NextIs(OpenBracket) {
		return []string{ident.Value}, nil
	}

	p.stream.Next()
	start, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	if _, err := p.stream.Expect(DoubleDot); err != nil {
		return nil, err
	}
	end, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	closing, err := p.stream.Expect(CloseBracket)
	if err != nil {
		return nil, err
	}
	if end < start {
		return nil, &token.Error{Pos: closing.Pos, Msg: fmt.Sprintf("hdl: inverted bus range [%d..%d]", start, end)}
	}

	pins := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		pins = append(pins, fmt.Sprintf("%s%d", ident.Value, i))
	}
	return pins, nil
}

func (p *Parser) parseNumber() (int, error) {
	tok, err := p.stream.Expect(Number)
	if err != nil {
		return 0, err
	}
	val, err := strconv.Atoi(tok.Value)
	if err != nil {
		return 0, &token.Error{Pos: tok.Pos, Msg: fmt.Sprintf("hdl: malformed number %q", tok.Value)}
	}
	return val, nil
}

func (p *Parser) parsePart() (Part, error) {
	var part Part

	name, err := p.stream.Expect(Identifier)
	if err != nil {
		return part, err
	}
	part.ChipName = name.Value

	if _, err := p.stream.Expect(OpenParen); err != nil {
		return part, err
	}
	for {
		wires, err := p.parseEq()
		if err != nil {
			return part, err
		}
		part.WireMap = append(part.WireMap, wires...)

		next, err := p.stream.ExpectMulti(Comma, CloseParen)
		if err != nil {
			return part, err
		}
		if next.Is(CloseParen) {
			break
		}
	}

	_, err = p.stream.Expect(Semicolon)
	return part, err
}

// parseEq reads one 'pin = pin' equation; both sides expand and must come out the same
// width, pairing element-wise.
func (p *Parser) parseEq() ([]Assignment, error) {
	lhs, err := p.parsePin()
	if err != nil {
		return nil, err
	}
	eq, err := p.stream.Expect(Equals)
	if err != nil {
		return nil, err
	}
	rhs, err := p.parsePin()
	if err != nil {
		return nil, err
	}

	if len(lhs) != len(rhs) {
		return nil, fmt.Errorf("%w: %d vs %d pins at %s", ErrBusWidthMismatch, len(lhs), len(rhs), eq.Pos)
	}

	wires := make([]Assignment, len(lhs))
	for i := range lhs {
		wires[i] = Assignment{LHS: lhs[i], RHS: rhs[i]}
	}
	return wires, nil
}
