package testscript

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"n2tcore/pkg/token"
	"n2tcore/pkg/utils"
)

// ErrUnknownOutput is returned by 'set' when the variable does not appear in the
// script's output-list (or the script has none).
var ErrUnknownOutput = errors.New("testscript: set against unknown output-list name")

// ErrTypeMismatch is returned when a literal's shape does not match the declared
// output-list type of the variable it is assigned to.
var ErrTypeMismatch = errors.New("testscript: literal kind does not match declared type")

// Parser is a hand-written recursive descent over the .tst grammar, sharing the
// token.Stream plumbing with pkg/hdl.
type Parser struct {
	stream *token.Stream
	script Script
}

func NewParser(src []byte) *Parser {
	return &Parser{stream: token.NewStream(NewLexer(src))}
}

// ParseTst parses a .tst script: the 'load path[, output-file path, compare-to path,
// output-list specs]' header followed by comma/semicolon-punctuated instructions and
// 'repeat [n] { ... }' blocks.
func ParseTst(src []byte) (*Script, error) {
	return NewParser(src).Parse()
}

func (p *Parser) Parse() (*Script, error) {
	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	if err := p.parseInstructions(); err != nil {
		return nil, err
	}
	return &p.script, nil
}

func (p *Parser) parseHeader() error {
	if err := p.expectWord("load"); err != nil {
		return err
	}
	load, err := p.word()
	if err != nil {
		return err
	}
	p.script.Load = load

	// The bare 'load path;' form carries no output/compare header.
	if !p.stream.NextIs(Comma) {
		_, err := p.stream.Expect(Semicolon)
		return err
	}
	p.stream.Next()

	if err := p.expectWord("output-file"); err != nil {
		return err
	}
	if p.script.OutputFile, err = p.word(); err != nil {
		return err
	}
	if _, err := p.stream.Expect(Comma); err != nil {
		return err
	}

	if err := p.expectWord("compare-to"); err != nil {
		return err
	}
	if p.script.CompareTo, err = p.word(); err != nil {
		return err
	}
	if _, err := p.stream.Expect(Comma); err != nil {
		return err
	}

	if err := p.expectWord("output-list"); err != nil {
		return err
	}
	for p.stream.NextIs(Word) {
		spec, err := p.parseOutputSpec()
		if err != nil {
			return err
		}
		p.script.OutputList = append(p.script.OutputList, spec)
	}
	_, err = p.stream.Expect(Semicolon)
	return err
}

// parseOutputSpec splits one 'name%<B|D|S><a.b.c>' word into an OutputSpec.
func (p *Parser) parseOutputSpec() (OutputSpec, error) {
	tok, err := p.stream.Expect(Word)
	if err != nil {
		return OutputSpec{}, err
	}

	name, format, found := strings.Cut(tok.Value, "%")
	if !found || format == "" {
		return OutputSpec{}, &token.Error{Pos: tok.Pos, Msg: fmt.Sprintf("testscript: malformed output-list entry %q", tok.Value)}
	}

	spec := OutputSpec{Name: name}
	switch format[0] {
	case 'B':
		spec.Type = Binary
	case 'D':
		spec.Type = Decimal
	case 'S':
		spec.Type = Clock
	default:
		return OutputSpec{}, &token.Error{Pos: tok.Pos, Msg: fmt.Sprintf("testscript: expected B, D or S in %q", tok.Value)}
	}

	triplet := strings.Split(format[1:], ".")
	if len(triplet) != 3 {
		return OutputSpec{}, &token.Error{Pos: tok.Pos, Msg: fmt.Sprintf("testscript: expected a pad.width.pad triplet in %q", tok.Value)}
	}
	dims := [3]*int{&spec.PadLeft, &spec.Width, &spec.PadRight}
	for i, dim := range triplet {
		val, err := strconv.Atoi(dim)
		if err != nil {
			return OutputSpec{}, &token.Error{Pos: tok.Pos, Msg: fmt.Sprintf("testscript: malformed triplet in %q", tok.Value)}
		}
		*dims[i] = val
	}

	return spec, nil
}

func (p *Parser) parseInstructions() error {
	// Open repeat blocks, tracked so that an unbalanced '}' (or a repeat left open at
	// EOF) fails with the position of the offending token rather than downstream.
	repeats := utils.NewStack[token.Position]()

	for {
		if p.stream.NextIs(EOF) {
			if repeats.Count() > 0 {
				open, _ := repeats.Top()
				return &token.Error{Pos: open, Msg: "testscript: repeat block is never closed"}
			}
			return nil
		}

		if p.stream.NextIs(CloseBrace) {
			closing, _ := p.stream.Next()
			if _, err := repeats.Pop(); err != nil {
				return &token.Error{Pos: closing.Pos, Msg: "testscript: '}' without a matching repeat"}
			}
			p.emit(EndRepeat{})
			continue
		}

		tok, err := p.stream.Expect(Word)
		if err != nil {
			return err
		}

		repeat := false
		switch tok.Value {
		case "tick":
			p.emit(Tick{})
		case "tock":
			p.emit(Tock{})
		case "ticktock":
			p.emit(TickTock{})
		case "eval":
			p.emit(Eval{})
		case "output":
			p.emit(Output{})
		case "echo":
			quoted, err := p.stream.Expect(Quoted)
			if err != nil {
				return err
			}
			p.emit(Echo{Text: quoted.Value})
		case "repeat":
			if err := p.parseRepeat(); err != nil {
				return err
			}
			repeats.Push(tok.Pos)
			repeat = true
		case "set":
			if err := p.parseSet(); err != nil {
				return err
			}
		default:
			return &token.Error{Pos: tok.Pos, Msg: fmt.Sprintf("testscript: unrecognized instruction %q", tok.Value)}
		}

		// ',' chains steps inside one statement; ';' ends the statement. A repeat
		// block's '{' takes neither.
		if repeat {
			continue
		}
		next, err := p.stream.ExpectMulti(Comma, Semicolon)
		if err != nil {
			return err
		}
		if next.Is(Semicolon) {
			p.emit(EndInstruction{})
		}
	}
}

func (p *Parser) parseRepeat() error {
	begin := BeginRepeat{}
	if p.stream.NextIs(Number) {
		count, err := p.number()
		if err != nil {
			return err
		}
		begin.Count, begin.Bounded = count, true
	}
	if _, err := p.stream.Expect(OpenBrace); err != nil {
		return err
	}
	p.emit(begin)
	return nil
}

// parseSet reads 'set <var> <value>', cross-checking the variable against the
// output-list and the literal's shape against its declared type.
func (p *Parser) parseSet() error {
	name, err := p.stream.Expect(Word)
	if err != nil {
		return err
	}
	spec, found := p.script.Spec(name.Value)
	if !found {
		return fmt.Errorf("%w: %q at %s", ErrUnknownOutput, name.Value, name.Pos)
	}

	value, err := p.parseValue(spec)
	if err != nil {
		return err
	}
	p.emit(Set{Name: name.Value, Value: value})
	return nil
}

func (p *Parser) parseValue(spec OutputSpec) (Cell, error) {
	switch spec.Type {
	case Decimal:
		val, err := p.number()
		if err != nil {
			return Cell{}, err
		}
		return Cell{Type: Decimal, Value: val}, nil

	case Binary:
		// Either a bare 0/1 or a 'B%1010...' bit-string literal.
		tok, err := p.stream.ExpectMulti(Number, Word)
		if err != nil {
			return Cell{}, err
		}
		if tok.Is(Number) {
			switch tok.Value {
			case "0":
				return Cell{Type: Binary, Bits: []bool{false}}, nil
			case "1":
				return Cell{Type: Binary, Bits: []bool{true}}, nil
			}
			return Cell{}, fmt.Errorf("%w: %q is not a binary literal at %s", ErrTypeMismatch, tok.Value, tok.Pos)
		}
		if !strings.HasPrefix(tok.Value, "B%") {
			return Cell{}, fmt.Errorf("%w: binary literal %q must start with B%% at %s", ErrTypeMismatch, tok.Value, tok.Pos)
		}
		bits, err := ParseBits(tok.Value[2:])
		if err != nil {
			return Cell{}, fmt.Errorf("%w: %s at %s", ErrTypeMismatch, err, tok.Pos)
		}
		return Cell{Type: Binary, Bits: bits}, nil

	case Clock:
		// The clock column is driven by tick/tock, never assigned directly.
		return Cell{}, fmt.Errorf("%w: %q is clock-typed and cannot be set", ErrTypeMismatch, spec.Name)
	}
	return Cell{}, fmt.Errorf("testscript: unknown output type %v", spec.Type)
}

func (p *Parser) emit(inst Instruction) {
	p.script.Instructions = append(p.script.Instructions, inst)
}

func (p *Parser) expectWord(keyword string) error {
	tok, err := p.stream.Expect(Word)
	if err != nil {
		return err
	}
	if tok.Value != keyword {
		return &token.Error{Pos: tok.Pos, Msg: fmt.Sprintf("testscript: expected %q but got %q", keyword, tok.Value)}
	}
	return nil
}

func (p *Parser) word() (string, error) {
	tok, err := p.stream.Expect(Word)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

func (p *Parser) number() (int, error) {
	tok, err := p.stream.Expect(Number)
	if err != nil {
		return 0, err
	}
	val, err := strconv.Atoi(tok.Value)
	if err != nil {
		return 0, &token.Error{Pos: tok.Pos, Msg: fmt.Sprintf("testscript: malformed number %q", tok.Value)}
	}
	return val, nil
}

// ParseBits decodes a '0'/'1' string into bits, most significant first.
func ParseBits(s string) ([]bool, error) {
	bits := make([]bool, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			bits = append(bits, false)
		case '1':
			bits = append(bits, true)
		default:
			return nil, fmt.Errorf("unexpected character %q, expected '0' or '1'", s[i])
		}
	}
	return bits, nil
}

// ParseCmp parses a .cmp comparison file: a pipe-delimited table whose first row names
// the columns and whose cells are typed by the externally supplied header (one
// CellType per column, in order). A trailing '+' marks a clock cell's tock half-phase.
func ParseCmp(text string, header []CellType) (*CmpTable, error) {
	table := &CmpTable{}

	for lineNo, raw := range strings.Split(text, "\n") {
		if !strings.Contains(raw, "|") {
			continue
		}
		line := strings.NewReplacer(" ", "", "\t", "", "\r", "").Replace(raw)

		cells := []string{}
		for _, cell := range strings.Split(line, "|") {
			if cell != "" {
				cells = append(cells, cell)
			}
		}

		if table.Names == nil {
			if len(cells) != len(header) {
				return nil, fmt.Errorf("testscript: line %d: %d columns but %d header types", lineNo+1, len(cells), len(header))
			}
			table.Names = cells
			continue
		}

		if len(cells) != len(table.Names) {
			return nil, fmt.Errorf("testscript: line %d: expected %d cells, got %d", lineNo+1, len(table.Names), len(cells))
		}

		row := make([]Cell, len(cells))
		for i, cell := range cells {
			typed, err := parseCmpCell(cell, header[i])
			if err != nil {
				return nil, fmt.Errorf("testscript: line %d: %w", lineNo+1, err)
			}
			row[i] = typed
		}
		table.Rows = append(table.Rows, row)
	}

	if table.Names == nil {
		return nil, fmt.Errorf("testscript: no table rows found")
	}
	return table, nil
}

func parseCmpCell(text string, kind CellType) (Cell, error) {
	cell := Cell{Type: kind}

	if strings.HasSuffix(text, "+") {
		cell.Tock = true
		text = text[:len(text)-1]
	}

	switch kind {
	case Clock, Decimal:
		val, err := strconv.Atoi(text)
		if err != nil {
			return cell, fmt.Errorf("%q is not a %s value", text, kind)
		}
		cell.Value = val
	case Binary:
		bits, err := ParseBits(text)
		if err != nil {
			return cell, err
		}
		cell.Bits = bits
	}
	return cell, nil
}
