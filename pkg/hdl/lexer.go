package hdl

import (
	"n2tcore/pkg/token"
)

// The HDL token kinds. Keywords get their own kinds (rather than staying generic
// identifiers) so the parser's Expect calls read like the grammar.
const (
	EOF token.Kind = iota

	Chip  // 'CHIP'
	In    // 'IN'
	Out   // 'OUT'
	Parts // 'PARTS'

	OpenBrace    // '{'
	CloseBrace   // '}'
	OpenParen    // '('
	CloseParen   // ')'
	OpenBracket  // '['
	CloseBracket // ']'

	Comma     // ','
	Semicolon // ';'
	Equals    // '='
	DoubleDot // '..'
	Colon     // ':'

	Identifier // [A-Za-z_$][A-Za-z0-9_$]*
	Number     // [0-9]+
)

var keywords = map[string]token.Kind{
	"CHIP": Chip, "IN": In, "OUT": Out, "PARTS": Parts,
}

var punctuation = map[byte]token.Kind{
	'{': OpenBrace, '}': CloseBrace, '(': OpenParen, ')': CloseParen,
	'[': OpenBracket, ']': CloseBracket,
	',': Comma, ';': Semicolon, '=': Equals, ':': Colon,
}

// Lexer tokenizes HDL source on top of the shared token.Scanner; whitespace and both
// comment forms are skipped between tokens.
type Lexer struct {
	scanner *token.Scanner
}

func NewLexer(src []byte) *Lexer {
	return &Lexer{scanner: token.NewScanner(src)}
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Next returns the next token, or an EOF-kind token once the input is exhausted.
func (l *Lexer) Next() (token.Token, error) {
	l.scanner.SkipWhitespaceAndComments()
	pos := l.scanner.Position()

	if l.scanner.AtEnd() {
		return token.Token{Kind: EOF, Pos: pos}, nil
	}

	c := l.scanner.Peek()
	switch {
	case c == '.' && l.scanner.PeekAt(1) == '.':
		l.scanner.Advance()
		l.scanner.Advance()
		pos.Length = 2
		return token.Token{Kind: DoubleDot, Value: "..", Pos: pos}, nil

	case isIdentStart(c):
		word := l.scanner.ScanWhile(isIdentPart)
		pos.Length = len(word)
		if kind, found := keywords[word]; found {
			return token.Token{Kind: kind, Value: word, Pos: pos}, nil
		}
		return token.Token{Kind: Identifier, Value: word, Pos: pos}, nil

	case isDigit(c):
		digits := l.scanner.ScanWhile(isDigit)
		pos.Length = len(digits)
		return token.Token{Kind: Number, Value: digits, Pos: pos}, nil
	}

	if kind, found := punctuation[c]; found {
		l.scanner.Advance()
		pos.Length = 1
		return token.Token{Kind: kind, Value: string(c), Pos: pos}, nil
	}

	pos.Length = 1
	return token.Token{Pos: pos}, &token.Error{Pos: pos, Msg: "hdl: unrecognized character " + string(c)}
}
