package testscript

import (
	"n2tcore/pkg/token"
)

// The .tst token kinds. Most of the language is bare words (keywords, file paths,
// output-list specs, B%1010-style literals all lex as Word); structure comes from the
// four delimiters plus quoted strings and plain numbers.
const (
	EOF token.Kind = iota

	Comma      // ','
	Semicolon  // ';'
	OpenBrace  // '{'
	CloseBrace // '}'

	Word   // bare word: keywords, paths, output-list specs, binary literals
	Quoted // "double quoted string" (echo argument)
	Number // [0-9]+ or -[0-9]+
)

// isWordPart covers everything a bare .tst word can contain: identifier characters,
// '%' (output-list specs and B%… literals), '.' (triplets and file extensions), '-'
// (the output-file/compare-to keywords) and '/' (relative paths).
func isWordPart(c byte) bool {
	return c == '_' || c == '$' || c == '%' || c == '.' || c == '-' || c == '/' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Lexer tokenizes .tst source on top of the shared token.Scanner.
type Lexer struct {
	scanner *token.Scanner
}

func NewLexer(src []byte) *Lexer {
	return &Lexer{scanner: token.NewScanner(src)}
}

// Next returns the next token, or an EOF-kind token once the input is exhausted.
func (l *Lexer) Next() (token.Token, error) {
	l.scanner.SkipWhitespaceAndComments()
	pos := l.scanner.Position()

	if l.scanner.AtEnd() {
		return token.Token{Kind: EOF, Pos: pos}, nil
	}

	switch c := l.scanner.Peek(); c {
	case ',':
		l.scanner.Advance()
		pos.Length = 1
		return token.Token{Kind: Comma, Value: ",", Pos: pos}, nil
	case ';':
		l.scanner.Advance()
		pos.Length = 1
		return token.Token{Kind: Semicolon, Value: ";", Pos: pos}, nil
	case '{':
		l.scanner.Advance()
		pos.Length = 1
		return token.Token{Kind: OpenBrace, Value: "{", Pos: pos}, nil
	case '}':
		l.scanner.Advance()
		pos.Length = 1
		return token.Token{Kind: CloseBrace, Value: "}", Pos: pos}, nil
	case '"':
		return l.quoted(pos)
	}

	if c := l.scanner.Peek(); isWordPart(c) {
		word := l.scanner.ScanWhile(isWordPart)
		pos.Length = len(word)
		if isNumeric(word) {
			return token.Token{Kind: Number, Value: word, Pos: pos}, nil
		}
		return token.Token{Kind: Word, Value: word, Pos: pos}, nil
	}

	pos.Length = 1
	return token.Token{Pos: pos}, &token.Error{Pos: pos, Msg: "testscript: unrecognized character " + string(l.scanner.Peek())}
}

// quoted reads a '"'-delimited string, returning its unquoted contents.
func (l *Lexer) quoted(pos token.Position) (token.Token, error) {
	l.scanner.Advance()
	start := l.scanner.Position()

	var text []byte
	for !l.scanner.AtEnd() && l.scanner.Peek() != '"' {
		text = append(text, l.scanner.Advance())
	}
	if l.scanner.AtEnd() {
		return token.Token{Pos: pos}, &token.Error{Pos: start, Msg: "testscript: unterminated string literal"}
	}
	l.scanner.Advance()

	pos.Length = len(text) + 2
	return token.Token{Kind: Quoted, Value: string(text), Pos: pos}, nil
}

// isNumeric reports whether a word is all digits (with an optional leading '-'), which
// promotes it from Word to Number.
func isNumeric(word string) bool {
	if word == "" || word == "-" {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] == '-' && i == 0 {
			continue
		}
		if word[i] < '0' || word[i] > '9' {
			return false
		}
	}
	return true
}
