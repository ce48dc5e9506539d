package token

// Scanner walks a byte slice tracking line/offset, the raw plumbing shared by every
// hand-written lexer in this module (pkg/hdl, pkg/testscript). It intentionally knows
// nothing about any particular grammar's token Kinds.
type Scanner struct {
	src    []byte
	offset int
	line   int
}

func NewScanner(src []byte) *Scanner {
	return &Scanner{src: src, line: 1}
}

func (s *Scanner) AtEnd() bool { return s.offset >= len(s.src) }

// Peek returns the byte at the current offset without consuming it, or 0 at EOF.
func (s *Scanner) Peek() byte {
	if s.AtEnd() {
		return 0
	}
	return s.src[s.offset]
}

// PeekAt returns the byte 'n' positions ahead of the current offset, or 0 past EOF.
func (s *Scanner) PeekAt(n int) byte {
	if s.offset+n >= len(s.src) {
		return 0
	}
	return s.src[s.offset+n]
}

// Advance consumes and returns the current byte, tracking \n and \r\n uniformly.
func (s *Scanner) Advance() byte {
	c := s.src[s.offset]
	s.offset++
	if c == '\n' {
		s.line++
	} else if c == '\r' && s.Peek() == '\n' {
		// Count the pair as a single line ending: the '\n' branch above will not
		// fire for this '\r', so the upcoming '\n' increments the line exactly once.
	}
	return c
}

func (s *Scanner) Position() Position {
	return Position{Line: s.line, Offset: s.offset}
}

// SkipWhitespaceAndComments consumes spaces, tabs, CR/LF, '// ...' line comments and
// '/* ... */' block comments, uniformly across the scanner's underlying grammars.
func (s *Scanner) SkipWhitespaceAndComments() {
	for !s.AtEnd() {
		switch c := s.Peek(); {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.Advance()
		case c == '/' && s.PeekAt(1) == '/':
			for !s.AtEnd() && s.Peek() != '\n' {
				s.Advance()
			}
		case c == '/' && s.PeekAt(1) == '*':
			s.Advance()
			s.Advance()
			for !s.AtEnd() && !(s.Peek() == '*' && s.PeekAt(1) == '/') {
				s.Advance()
			}
			if !s.AtEnd() {
				s.Advance()
				s.Advance()
			}
		default:
			return
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool {
	return c == '_' || c == '$' || c == '.' || c == ':' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isAlphaNum(c byte) bool { return isAlpha(c) || isDigit(c) }

// ScanWhile consumes and returns bytes while pred holds, starting at the current offset.
func (s *Scanner) ScanWhile(pred func(byte) bool) string {
	start := s.offset
	for !s.AtEnd() && pred(s.Peek()) {
		s.Advance()
	}
	return string(s.src[start:s.offset])
}
