package token

// Lexer produces one Token at a time. Next returns an io.EOF-flavored sentinel Token
// (its Kind is whatever the caller's grammar designates as EOF) once input is exhausted;
// implementations are expected to have already skipped whitespace/comments (see Scanner).
type Lexer interface {
	Next() (Token, error)
}

// Stream wraps a Lexer with a peek/next/current/expect surface: Next advances and
// returns the next token; Peek returns it without consuming; Current replays the last
// token Next produced; Expect/ExpectMulti consume and fail with a position-annotated
// error on a Kind mismatch.
type Stream struct {
	lex     Lexer
	current Token
	peeked  *Token
	peekErr error
}

func NewStream(lex Lexer) *Stream {
	return &Stream{lex: lex}
}

// Next advances the stream and returns the next token.
func (s *Stream) Next() (Token, error) {
	if s.peeked != nil {
		tok, err := *s.peeked, s.peekErr
		s.peeked, s.peekErr = nil, nil
		s.current = tok
		return tok, err
	}
	tok, err := s.lex.Next()
	if err != nil {
		return tok, err
	}
	s.current = tok
	return tok, nil
}

// Peek returns the next token without consuming it.
func (s *Stream) Peek() (Token, error) {
	if s.peeked == nil {
		tok, err := s.lex.Next()
		s.peeked, s.peekErr = &tok, err
	}
	return *s.peeked, s.peekErr
}

// Current returns the last token returned by Next.
func (s *Stream) Current() Token { return s.current }

// Expect consumes the next token, failing if its Kind does not match.
func (s *Stream) Expect(kind Kind) (Token, error) {
	tok, err := s.Next()
	if err != nil {
		return tok, err
	}
	if !tok.Is(kind) {
		return tok, &Error{Pos: tok.Pos, Expected: []Kind{kind}, Got: tok}
	}
	return tok, nil
}

// ExpectMulti consumes the next token, failing unless its Kind is one of kinds.
func (s *Stream) ExpectMulti(kinds ...Kind) (Token, error) {
	tok, err := s.Next()
	if err != nil {
		return tok, err
	}
	if !tok.IsAny(kinds...) {
		return tok, &Error{Pos: tok.Pos, Expected: kinds, Got: tok}
	}
	return tok, nil
}

// NextIs reports (without consuming) whether the upcoming token has the given Kind.
func (s *Stream) NextIs(kind Kind) bool {
	tok, err := s.Peek()
	return err == nil && tok.Is(kind)
}
