package token_test

import (
	"errors"
	"testing"

	"n2tcore/pkg/token"
)

const (
	kindEOF token.Kind = iota
	kindIdent
	kindNumber
)

// sliceLexer replays a fixed token sequence, then EOF forever.
type sliceLexer struct {
	tokens []token.Token
	next   int
}

func (l *sliceLexer) Next() (token.Token, error) {
	if l.next >= len(l.tokens) {
		return token.Token{Kind: kindEOF}, nil
	}
	tok := l.tokens[l.next]
	l.next++
	return tok, nil
}

func ident(v string, line int) token.Token {
	return token.Token{Kind: kindIdent, Value: v, Pos: token.Position{Line: line}}
}

func number(v string, line int) token.Token {
	return token.Token{Kind: kindNumber, Value: v, Pos: token.Position{Line: line}}
}

func TestStreamPeekNextCurrent(t *testing.T) {
	stream := token.NewStream(&sliceLexer{tokens: []token.Token{ident("a", 1), number("2", 1)}})

	peeked, err := stream.Peek()
	if err != nil || peeked.Value != "a" {
		t.Fatalf("Peek: got %+v (%v)", peeked, err)
	}
	// Peek must not consume: Next returns the same token.
	got, err := stream.Next()
	if err != nil || got.Value != "a" {
		t.Fatalf("Next after Peek: got %+v (%v)", got, err)
	}
	if cur := stream.Current(); cur.Value != "a" {
		t.Errorf("Current: got %+v", cur)
	}

	got, _ = stream.Next()
	if got.Value != "2" {
		t.Errorf("second Next: got %+v", got)
	}
	if next, _ := stream.Next(); !next.Is(kindEOF) {
		t.Errorf("expected EOF, got %+v", next)
	}
}

func TestStreamExpect(t *testing.T) {
	stream := token.NewStream(&sliceLexer{tokens: []token.Token{ident("x", 3), number("7", 3)}})

	// Kind equality ignores the payload: expecting "an identifier" matches any value.
	if _, err := stream.Expect(kindIdent); err != nil {
		t.Fatalf("Expect(kindIdent): %v", err)
	}

	_, err := stream.Expect(kindIdent)
	if err == nil {
		t.Fatal("expected a mismatch error for a number where an identifier was wanted")
	}
	var tokErr *token.Error
	if !errors.As(err, &tokErr) {
		t.Fatalf("expected *token.Error, got %T", err)
	}
	if tokErr.Pos.Line != 3 || tokErr.Got.Value != "7" {
		t.Errorf("error not annotated with the offending token: %+v", tokErr)
	}
}

func TestStreamExpectMulti(t *testing.T) {
	stream := token.NewStream(&sliceLexer{tokens: []token.Token{number("1", 1), ident("y", 1)}})

	if _, err := stream.ExpectMulti(kindIdent, kindNumber); err != nil {
		t.Fatalf("ExpectMulti: %v", err)
	}
	if _, err := stream.ExpectMulti(kindNumber, kindEOF); err == nil {
		t.Fatal("expected a mismatch error for an identifier")
	}
}

func TestTokenIs(t *testing.T) {
	a, b := ident("left", 1), ident("right", 9)
	if !a.Is(b.Kind) {
		t.Error("tokens of the same kind with different payloads must be kind-equal")
	}
	if a == b {
		t.Error("value equality must still distinguish different payloads")
	}
	if !a.IsAny(kindNumber, kindIdent) || a.IsAny(kindNumber, kindEOF) {
		t.Error("IsAny over kind sets misbehaves")
	}
}
