package parser

import (
	"fmt"
	"strings"
)

type SyntaxErrorKind string

const (
	// SyntaxErrorKindUnexpected means the parser discarded a token it could not act on.
	SyntaxErrorKindUnexpected = SyntaxErrorKind("unexpected")

	// SyntaxErrorKindMissing means the parser inserted a terminal the input lacked.
	SyntaxErrorKindMissing = SyntaxErrorKind("missing")
)

type SyntaxError struct {
	Kind SyntaxErrorKind
	Row  int
	Col  int
	Span Span

	// Token is the offending token. For a missing terminal, it is the token the inserted terminal
	// precedes.
	Token VToken

	// Terminal is the name of the inserted terminal when Kind is SyntaxErrorKindMissing.
	// TerminalAlias is its text when the terminal is a literal.
	Terminal      string
	TerminalAlias string

	ExpectedTerminals []string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	switch e.Kind {
	case SyntaxErrorKindMissing:
		fmt.Fprintf(&b, "%v:%v: missing %v", e.Row, e.Col, e.Terminal)
		if e.TerminalAlias != "" {
			fmt.Fprintf(&b, " %q", e.TerminalAlias)
		}
	default:
		switch {
		case e.Token == nil:
			fmt.Fprintf(&b, "%v:%v: unexpected token", e.Row, e.Col)
		case e.Token.EOF():
			fmt.Fprintf(&b, "%v:%v: unexpected <eof>", e.Row, e.Col)
		case e.Token.Invalid():
			fmt.Fprintf(&b, "%v:%v: invalid token %q", e.Row, e.Col, e.Token.Lexeme())
		default:
			fmt.Fprintf(&b, "%v:%v: unexpected token %q", e.Row, e.Col, e.Token.Lexeme())
		}
	}
	if len(e.ExpectedTerminals) > 0 {
		fmt.Fprintf(&b, "; expected: %v", strings.Join(e.ExpectedTerminals, ", "))
	}
	return b.String()
}
