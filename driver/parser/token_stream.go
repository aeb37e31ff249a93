package parser

import (
	"fmt"
	"io"
	"unicode/utf8"

	mldriver "github.com/nihei9/maleeni/driver"

	spec "github.com/nihei9/lalrkit/spec/grammar"
)

// Span is a byte range [Start, End) of the input.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Span) Len() int {
	return s.End - s.Start
}

// union returns the smallest span covering s and t.
func (s Span) union(t Span) Span {
	u := s
	if t.Start < u.Start {
		u.Start = t.Start
	}
	if t.End > u.End {
		u.End = t.End
	}
	return u
}

type VToken interface {
	// TerminalID returns a terminal number. An invalid token has the error terminal.
	TerminalID() int

	Lexeme() []byte
	EOF() bool
	Invalid() bool

	// Position returns a 1-based row and column.
	Position() (int, int)

	Span() Span
}

type TokenStream interface {
	Next() (VToken, error)
}

type vToken struct {
	terminalID int
	tok        *mldriver.Token
	row        int
	col        int
	span       Span
}

func (t *vToken) TerminalID() int {
	return t.terminalID
}

func (t *vToken) Lexeme() []byte {
	return t.tok.Lexeme
}

func (t *vToken) EOF() bool {
	return t.tok.EOF
}

func (t *vToken) Invalid() bool {
	return t.tok.Invalid
}

func (t *vToken) Position() (int, int) {
	return t.row + 1, t.col + 1
}

func (t *vToken) Span() Span {
	return t.span
}

type tokenStream struct {
	lex            *mldriver.Lexer
	kindToTerminal []int
	skip           []int
	eofTerminal    int
	errTerminal    int
	offset         int

	// row and col are the 0-based position following the last lexeme.
	row int
	col int
}

// NewTokenStream returns a token stream running the lexer compiled into g. Tokens of skipped
// terminals never reach the parser.
func NewTokenStream(g *spec.CompiledGrammar, src io.Reader) (TokenStream, error) {
	if g.Lexical == nil || g.Lexical.Maleeni == nil {
		return nil, fmt.Errorf("grammar '%v' has no lexical specification", g.Name)
	}
	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(g.Lexical.Maleeni.Spec), src)
	if err != nil {
		return nil, err
	}

	return &tokenStream{
		lex:            lex,
		kindToTerminal: g.Lexical.Maleeni.KindToTerminal,
		skip:           g.Lexical.Maleeni.Skip,
		eofTerminal:    g.Syntactic.EOFSymbol,
		errTerminal:    g.Syntactic.ErrorSymbol,
	}, nil
}

func (s *tokenStream) Next() (VToken, error) {
	for {
		tok, err := s.lex.Next()
		if err != nil {
			return nil, err
		}
		span := Span{
			Start: s.offset,
			End:   s.offset + len(tok.Lexeme),
		}
		s.offset = span.End
		row, col := tok.Row, tok.Col
		if tok.EOF {
			// The lexer does not locate <eof>.
			row, col = s.row, s.col
		} else {
			s.advance(row, col, tok.Lexeme)
		}

		if !tok.EOF && !tok.Invalid && s.skip[tok.KindID] > 0 {
			continue
		}

		var term int
		switch {
		case tok.EOF:
			term = s.eofTerminal
		case tok.Invalid:
			term = s.errTerminal
		default:
			term = s.kindToTerminal[tok.KindID]
		}
		return &vToken{
			terminalID: term,
			tok:        tok,
			row:        row,
			col:        col,
			span:       span,
		}, nil
	}
}

// advance moves the position past a lexeme starting at (row, col).
func (s *tokenStream) advance(row, col int, lexeme []byte) {
	for len(lexeme) > 0 {
		r, n := utf8.DecodeRune(lexeme)
		lexeme = lexeme[n:]
		if r == '\n' {
			row++
			col = 0
			continue
		}
		col++
	}
	s.row, s.col = row, col
}

// Token is a token a caller builds without a lexer.
type Token struct {
	Terminal int
	Text     string

	// Row and Col are 1-based.
	Row int
	Col int

	// Start is the byte offset of the token. The span ends at Start+len(Text).
	Start int

	eof     bool
	invalid bool
}

// NewInvalidToken returns a token a lexer could not classify. The parser treats it as the error
// terminal.
func NewInvalidToken(errTerminal int, text string, row, col, start int) *Token {
	return &Token{
		Terminal: errTerminal,
		Text:     text,
		Row:      row,
		Col:      col,
		Start:    start,
		invalid:  true,
	}
}

func (t *Token) TerminalID() int {
	return t.Terminal
}

func (t *Token) Lexeme() []byte {
	return []byte(t.Text)
}

func (t *Token) EOF() bool {
	return t.eof
}

func (t *Token) Invalid() bool {
	return t.invalid
}

func (t *Token) Position() (int, int) {
	return t.Row, t.Col
}

func (t *Token) Span() Span {
	return Span{
		Start: t.Start,
		End:   t.Start + len(t.Text),
	}
}

type sliceTokenStream struct {
	toks        []*Token
	eofTerminal int
	next        int
}

// NewSliceTokenStream returns a stream yielding toks and then the end-of-input token forever.
func NewSliceTokenStream(eofTerminal int, toks []*Token) TokenStream {
	return &sliceTokenStream{
		toks:        toks,
		eofTerminal: eofTerminal,
	}
}

func (s *sliceTokenStream) Next() (VToken, error) {
	if s.next < len(s.toks) {
		tok := s.toks[s.next]
		s.next++
		return tok, nil
	}
	eof := &Token{
		Terminal: s.eofTerminal,
		eof:      true,
	}
	if len(s.toks) > 0 {
		last := s.toks[len(s.toks)-1]
		eof.Row = last.Row
		eof.Col = last.Col + len(last.Text)
		eof.Start = last.Span().End
	}
	return eof, nil
}
