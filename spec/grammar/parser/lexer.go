package parser

import (
	"strings"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

func tracer() tracing.Trace {
	return tracing.Select("lalrkit.spec")
}

type tokenKind string

const (
	tokenKindID            = tokenKind("id")
	tokenKindDirective     = tokenKind("directive")
	tokenKindOrderedSymbol = tokenKind("ordered symbol")
	tokenKindPattern       = tokenKind("pattern")
	tokenKindStringLiteral = tokenKind("string")
	tokenKindColon         = tokenKind(":")
	tokenKindOr            = tokenKind("|")
	tokenKindSemicolon     = tokenKind(";")
	tokenKindLParen        = tokenKind("(")
	tokenKindRParen        = tokenKind(")")
	tokenKindEOF           = tokenKind("eof")
	tokenKindInvalid       = tokenKind("invalid")

	tokenKindUnclosedPattern = tokenKind("unclosed pattern")
	tokenKindUnclosedString  = tokenKind("unclosed string")
)

func (k tokenKind) String() string {
	return string(k)
}

// lexmachine identifies token kinds by integers; an identifier is an index of this slice.
var tokenKinds = []tokenKind{
	tokenKindID,
	tokenKindDirective,
	tokenKindOrderedSymbol,
	tokenKindPattern,
	tokenKindStringLiteral,
	tokenKindColon,
	tokenKindOr,
	tokenKindSemicolon,
	tokenKindLParen,
	tokenKindRParen,
	tokenKindUnclosedPattern,
	tokenKindUnclosedString,
}

type token struct {
	kind tokenKind
	text string
	pos  Position

	// err is set when kind is tokenKindInvalid.
	err *SyntaxError
}

var (
	lexDef     *lexmachine.Lexer
	lexDefErr  error
	lexDefOnce sync.Once
)

func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

func makeToken(id int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(id, string(m.Bytes), m), nil
	}
}

// lexerDefinition compiles the DFA once. Scanners created from it share the DFA.
func lexerDefinition() (*lexmachine.Lexer, error) {
	lexDefOnce.Do(func() {
		patterns := map[tokenKind]string{
			tokenKindID:              `[a-z][a-z0-9_]*`,
			tokenKindDirective:       `#[a-z][a-z0-9_]*`,
			tokenKindOrderedSymbol:   `\$[a-z][a-z0-9_]*`,
			tokenKindPattern:         `"([^"\\\n]|\\[^\n])*"`,
			tokenKindStringLiteral:   `'([^'\\\n]|\\[^\n])*'`,
			tokenKindColon:           `:`,
			tokenKindOr:              `\|`,
			tokenKindSemicolon:       `;`,
			tokenKindLParen:          `\(`,
			tokenKindRParen:          `\)`,
			tokenKindUnclosedPattern: `"([^"\\\n]|\\[^\n])*\\?`,
			tokenKindUnclosedString:  `'([^'\\\n]|\\[^\n])*\\?`,
		}

		lex := lexmachine.NewLexer()
		lex.Add([]byte(`( |\t|\n|\r)+`), skip)
		lex.Add([]byte(`//[^\n]*`), skip)
		for id, kind := range tokenKinds {
			lex.Add([]byte(patterns[kind]), makeToken(id))
		}
		if err := lex.Compile(); err != nil {
			tracer().Errorf("failed to compile the DFA of the grammar lexer: %v", err)
			lexDefErr = err
			return
		}
		lexDef = lex
	})
	return lexDef, lexDefErr
}

type lexer struct {
	s   *lexmachine.Scanner
	src []byte
	eof bool
}

func newLexer(src []byte) (*lexer, error) {
	def, err := lexerDefinition()
	if err != nil {
		return nil, err
	}
	s, err := def.Scanner(src)
	if err != nil {
		return nil, err
	}
	return &lexer{
		s:   s,
		src: src,
	}, nil
}

func (l *lexer) next() (*token, error) {
	if l.eof {
		return &token{
			kind: tokenKindEOF,
		}, nil
	}

	tok, err, eof := l.s.Next()
	if err != nil {
		ui, ok := err.(*machines.UnconsumedInput)
		if !ok {
			return nil, err
		}
		// Skip the offending input so that the next call can continue.
		tc := ui.FailTC
		if tc <= ui.StartTC {
			tc = ui.StartTC + 1
		}
		if tc > len(l.src) {
			tc = len(l.src)
		}
		l.s.TC = tc
		return &token{
			kind: tokenKindInvalid,
			text: string(l.src[ui.StartTC:tc]),
			pos:  newPosition(ui.StartLine, ui.StartColumn),
			err:  synErrInvalidToken,
		}, nil
	}
	if eof {
		l.eof = true
		return &token{
			kind: tokenKindEOF,
		}, nil
	}

	t := tok.(*lexmachine.Token)
	return newToken(tokenKinds[t.Type], string(t.Lexeme), newPosition(t.StartLine, t.StartColumn)), nil
}

func newToken(kind tokenKind, lexeme string, pos Position) *token {
	tok := &token{
		kind: kind,
		text: lexeme,
		pos:  pos,
	}
	invalid := func(err *SyntaxError) *token {
		tok.kind = tokenKindInvalid
		tok.err = err
		return tok
	}

	switch kind {
	case tokenKindUnclosedPattern:
		if endsWithBackslash(lexeme) {
			return invalid(synErrIncompletedEscSeq)
		}
		return invalid(synErrUnclosedPattern)
	case tokenKindUnclosedString:
		if endsWithBackslash(lexeme) {
			return invalid(synErrIncompletedEscSeq)
		}
		return invalid(synErrUnclosedString)
	case tokenKindPattern:
		// Escape sequences other than \" are left to the lexer generator.
		tok.text = strings.ReplaceAll(lexeme[1:len(lexeme)-1], `\"`, `"`)
		if tok.text == "" {
			return invalid(synErrEmptyPattern)
		}
	case tokenKindStringLiteral:
		tok.text = unescapeString(lexeme[1 : len(lexeme)-1])
		if tok.text == "" {
			return invalid(synErrEmptyString)
		}
	case tokenKindDirective, tokenKindOrderedSymbol:
		tok.text = lexeme[1:]
	}
	return tok
}

// unescapeString interprets \' and \\. Other backslashes are kept as they are.
func unescapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\'' || s[i+1] == '\\') {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// endsWithBackslash reports whether s ends with a backslash that escapes nothing.
func endsWithBackslash(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}
