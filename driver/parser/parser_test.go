package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestParser_Parse_SyntaxTree(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lalrkit.parser")
	defer teardown()

	num := func(text string) *Node {
		return nonTermNode("expr", termNode("num", text))
	}

	tests := []struct {
		caption string
		src     string
		tree    *Node
	}{
		{
			caption: "a left-associative operator groups to the left",
			src:     "1+2+3",
			tree: nonTermNode("expr",
				nonTermNode("expr",
					num("1"),
					termNode("add", "+"),
					num("2"),
				),
				termNode("add", "+"),
				num("3"),
			),
		},
		{
			caption: "a right-associative operator groups to the right",
			src:     "2^3^2",
			tree: nonTermNode("expr",
				num("2"),
				termNode("pow", "^"),
				nonTermNode("expr",
					num("3"),
					termNode("pow", "^"),
					num("2"),
				),
			),
		},
		{
			caption: "an operator having higher precedence binds tighter",
			src:     "1+2*3",
			tree: nonTermNode("expr",
				num("1"),
				termNode("add", "+"),
				nonTermNode("expr",
					num("2"),
					termNode("mul", "*"),
					num("3"),
				),
			),
		},
		{
			caption: "a production precedence given by #prec overrides the terminal's one",
			src:     "-1*2",
			tree: nonTermNode("expr",
				nonTermNode("expr",
					termNode("sub", "-"),
					num("1"),
				),
				termNode("mul", "*"),
				num("2"),
			),
		},
		{
			caption: "skipped tokens don't reach the parser",
			src:     " ( 1 )\t",
			tree: nonTermNode("expr",
				termNode("l_paren", "("),
				num("1"),
				termNode("r_paren", ")"),
			),
		},
	}

	cgram := compileGrammar(t, calcGrammar)
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			semAct := NewSyntaxTreeActionSet(NewGrammar(cgram))
			p := newTestParser(t, cgram, tt.src, SemanticAction(semAct))
			v, err := p.Parse()
			if err != nil {
				t.Fatal(err)
			}
			if len(p.SyntaxErrors()) > 0 {
				t.Fatalf("unexpected syntax errors: %v", p.SyntaxErrors())
			}
			if v != semAct.Tree() {
				t.Fatalf("Parse must return the accepted tree")
			}
			testTree(t, semAct.Tree(), tt.tree)
		})
	}
}

func TestParser_Parse_Actions(t *testing.T) {
	tests := []struct {
		src   string
		value int
	}{
		{src: "1+2*3", value: 7},
		{src: "(1+2)*3", value: 9},
		{src: "2^3^2", value: 512},
		{src: "10-4-3", value: 3},
		{src: "-2^2", value: -4},
		{src: "8/2/2", value: 2},
	}

	cgram := compileGrammar(t, calcGrammar)
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p := newTestParser(t, cgram, tt.src, Actions(calcActions()))
			v, err := p.Parse()
			if err != nil {
				t.Fatal(err)
			}
			if v != tt.value {
				t.Fatalf("unexpected value; want: %v, got: %v", tt.value, v)
			}
		})
	}
}

func TestParser_Parse_SharedGrammar(t *testing.T) {
	cgram := compileGrammar(t, calcGrammar)
	gram := NewGrammar(cgram)
	tests := []struct {
		src     string
		value   int
		synErrs int
	}{
		{src: "1+2*3", value: 7},
		{src: "(1+2)*3", value: 9},
		{src: "2^3^2", value: 512},
		{src: "(1+2", value: 3, synErrs: 1},
		{src: "1 2 + 3", value: 4, synErrs: 1},
		{src: "10-4-3", value: 3},
		{src: "1+))2", value: 3, synErrs: 1},
		{src: "-2^2", value: -4},
	}

	// The parsers share one compiled grammar and the stack pool.
	t.Run("group", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			for _, tt := range tests {
				tt := tt
				t.Run(fmt.Sprintf("%v#%v", tt.src, i), func(t *testing.T) {
					t.Parallel()

					toks, err := NewTokenStream(cgram, strings.NewReader(tt.src))
					if err != nil {
						t.Fatal(err)
					}
					p, err := NewParser(gram, toks, Actions(calcActions()))
					if err != nil {
						t.Fatal(err)
					}
					v, err := p.Parse()
					if err != nil {
						t.Fatal(err)
					}
					if v != tt.value || len(p.SyntaxErrors()) != tt.synErrs {
						t.Fatalf("unexpected result; want: %v (%v errors), got: %v (%v)", tt.value, tt.synErrs, v, p.SyntaxErrors())
					}
				})
			}
		}
	})
}

func TestParser_Parse_DefaultActions(t *testing.T) {
	cgram := compileGrammar(t, calcGrammar)
	p := newTestParser(t, cgram, "(1)")
	v, err := p.Parse()
	if err != nil {
		t.Fatal(err)
	}
	// Without bound functions, every production collects the values of its children.
	vs, ok := v.([]interface{})
	if !ok || len(vs) != 3 {
		t.Fatalf("unexpected value: %#v", v)
	}
	if vs[0] != "(" || vs[2] != ")" {
		t.Fatalf("unexpected value: %#v", v)
	}
	inner, ok := vs[1].([]interface{})
	if !ok || len(inner) != 1 || inner[0] != "1" {
		t.Fatalf("unexpected value: %#v", vs[1])
	}
}

func TestParser_Parse_Spans(t *testing.T) {
	cgram := compileGrammar(t, calcGrammar)
	semAct := NewSyntaxTreeActionSet(NewGrammar(cgram))
	p := newTestParser(t, cgram, "1 + 23", SemanticAction(semAct))
	if _, err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	root := semAct.Tree()
	if root.Span != (Span{Start: 0, End: 6}) {
		t.Fatalf("unexpected span of the root: %+v", root.Span)
	}
	rhs := root.Children[2]
	if rhs.Span != (Span{Start: 4, End: 6}) || rhs.Row != 1 || rhs.Col != 5 {
		t.Fatalf("unexpected position of the right operand: %+v %v:%v", rhs.Span, rhs.Row, rhs.Col)
	}
}

func TestParser_Parse_EmptyProduction(t *testing.T) {
	tests := []struct {
		src  string
		tree *Node
	}{
		{
			src:  "",
			tree: nonTermNode("s"),
		},
		{
			src: "(())",
			tree: nonTermNode("s",
				termNode("l_paren", "("),
				nonTermNode("s",
					termNode("l_paren", "("),
					nonTermNode("s"),
					termNode("r_paren", ")"),
				),
				termNode("r_paren", ")"),
			),
		},
	}

	cgram := compileGrammar(t, parenGrammar)
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			semAct := NewSyntaxTreeActionSet(NewGrammar(cgram))
			p := newTestParser(t, cgram, tt.src, SemanticAction(semAct))
			if _, err := p.Parse(); err != nil {
				t.Fatal(err)
			}
			if len(p.SyntaxErrors()) > 0 {
				t.Fatalf("unexpected syntax errors: %v", p.SyntaxErrors())
			}
			testTree(t, semAct.Tree(), tt.tree)
		})
	}

	t.Run("an empty production has a zero-width span at the pending token", func(t *testing.T) {
		semAct := NewSyntaxTreeActionSet(NewGrammar(cgram))
		p := newTestParser(t, cgram, "(())", SemanticAction(semAct))
		if _, err := p.Parse(); err != nil {
			t.Fatal(err)
		}
		empty := semAct.Tree().Children[1].Children[1]
		if empty.Span != (Span{Start: 2, End: 2}) {
			t.Fatalf("unexpected span: %+v", empty.Span)
		}
	})
}

func TestParser_Parse_StartSymbol(t *testing.T) {
	src := `
#name items;
#start list item;

list
    : list item
    | item
    ;
item
    : id
    ;

id: "[a-z]+";
ws #skip: " +";
`
	cgram := compileGrammar(t, src)

	tests := []struct {
		caption string
		start   string
		src     string
		tree    *Node
		err     bool
	}{
		{
			caption: "the first start symbol is the default",
			src:     "foo bar",
			tree: nonTermNode("list",
				nonTermNode("list",
					nonTermNode("item", termNode("id", "foo")),
				),
				nonTermNode("item", termNode("id", "bar")),
			),
		},
		{
			caption: "a parser can start from another start symbol",
			start:   "item",
			src:     "foo",
			tree:    nonTermNode("item", termNode("id", "foo")),
		},
		{
			caption: "an undefined start symbol is an error",
			start:   "foo",
			src:     "foo",
			err:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			semAct := NewSyntaxTreeActionSet(NewGrammar(cgram))
			p := newTestParser(t, cgram, tt.src, SemanticAction(semAct), StartSymbol(tt.start))
			_, err := p.Parse()
			if tt.err {
				if err == nil {
					t.Fatalf("an error must occur")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			testTree(t, semAct.Tree(), tt.tree)
		})
	}
}

func TestParser_Parse_SliceTokenStream(t *testing.T) {
	cgram := compileGrammar(t, parenGrammar)
	lp := terminalNum(t, cgram, "l_paren")
	rp := terminalNum(t, cgram, "r_paren")
	toks := NewSliceTokenStream(cgram.Syntactic.EOFSymbol, []*Token{
		{Terminal: lp, Text: "(", Row: 1, Col: 1, Start: 0},
		{Terminal: rp, Text: ")", Row: 1, Col: 2, Start: 1},
	})
	semAct := NewSyntaxTreeActionSet(NewGrammar(cgram))
	p, err := NewParser(NewGrammar(cgram), toks, SemanticAction(semAct))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	testTree(t, semAct.Tree(), nonTermNode("s",
		termNode("l_paren", "("),
		nonTermNode("s"),
		termNode("r_paren", ")"),
	))
}

func TestNewTokenStream_WithoutLexicalSpecification(t *testing.T) {
	cgram := compileGrammar(t, parenGrammar)
	cgram.Lexical = nil
	if _, err := NewTokenStream(cgram, strings.NewReader("()")); err == nil {
		t.Fatalf("a grammar without a lexical specification cannot make a token stream")
	}
}

func TestParser_Cancel(t *testing.T) {
	cgram := compileGrammar(t, calcGrammar)

	t.Run("a parser cancelled in the middle returns the value completed so far", func(t *testing.T) {
		var p *Parser
		actions := calcActions()
		num := actions["num"]
		actions["num"] = func(c []*Child) interface{} {
			p.Cancel()
			return num(c)
		}
		p = newTestParser(t, cgram, "1+2", Actions(actions))
		v, err := p.Parse()
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != 1 {
			t.Fatalf("unexpected value: %v", v)
		}
	})

	t.Run("a parser cancelled before running accepts a missing start symbol", func(t *testing.T) {
		semAct := NewSyntaxTreeActionSet(NewGrammar(cgram))
		p := newTestParser(t, cgram, "1+2", SemanticAction(semAct))
		p.Cancel()
		v, err := p.Parse()
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != semAct.Tree() {
			t.Fatalf("a parser must return the accepted tree; got: %v", v)
		}
		testTree(t, semAct.Tree(), missingNode("expr"))
	})

	t.Run("a finished parser cannot run again", func(t *testing.T) {
		p := newTestParser(t, cgram, "1", Actions(calcActions()))
		if _, err := p.Parse(); err != nil {
			t.Fatal(err)
		}
		p.Cancel()
		if _, err := p.Parse(); err == nil {
			t.Fatalf("an error must occur")
		}
	})
}

func TestTokenStream_Position(t *testing.T) {
	cgram := compileGrammar(t, calcGrammar)
	toks, err := NewTokenStream(cgram, strings.NewReader("12 + é"))
	if err != nil {
		t.Fatal(err)
	}
	type pos struct {
		row int
		col int
		eof bool
	}
	expected := []pos{
		{row: 1, col: 1},
		{row: 1, col: 4},
		{row: 1, col: 6},
		{row: 1, col: 7, eof: true},
	}
	for i, e := range expected {
		tok, err := toks.Next()
		if err != nil {
			t.Fatal(err)
		}
		row, col := tok.Position()
		if row != e.row || col != e.col || tok.EOF() != e.eof {
			t.Fatalf("unexpected position of token #%v; want: %+v, got: %v:%v (eof: %v)", i, e, row, col, tok.EOF())
		}
	}
}
