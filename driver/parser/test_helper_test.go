package parser

import (
	"strings"
	"testing"

	"github.com/nihei9/lalrkit/grammar"
	spec "github.com/nihei9/lalrkit/spec/grammar"
	gparser "github.com/nihei9/lalrkit/spec/grammar/parser"
)

const calcGrammar = `
#name calc;
#prec (
    #left add sub
    #left mul div
    #right $uminus
    #right pow
);

expr
    : expr add expr #action sum
    | expr sub expr #action diff
    | expr mul expr #action prod
    | expr div expr #action quot
    | expr pow expr #action power
    | sub expr #prec $uminus #action neg
    | l_paren expr r_paren #action group
    | num #action num
    ;

add: '+';
sub: '-';
mul: '*';
div: '/';
pow: '^';
l_paren: '(';
r_paren: ')';
num: "[0-9]+";
ws #skip: "[\u{0009}\u{0020}]+";
`

const parenGrammar = `
#name paren;

s
    : l_paren s r_paren
    |
    ;

l_paren: '(';
r_paren: ')';
`

func compileGrammar(t *testing.T, src string) *spec.CompiledGrammar {
	t.Helper()

	ast, err := gparser.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	b := grammar.GrammarBuilder{
		AST: ast,
	}
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	cgram, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}
	return cgram
}

func newTestParser(t *testing.T, cgram *spec.CompiledGrammar, src string, opts ...ParserOption) *Parser {
	t.Helper()

	toks, err := NewTokenStream(cgram, strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewParser(NewGrammar(cgram), toks, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func terminalNum(t *testing.T, cgram *spec.CompiledGrammar, name string) int {
	t.Helper()

	for i, n := range cgram.Syntactic.Terminals {
		if n == name {
			return i
		}
	}
	t.Fatalf("terminal '%v' was not found", name)
	return 0
}

func intOf(c *Child) int {
	n, _ := c.Value.(int)
	return n
}

// calcActions evaluates calcGrammar. A missing operand counts as 0.
func calcActions() map[string]ActionFunc {
	return map[string]ActionFunc{
		"sum": func(c []*Child) interface{} {
			return intOf(c[0]) + intOf(c[2])
		},
		"diff": func(c []*Child) interface{} {
			return intOf(c[0]) - intOf(c[2])
		},
		"prod": func(c []*Child) interface{} {
			return intOf(c[0]) * intOf(c[2])
		},
		"quot": func(c []*Child) interface{} {
			d := intOf(c[2])
			if d == 0 {
				return 0
			}
			return intOf(c[0]) / d
		},
		"power": func(c []*Child) interface{} {
			n := 1
			for i := 0; i < intOf(c[2]); i++ {
				n *= intOf(c[0])
			}
			return n
		},
		"neg": func(c []*Child) interface{} {
			return -intOf(c[1])
		},
		"group": func(c []*Child) interface{} {
			return c[1].Value
		},
		"num": func(c []*Child) interface{} {
			s, _ := c[0].Value.(string)
			n := 0
			for _, r := range s {
				n = n*10 + int(r-'0')
			}
			return n
		},
	}
}

func termNode(kind, text string) *Node {
	return &Node{
		Type:     NodeTypeTerminal,
		KindName: kind,
		Text:     text,
	}
}

func missingNode(kind string) *Node {
	return &Node{
		Type:     NodeTypeMissing,
		KindName: kind,
	}
}

func nonTermNode(kind string, children ...*Node) *Node {
	if children == nil {
		children = []*Node{}
	}
	return &Node{
		Type:     NodeTypeNonTerminal,
		KindName: kind,
		Children: children,
	}
}

// testTree compares the shapes of two trees. Positions are ignored.
func testTree(t *testing.T, node, expected *Node) {
	t.Helper()

	if node == nil || expected == nil {
		if node != expected {
			t.Fatalf("unexpected node; want: %+v, got: %+v", expected, node)
		}
		return
	}
	if node.Type != expected.Type || node.KindName != expected.KindName || node.Text != expected.Text {
		t.Fatalf("unexpected node; want: %v %v %q, got: %v %v %q", expected.Type, expected.KindName, expected.Text, node.Type, node.KindName, node.Text)
	}
	if len(node.Children) != len(expected.Children) {
		t.Fatalf("unexpected children of %v; want: %v, got: %v", node.KindName, len(expected.Children), len(node.Children))
	}
	for i, c := range node.Children {
		testTree(t, c, expected.Children[i])
	}
}
