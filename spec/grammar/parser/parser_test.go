package parser

import (
	"strings"
	"testing"

	verr "github.com/nihei9/lalrkit/error"
)

func TestParse(t *testing.T) {
	production := func(lhs string, alts ...*AlternativeNode) *ProductionNode {
		return &ProductionNode{
			LHS: lhs,
			RHS: alts,
		}
	}
	withProdDir := func(prod *ProductionNode, dirs ...*DirectiveNode) *ProductionNode {
		prod.Directives = dirs
		return prod
	}
	alternative := func(elems ...*ElementNode) *AlternativeNode {
		return &AlternativeNode{
			Elements: elems,
		}
	}
	withAltDir := func(alt *AlternativeNode, dirs ...*DirectiveNode) *AlternativeNode {
		alt.Directives = dirs
		return alt
	}
	directive := func(name string, params ...*ParameterNode) *DirectiveNode {
		return &DirectiveNode{
			Name:       name,
			Parameters: params,
		}
	}
	idParam := func(id string) *ParameterNode {
		return &ParameterNode{
			ID: id,
		}
	}
	ordParam := func(sym string) *ParameterNode {
		return &ParameterNode{
			OrderedSymbol: sym,
		}
	}
	groupParam := func(dirs ...*DirectiveNode) *ParameterNode {
		return &ParameterNode{
			Group: dirs,
		}
	}
	id := func(id string) *ElementNode {
		return &ElementNode{
			ID: id,
		}
	}
	pattern := func(p string) *ElementNode {
		return &ElementNode{
			Pattern: p,
		}
	}
	literal := func(s string) *ElementNode {
		return &ElementNode{
			Pattern: s,
			Literal: true,
		}
	}

	tests := []struct {
		caption string
		src     string
		ast     *RootNode
		synErr  *SyntaxError
	}{
		{
			caption: "a single lexical production is a valid grammar",
			src:     `a: "a";`,
			ast: &RootNode{
				LexProductions: []*ProductionNode{
					production("a", alternative(pattern("a"))),
				},
			},
		},
		{
			caption: "productions and lexical productions are separated",
			src: `
#name test;

expr
    : expr add term
    | term
    ;
term
    : num
    | '(' expr ')'
    |
    ;
add: '+';
num: "[0-9]+";
ws #skip: "[\u{0009}\u{0020}]+";
`,
			ast: &RootNode{
				Directives: []*DirectiveNode{
					directive("name", idParam("test")),
				},
				Productions: []*ProductionNode{
					production("expr",
						alternative(id("expr"), id("add"), id("term")),
						alternative(id("term")),
					),
					production("term",
						alternative(id("num")),
						alternative(literal("("), id("expr"), literal(")")),
						alternative(),
					),
				},
				LexProductions: []*ProductionNode{
					production("add", alternative(literal("+"))),
					production("num", alternative(pattern("[0-9]+"))),
					withProdDir(
						production("ws", alternative(pattern(`[\u{0009}\u{0020}]+`))),
						directive("skip"),
					),
				},
			},
		},
		{
			caption: "the precedence directive takes a directive group",
			src: `
#prec (
    #left add sub
    #right pow
    #assoc $uminus
);
#start expr stmt;

expr
    : expr add expr
    | sub expr #prec $uminus
    | error #recover #action recover_expr
    ;
`,
			ast: &RootNode{
				Directives: []*DirectiveNode{
					directive("prec", groupParam(
						directive("left", idParam("add"), idParam("sub")),
						directive("right", idParam("pow")),
						directive("assoc", ordParam("uminus")),
					)),
					directive("start", idParam("expr"), idParam("stmt")),
				},
				Productions: []*ProductionNode{
					production("expr",
						alternative(id("expr"), id("add"), id("expr")),
						withAltDir(
							alternative(id("sub"), id("expr")),
							directive("prec", ordParam("uminus")),
						),
						withAltDir(
							alternative(id("error")),
							directive("recover"),
							directive("action", idParam("recover_expr")),
						),
					),
				},
			},
		},
		{
			caption: "a top-level directive needs a semicolon",
			src:     `#name test a: "a";`,
			synErr:  synErrTopLevelDirNoSemicolon,
		},
		{
			caption: "a production needs its name",
			src:     `: "a";`,
			synErr:  synErrNoProductionName,
		},
		{
			caption: "a production needs a colon",
			src:     `a "a";`,
			synErr:  synErrNoColon,
		},
		{
			caption: "a production needs a semicolon",
			src:     `a: "a"`,
			synErr:  synErrNoSemicolon,
		},
		{
			caption: "a directive group must be closed",
			src:     `#prec (#left a;`,
			synErr:  synErrUnclosedDirGroup,
		},
		{
			caption: "a directive group cannot be nested",
			src:     `#prec (#left (#right a));`,
			synErr:  synErrNestedDirGroup,
		},
		{
			caption: "a directive group contains only directives",
			src:     `#prec (a);`,
			synErr:  synErrDirGroupNoDirective,
		},
		{
			caption: "a pattern cannot appear in an alternative of a non-lexical production",
			src:     `a: b "c";`,
			synErr:  synErrPatternInAlt,
		},
		{
			caption: "a symbol cannot follow directives",
			src:     `a: b #recover 'c';`,
			synErr:  synErrElemAfterDirective,
		},
		{
			caption: "an invalid token is reported",
			src:     `a: B;`,
			synErr:  synErrInvalidToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			ast, err := Parse(strings.NewReader(tt.src))
			if tt.synErr != nil {
				specErr, ok := err.(*verr.SpecError)
				if !ok {
					t.Fatalf("unexpected error; want: %v, got: %#v", tt.synErr, err)
				}
				if specErr.Cause != tt.synErr {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.synErr, specErr.Cause)
				}
				if ast != nil {
					t.Fatalf("AST must be nil")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			testRootNode(t, ast, tt.ast)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	src := `a
    : b
    | c d
    `
	_, err := Parse(strings.NewReader(src))
	specErr, ok := err.(*verr.SpecError)
	if !ok {
		t.Fatalf("unexpected error: %#v", err)
	}
	if specErr.Cause != synErrNoSemicolon {
		t.Fatalf("unexpected error; want: %v, got: %v", synErrNoSemicolon, specErr.Cause)
	}
}

func testRootNode(t *testing.T, root, expected *RootNode) {
	t.Helper()
	if len(root.Directives) != len(expected.Directives) {
		t.Fatalf("unexpected directive count; want: %v, got: %v", len(expected.Directives), len(root.Directives))
	}
	for i, dir := range root.Directives {
		testDirectives(t, []*DirectiveNode{dir}, []*DirectiveNode{expected.Directives[i]})
	}
	testProductions(t, root.Productions, expected.Productions)
	testProductions(t, root.LexProductions, expected.LexProductions)
}

func testProductions(t *testing.T, prods, expected []*ProductionNode) {
	t.Helper()
	if len(prods) != len(expected) {
		t.Fatalf("unexpected production count; want: %v, got: %v", len(expected), len(prods))
	}
	for i, prod := range prods {
		e := expected[i]
		if prod.LHS != e.LHS {
			t.Fatalf("unexpected LHS; want: %v, got: %v", e.LHS, prod.LHS)
		}
		testDirectives(t, prod.Directives, e.Directives)
		if len(prod.RHS) != len(e.RHS) {
			t.Fatalf("unexpected alternative count; want: %v, got: %v", len(e.RHS), len(prod.RHS))
		}
		for j, alt := range prod.RHS {
			testAlternative(t, alt, e.RHS[j])
		}
	}
}

func testAlternative(t *testing.T, alt, expected *AlternativeNode) {
	t.Helper()
	if len(alt.Elements) != len(expected.Elements) {
		t.Fatalf("unexpected element count; want: %v, got: %v", len(expected.Elements), len(alt.Elements))
	}
	for i, elem := range alt.Elements {
		e := expected.Elements[i]
		if elem.ID != e.ID || elem.Pattern != e.Pattern || elem.Literal != e.Literal {
			t.Fatalf("unexpected element; want: %+v, got: %+v", e, elem)
		}
	}
	testDirectives(t, alt.Directives, expected.Directives)
}

func testDirectives(t *testing.T, dirs, expected []*DirectiveNode) {
	t.Helper()
	if len(dirs) != len(expected) {
		t.Fatalf("unexpected directive count; want: %v, got: %v", len(expected), len(dirs))
	}
	for i, dir := range dirs {
		e := expected[i]
		if dir.Name != e.Name {
			t.Fatalf("unexpected directive name; want: %v, got: %v", e.Name, dir.Name)
		}
		if len(dir.Parameters) != len(e.Parameters) {
			t.Fatalf("unexpected parameter count of #%v; want: %v, got: %v", e.Name, len(e.Parameters), len(dir.Parameters))
		}
		for j, param := range dir.Parameters {
			ep := e.Parameters[j]
			if param.ID != ep.ID || param.OrderedSymbol != ep.OrderedSymbol {
				t.Fatalf("unexpected parameter; want: %+v, got: %+v", ep, param)
			}
			testDirectives(t, param.Group, ep.Group)
		}
	}
}
