package parser

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPrintTree(t *testing.T) {
	tree := nonTermNode("s",
		termNode("l_paren", "("),
		nonTermNode("s",
			termNode("l_paren", "("),
			nonTermNode("s"),
			missingNode("r_paren"),
		),
		termNode("r_paren", ")"),
	)

	var b strings.Builder
	PrintTree(&b, tree)

	expected := `s
├─ l_paren "("
├─ s
│  ├─ l_paren "("
│  ├─ s
│  └─ r_paren <missing>
└─ r_paren ")"
`
	if b.String() != expected {
		t.Fatalf("unexpected tree; want:\n%v\ngot:\n%v", expected, b.String())
	}
}

func TestNode_MarshalJSON(t *testing.T) {
	tests := []struct {
		caption  string
		node     *Node
		expected string
	}{
		{
			caption: "a terminal node has its text and position",
			node: &Node{
				Type:     NodeTypeTerminal,
				KindName: "num",
				Text:     "12",
				Row:      1,
				Col:      3,
				Span:     Span{Start: 2, End: 4},
			},
			expected: `{"type":1,"kind_name":"num","text":"12","row":1,"col":3,"span":{"start":2,"end":4}}`,
		},
		{
			caption: "a missing node is flagged",
			node: &Node{
				Type:     NodeTypeMissing,
				KindName: "r_paren",
				Span:     Span{Start: 4, End: 4},
			},
			expected: `{"type":0,"kind_name":"r_paren","missing":true,"span":{"start":4,"end":4}}`,
		},
		{
			caption: "a non-terminal node has its children",
			node: &Node{
				Type:     NodeTypeNonTerminal,
				KindName: "expr",
				Span:     Span{Start: 0, End: 1},
				Children: []*Node{
					{
						Type:     NodeTypeTerminal,
						KindName: "num",
						Text:     "1",
						Row:      1,
						Col:      1,
						Span:     Span{Start: 0, End: 1},
					},
				},
			},
			expected: `{"type":2,"kind_name":"expr","span":{"start":0,"end":1},"children":[{"type":1,"kind_name":"num","text":"1","row":1,"col":1,"span":{"start":0,"end":1}}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			b, err := json.Marshal(tt.node)
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != tt.expected {
				t.Fatalf("unexpected JSON; want: %v, got: %v", tt.expected, string(b))
			}
		})
	}
}

func TestValueActionSet_UnboundAction(t *testing.T) {
	cgram := compileGrammar(t, calcGrammar)
	p := newTestParser(t, cgram, "1+2", Actions(map[string]ActionFunc{
		"num": calcActions()["num"],
	}))
	v, err := p.Parse()
	if err != nil {
		t.Fatal(err)
	}
	// `sum` has no function, so the children are collected.
	vs, ok := v.([]interface{})
	if !ok || len(vs) != 3 || vs[0] != 1 || vs[1] != "+" || vs[2] != 2 {
		t.Fatalf("unexpected value: %#v", v)
	}
}
