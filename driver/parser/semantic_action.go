package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Child is a frame of the value stack handed to a semantic action.
type Child struct {
	Value interface{}
	Span  Span

	// Missing is true when error recovery synthesized the symbol.
	Missing bool
}

// ActionFunc computes the value of an LHS from the values of the RHS symbols.
type ActionFunc func(children []*Child) interface{}

// SemanticActionSet is a set of semantic actions a parser calls.
type SemanticActionSet interface {
	// Shift returns the value of a token the parser shifts. When the parser recovered from an error
	// by shifting the token, `recovered` is true.
	Shift(tok VToken, recovered bool) interface{}

	// Missing returns the value of a symbol error recovery synthesized. `sym` is a terminal number,
	// or a negated non-terminal number as in Grammar.RHS.
	Missing(sym int, span Span) interface{}

	// Reduce returns the value of the LHS of production `prodNum`. `span` covers the children, or
	// is empty at the pending token when there is no child. When error recovery completed the
	// production, `recovered` is true.
	Reduce(prodNum int, span Span, children []*Child, recovered bool) interface{}

	// Accept receives the value of the start symbol.
	Accept(value interface{})
}

var (
	_ SemanticActionSet = &ValueActionSet{}
	_ SemanticActionSet = &SyntaxTreeActionSet{}
)

// ValueActionSet runs the ActionFunc bound to the action handle of each production. A production
// without a bound function collects the values of its children into []interface{}.
type ValueActionSet struct {
	gram    Grammar
	actions map[string]ActionFunc
}

func NewValueActionSet(gram Grammar, actions map[string]ActionFunc) *ValueActionSet {
	return &ValueActionSet{
		gram:    gram,
		actions: actions,
	}
}

// Shift returns the lexeme of the token as a string.
func (a *ValueActionSet) Shift(tok VToken, recovered bool) interface{} {
	return string(tok.Lexeme())
}

func (a *ValueActionSet) Missing(sym int, span Span) interface{} {
	return nil
}

func (a *ValueActionSet) Reduce(prodNum int, span Span, children []*Child, recovered bool) interface{} {
	if name := a.gram.ProductionAction(prodNum); name != "" {
		if f, ok := a.actions[name]; ok {
			return f(children)
		}
	}
	vs := make([]interface{}, len(children))
	for i, c := range children {
		vs[i] = c.Value
	}
	return vs
}

// Accept does nothing; Parser.Parse returns the value of the start symbol.
func (a *ValueActionSet) Accept(value interface{}) {
}

// SyntaxTreeActionSet constructs a concrete syntax tree.
type SyntaxTreeActionSet struct {
	gram Grammar
	tree *Node
}

func NewSyntaxTreeActionSet(gram Grammar) *SyntaxTreeActionSet {
	return &SyntaxTreeActionSet{
		gram: gram,
	}
}

func (a *SyntaxTreeActionSet) Shift(tok VToken, recovered bool) interface{} {
	row, col := tok.Position()
	return &Node{
		Type:     NodeTypeTerminal,
		KindName: a.gram.Terminal(tok.TerminalID()),
		Text:     string(tok.Lexeme()),
		Row:      row,
		Col:      col,
		Span:     tok.Span(),
	}
}

func (a *SyntaxTreeActionSet) Missing(sym int, span Span) interface{} {
	var kind string
	if sym < 0 {
		kind = a.gram.NonTerminal(-sym)
	} else {
		kind = a.gram.Terminal(sym)
	}
	return &Node{
		Type:     NodeTypeMissing,
		KindName: kind,
		Span:     span,
	}
}

func (a *SyntaxTreeActionSet) Reduce(prodNum int, span Span, children []*Child, recovered bool) interface{} {
	node := &Node{
		Type:     NodeTypeNonTerminal,
		KindName: a.gram.NonTerminal(a.gram.LHS(prodNum)),
		Span:     span,
		Children: make([]*Node, 0, len(children)),
	}
	for _, c := range children {
		child, ok := c.Value.(*Node)
		if !ok || child == nil {
			continue
		}
		if node.Row == 0 && child.Row != 0 {
			node.Row = child.Row
			node.Col = child.Col
		}
		node.Children = append(node.Children, child)
	}
	return node
}

func (a *SyntaxTreeActionSet) Accept(value interface{}) {
	if node, ok := value.(*Node); ok {
		a.tree = node
	}
}

// Tree returns a syntax tree when the parser has accepted an input.
func (a *SyntaxTreeActionSet) Tree() *Node {
	return a.tree
}

type NodeType int

const (
	NodeTypeMissing     = NodeType(0)
	NodeTypeTerminal    = NodeType(1)
	NodeTypeNonTerminal = NodeType(2)
)

type Node struct {
	Type     NodeType
	KindName string
	Text     string
	Row      int
	Col      int
	Span     Span
	Children []*Node
}

func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.Type {
	case NodeTypeMissing:
		return json.Marshal(struct {
			Type     NodeType `json:"type"`
			KindName string   `json:"kind_name"`
			Missing  bool     `json:"missing"`
			Span     Span     `json:"span"`
		}{
			Type:     n.Type,
			KindName: n.KindName,
			Missing:  true,
			Span:     n.Span,
		})
	case NodeTypeTerminal:
		return json.Marshal(struct {
			Type     NodeType `json:"type"`
			KindName string   `json:"kind_name"`
			Text     string   `json:"text"`
			Row      int      `json:"row"`
			Col      int      `json:"col"`
			Span     Span     `json:"span"`
		}{
			Type:     n.Type,
			KindName: n.KindName,
			Text:     n.Text,
			Row:      n.Row,
			Col:      n.Col,
			Span:     n.Span,
		})
	case NodeTypeNonTerminal:
		return json.Marshal(struct {
			Type     NodeType `json:"type"`
			KindName string   `json:"kind_name"`
			Span     Span     `json:"span"`
			Children []*Node  `json:"children"`
		}{
			Type:     n.Type,
			KindName: n.KindName,
			Span:     n.Span,
			Children: n.Children,
		})
	default:
		return nil, fmt.Errorf("invalid node type: %v", n.Type)
	}
}

// PrintTree prints a syntax tree whose root is `node`.
func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node *Node, ruledLine string, childRuledLinePrefix string) {
	if node == nil {
		return
	}

	switch node.Type {
	case NodeTypeMissing:
		fmt.Fprintf(w, "%v%v <missing>\n", ruledLine, node.KindName)
	case NodeTypeTerminal:
		fmt.Fprintf(w, "%v%v %v\n", ruledLine, node.KindName, strconv.Quote(node.Text))
	case NodeTypeNonTerminal:
		fmt.Fprintf(w, "%v%v\n", ruledLine, node.KindName)

		num := len(node.Children)
		for i, child := range node.Children {
			var line string
			if num > 1 && i < num-1 {
				line = "├─ "
			} else {
				line = "└─ "
			}

			var prefix string
			if i >= num-1 {
				prefix = "   "
			} else {
				prefix = "│  "
			}

			printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
		}
	}
}
