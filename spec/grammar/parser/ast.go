package parser

type Position struct {
	Row int
	Col int
}

func newPosition(row, col int) Position {
	return Position{
		Row: row,
		Col: col,
	}
}

type RootNode struct {
	Directives     []*DirectiveNode
	Productions    []*ProductionNode
	LexProductions []*ProductionNode
}

type ProductionNode struct {
	Directives []*DirectiveNode
	LHS        string
	RHS        []*AlternativeNode
	Pos        Position
}

// isLexical reports whether the production defines a terminal: it has exactly one alternative
// consisting of one pattern or one string literal.
func (n *ProductionNode) isLexical() bool {
	if len(n.RHS) != 1 || len(n.RHS[0].Elements) != 1 || len(n.RHS[0].Directives) > 0 {
		return false
	}
	elem := n.RHS[0].Elements[0]
	return elem.ID == ""
}

type AlternativeNode struct {
	Elements   []*ElementNode
	Directives []*DirectiveNode
	Pos        Position
}

// ElementNode is one of an identifier, a pattern ("..."), and a string literal ('...').
type ElementNode struct {
	ID      string
	Pattern string
	Literal bool
	Pos     Position
}

type DirectiveNode struct {
	Name       string
	Parameters []*ParameterNode
	Pos        Position
}

// ParameterNode is one of an identifier, an ordered symbol ($name), and a directive group.
type ParameterNode struct {
	ID            string
	OrderedSymbol string
	Group         []*DirectiveNode
	Pos           Position
}
