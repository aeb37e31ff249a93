package parser

import (
	"fmt"
	"sort"

	spec "github.com/nihei9/lalrkit/spec/grammar"
)

// Grammar is the view of a compiled grammar the parser runs on.
type Grammar interface {
	// InitialState returns the initial state of a start symbol. An empty name means the default
	// start symbol.
	InitialState(start string) (int, error)

	// Action returns the action of a state on a terminal. A default-only state returns its
	// default action for every terminal.
	Action(state int, terminal int) spec.Action

	// DefaultOnly reports whether a state reduces without consulting a look-ahead symbol.
	DefaultOnly(state int) bool

	// GoTo returns the next state, or spec.GoToNil when the entry is undefined.
	GoTo(state int, lhs int) int

	// Expected returns the terminals having an action in a state in ascending order.
	Expected(state int) []int

	// RecoveryItem returns the kernel item panic-mode recovery completes.
	RecoveryItem(state int) (prod int, dot int)

	LHS(prod int) int
	AlternativeSymbolCount(prod int) int
	Augmented(prod int) bool
	RHS(prod int) []int
	ProductionAction(prod int) string

	TerminalCount() int
	EOF() int
	Error() int
	Terminal(terminal int) string
	TerminalAlias(terminal int) string
	NonTerminal(nonTerminal int) string
}

var _ Grammar = &grammarImpl{}

type grammarImpl struct {
	g *spec.CompiledGrammar
}

func NewGrammar(g *spec.CompiledGrammar) *grammarImpl {
	return &grammarImpl{
		g: g,
	}
}

func (g *grammarImpl) InitialState(start string) (int, error) {
	starts := g.g.Syntactic.StartSymbols
	if len(starts) == 0 {
		return 0, fmt.Errorf("the grammar has no start symbol")
	}
	if start == "" {
		return starts[0].InitialState, nil
	}
	for _, st := range starts {
		if st.Name == start {
			return st.InitialState, nil
		}
	}
	return 0, fmt.Errorf("undefined start symbol: %v", start)
}

func (g *grammarImpl) Action(state int, terminal int) spec.Action {
	st := g.g.Syntactic.States[state]
	if st.DefaultOnly {
		return st.DefaultAction
	}
	acts := st.Actions
	i := sort.Search(len(acts), func(i int) bool {
		return acts[i].Terminal >= terminal
	})
	if i < len(acts) && acts[i].Terminal == terminal {
		return acts[i].Action
	}
	return st.DefaultAction
}

func (g *grammarImpl) DefaultOnly(state int) bool {
	return g.g.Syntactic.States[state].DefaultOnly
}

func (g *grammarImpl) GoTo(state int, lhs int) int {
	next, err := g.g.Syntactic.GoTo.Lookup(state, lhs)
	if err != nil {
		return spec.GoToNil
	}
	return next
}

func (g *grammarImpl) Expected(state int) []int {
	row, err := g.g.Syntactic.Expecting.Row(state)
	if err != nil {
		return nil
	}
	var terms []int
	for term, v := range row {
		if v != 0 {
			terms = append(terms, term)
		}
	}
	return terms
}

func (g *grammarImpl) RecoveryItem(state int) (int, int) {
	st := g.g.Syntactic.States[state]
	return st.RecoveryProduction, st.RecoveryDot
}

func (g *grammarImpl) LHS(prod int) int {
	return g.g.Syntactic.Productions[prod].LHS
}

func (g *grammarImpl) AlternativeSymbolCount(prod int) int {
	return len(g.g.Syntactic.Productions[prod].RHS)
}

func (g *grammarImpl) Augmented(prod int) bool {
	return g.g.Syntactic.Productions[prod].Augmented
}

func (g *grammarImpl) RHS(prod int) []int {
	return g.g.Syntactic.Productions[prod].RHS
}

func (g *grammarImpl) ProductionAction(prod int) string {
	return g.g.Syntactic.Productions[prod].Action
}

func (g *grammarImpl) TerminalCount() int {
	return g.g.Syntactic.TerminalCount
}

func (g *grammarImpl) EOF() int {
	return g.g.Syntactic.EOFSymbol
}

func (g *grammarImpl) Error() int {
	return g.g.Syntactic.ErrorSymbol
}

func (g *grammarImpl) Terminal(terminal int) string {
	return g.g.Syntactic.Terminals[terminal]
}

// TerminalAlias returns the text of a literal terminal. It returns an empty string for other
// terminals.
func (g *grammarImpl) TerminalAlias(terminal int) string {
	if g.g.Lexical == nil || g.g.Lexical.Maleeni == nil {
		return ""
	}
	aliases := g.g.Lexical.Maleeni.KindAliases
	if terminal >= len(aliases) || aliases[terminal] == g.g.Syntactic.Terminals[terminal] {
		return ""
	}
	return aliases[terminal]
}

func (g *grammarImpl) NonTerminal(nonTerminal int) string {
	return g.g.Syntactic.NonTerminals[nonTerminal]
}
