package grammar

import (
	"fmt"

	"github.com/nihei9/lalrkit/compressor"
	mlspec "github.com/nihei9/maleeni/spec"
)

type CompiledGrammar struct {
	Name string `json:"name"`

	// Fingerprint identifies the grammar declarations the tables were built from.
	Fingerprint string                  `json:"fingerprint"`
	Lexical     *LexicalSpecification   `json:"lexical,omitempty"`
	Syntactic   *SyntacticSpecification `json:"syntactic"`
}

// LexicalSpecification is absent when no terminal of the grammar has a pattern. Such a grammar is
// driven by a token stream the caller provides.
type LexicalSpecification struct {
	Lexer   string   `json:"lexer"`
	Maleeni *Maleeni `json:"maleeni"`
}

type Maleeni struct {
	Spec           *mlspec.CompiledLexSpec `json:"spec"`
	KindToTerminal []int                   `json:"kind_to_terminal"`
	Skip           []int                   `json:"skip"`
	KindAliases    []string                `json:"kind_aliases"`
}

type ActionType int

const (
	ActionTypeError ActionType = iota
	ActionTypeShift
	ActionTypeReduce
	ActionTypeAccept
)

func (t ActionType) String() string {
	switch t {
	case ActionTypeShift:
		return "shift"
	case ActionTypeReduce:
		return "reduce"
	case ActionTypeAccept:
		return "accept"
	}
	return "error"
}

// Action is an entry of an action table. Index is a state number for a shift action, and a
// production number for a reduce or accept action.
type Action struct {
	Type  ActionType `json:"type"`
	Index int        `json:"index"`
}

func (a Action) String() string {
	switch a.Type {
	case ActionTypeShift, ActionTypeReduce:
		return fmt.Sprintf("%v %v", a.Type, a.Index)
	}
	return a.Type.String()
}

// Less orders actions by type, then by index.
func (a Action) Less(b Action) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.Index < b.Index
}

type ActionEntry struct {
	Terminal int    `json:"terminal"`
	Action   Action `json:"action"`
}

type State struct {
	Number        int    `json:"number"`
	DefaultAction Action `json:"default_action"`

	// DefaultOnly is true when the state has no action other than its default reduction.
	DefaultOnly bool `json:"default_only"`

	// Actions lists the actions differing from the default action in ascending order of terminals.
	Actions []*ActionEntry `json:"actions"`

	RecoveryProduction int `json:"recovery_production"`
	RecoveryDot        int `json:"recovery_dot"`
}

// Production encodes RHS symbols with signs: a terminal number as is, and a non-terminal number
// negated.
type Production struct {
	Number    int    `json:"number"`
	LHS       int    `json:"lhs"`
	RHS       []int  `json:"rhs"`
	Action    string `json:"action,omitempty"`
	Augmented bool   `json:"augmented,omitempty"`
}

type StartSymbol struct {
	Name         string `json:"name"`
	NonTerminal  int    `json:"non_terminal"`
	Production   int    `json:"production"`
	InitialState int    `json:"initial_state"`
}

// GoToNil is the empty value of the GOTO table.
const GoToNil = -1

type SyntacticSpecification struct {
	Terminals        []string `json:"terminals"`
	TerminalCount    int      `json:"terminal_count"`
	NonTerminals     []string `json:"non_terminals"`
	NonTerminalCount int      `json:"non_terminal_count"`
	EOFSymbol        int      `json:"eof_symbol"`
	ErrorSymbol      int      `json:"error_symbol"`

	// Productions is indexed by production number. The first element is always nil.
	Productions  []*Production  `json:"productions"`
	StartSymbols []*StartSymbol `json:"start_symbols"`
	States       []*State       `json:"states"`

	// GoTo maps (state, non-terminal) to a state.
	GoTo *compressor.RowDisplacementTable `json:"goto"`

	// Expecting is a bitmap of (state, terminal); 1 means the terminal is acceptable in the state.
	Expecting *compressor.UniqueEntriesTable `json:"expecting"`
}

// ProductionCount returns the number of productions the grammar declares, excluding the
// augmented start productions.
func (s *SyntacticSpecification) ProductionCount() int {
	n := 0
	for _, p := range s.Productions {
		if p == nil || p.Augmented {
			continue
		}
		n++
	}
	return n
}
