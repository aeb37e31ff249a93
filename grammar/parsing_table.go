package grammar

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/nihei9/lalrkit/grammar/symbol"
	spec "github.com/nihei9/lalrkit/spec/grammar"
)

type stateTable struct {
	// actions holds the resolved action of every terminal having one, before default reductions
	// elide them.
	actions map[symbol.Symbol]spec.Action

	defaultAction spec.Action
	defaultOnly   bool

	// expecting is the terminal numbers having a non-error action, in ascending order.
	expecting []int

	recoveryProd *production
	recoveryDot  int

	conflicts []*Conflict
}

// explicitActions returns the actions the compiled state has to list, in ascending order of
// terminals.
func (st *stateTable) explicitActions() []*spec.ActionEntry {
	if st.defaultOnly {
		return nil
	}
	entries := make([]*spec.ActionEntry, 0, len(st.actions))
	for sym, act := range st.actions {
		entries = append(entries, &spec.ActionEntry{
			Terminal: sym.Num().Int(),
			Action:   act,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Terminal < entries[j].Terminal
	})
	return entries
}

type parsingTable struct {
	states []*stateTable

	// goTo is a dense states × non-terminals table. An undefined entry is spec.GoToNil.
	goTo []int

	termCount    int
	nonTermCount int
}

func (t *parsingTable) readGoTo(state stateNum, sym symbol.Symbol) int {
	return t.goTo[state.Int()*t.nonTermCount+sym.Num().Int()]
}

type lrTableBuilder struct {
	automaton    *lalr1Automaton
	prods        *productionSet
	symTab       *symbol.SymbolTableReader
	precAndAssoc *precAndAssoc
	termCount    int
	nonTermCount int

	conflicts []*Conflict
}

func (b *lrTableBuilder) build() (*parsingTable, error) {
	tab := &parsingTable{
		states:       make([]*stateTable, len(b.automaton.states)),
		goTo:         make([]int, len(b.automaton.states)*b.nonTermCount),
		termCount:    b.termCount,
		nonTermCount: b.nonTermCount,
	}
	for i := range tab.goTo {
		tab.goTo[i] = spec.GoToNil
	}

	resolver := &conflictResolver{
		precAndAssoc: b.precAndAssoc,
	}
	for _, state := range b.automaton.states {
		st, err := b.buildState(state, resolver)
		if err != nil {
			return nil, err
		}
		tab.states[state.num] = st

		for _, sym := range state.nextSymbols() {
			if !sym.IsNonTerminal() {
				continue
			}
			tab.goTo[state.num.Int()*b.nonTermCount+sym.Num().Int()] = state.next[sym].Int()
		}
	}

	return tab, nil
}

func (b *lrTableBuilder) buildState(state *lrState, resolver *conflictResolver) (*stateTable, error) {
	arena := b.automaton.arena

	cands := map[symbol.Symbol][]*candidate{}
	for _, sym := range state.nextSymbols() {
		if !sym.IsTerminal() {
			continue
		}
		cands[sym] = append(cands[sym], &candidate{
			action: spec.Action{
				Type:  spec.ActionTypeShift,
				Index: state.next[sym].Int(),
			},
		})
	}
	for _, item := range b.automaton.closures[state.num] {
		if !arena.reducible(item.item) {
			continue
		}
		prod := arena.production(item.item)
		for a := range item.lookAhead.symbols {
			if prod.isAugmented() {
				if !a.IsEOF() {
					continue
				}
				cands[a] = append(cands[a], &candidate{
					action: spec.Action{
						Type:  spec.ActionTypeAccept,
						Index: prod.num.Int(),
					},
					prod: prod,
				})
				continue
			}
			cands[a] = append(cands[a], &candidate{
				action: spec.Action{
					Type:  spec.ActionTypeReduce,
					Index: prod.num.Int(),
				},
				prod: prod,
			})
		}
	}

	terms := make([]symbol.Symbol, 0, len(cands))
	for sym := range cands {
		terms = append(terms, sym)
	}
	sortSymbols(terms)

	st := &stateTable{
		actions: map[symbol.Symbol]spec.Action{},
	}
	expecting := treeset.NewWithIntComparator()
	for _, term := range terms {
		cs := cands[term]
		sort.SliceStable(cs, func(i, j int) bool {
			return cs[i].less(cs[j])
		})

		winner, by, explicit, kind := resolver.resolve(cs, b.precAndAssoc.terminalPrecedence(term.Num()))
		st.actions[term] = cs[winner].action
		expecting.Add(term.Num().Int())
		if len(cs) == 1 {
			continue
		}

		text, _ := b.symTab.ToText(term)
		c := &Conflict{
			State:      state.num.Int(),
			Terminal:   text,
			Kind:       kind,
			Chosen:     winner,
			ResolvedBy: by,
			Explicit:   explicit,
		}
		for _, cand := range cs {
			ctd := &Contender{
				Action: cand.action,
			}
			if cand.action.Type == spec.ActionTypeReduce {
				ctd.Production = cand.prod.text(b.symTab, -1)
			}
			c.Contenders = append(c.Contenders, ctd)
		}
		st.conflicts = append(st.conflicts, c)
		b.conflicts = append(b.conflicts, c)
		tracer().Debugf("%v", c)
	}

	for _, v := range expecting.Values() {
		st.expecting = append(st.expecting, v.(int))
	}

	// A unique reduction becomes the default action, and the state no longer consults look-ahead
	// symbols.
	st.defaultAction = spec.Action{
		Type: spec.ActionTypeError,
	}
	if len(terms) > 0 {
		uniform := true
		def := st.actions[terms[0]]
		for _, term := range terms {
			act := st.actions[term]
			if act.Type != spec.ActionTypeReduce || act != def {
				uniform = false
				break
			}
		}
		if uniform {
			st.defaultAction = def
			st.defaultOnly = true
		}
	}

	prod, dot, err := b.recoveryItem(state)
	if err != nil {
		return nil, err
	}
	st.recoveryProd = prod
	st.recoveryDot = dot

	return st, nil
}

// recoveryItem chooses the kernel item panic-mode recovery completes when it abandons the state.
// It prefers a production having the #recover directive, then the item needing the fewest symbols
// to complete, then the lowest production number.
func (b *lrTableBuilder) recoveryItem(state *lrState) (*production, int, error) {
	arena := b.automaton.arena
	if len(state.kernel) == 0 {
		return nil, 0, fmt.Errorf("state %v has no kernel items", state.num)
	}

	better := func(x, y itemIndex) bool {
		px := arena.production(x)
		py := arena.production(y)
		if px.recover != py.recover {
			return px.recover
		}
		rx := px.rhsLen - arena.dot(x)
		ry := py.rhsLen - arena.dot(y)
		if rx != ry {
			return rx < ry
		}
		if px.num != py.num {
			return px.num < py.num
		}
		return arena.dot(x) < arena.dot(y)
	}

	best := state.kernel[0]
	for _, item := range state.kernel[1:] {
		if better(item, best) {
			best = item
		}
	}
	return arena.production(best), arena.dot(best), nil
}

func (b *lrTableBuilder) genReport(m *model, tab *parsingTable) (*spec.Report, error) {
	arena := b.automaton.arena
	pa := b.precAndAssoc

	var terms []*spec.Terminal
	for _, sym := range b.symTab.TerminalSymbols() {
		name, _ := b.symTab.ToText(sym)
		t := &spec.Terminal{
			Number:        sym.Num().Int(),
			Name:          name,
			Precedence:    pa.terminalPrecedence(sym.Num()),
			Associativity: string(pa.terminalAssociativity(sym.Num())),
		}
		if decl, ok := m.terminalDecl(sym); ok {
			t.Pattern = decl.pattern
			t.Literal = decl.literal
			t.Skip = decl.skip
		}
		terms = append(terms, t)
	}

	var nonTerms []*spec.NonTerminal
	for _, sym := range b.symTab.NonTerminalSymbols() {
		name, _ := b.symTab.ToText(sym)
		nonTerms = append(nonTerms, &spec.NonTerminal{
			Number: sym.Num().Int(),
			Name:   name,
		})
	}

	var prods []*spec.ReportProduction
	for _, p := range b.prods.getAllProductions() {
		prods = append(prods, &spec.ReportProduction{
			Number:        p.num.Int(),
			LHS:           p.lhs.Num().Int(),
			RHS:           encodeRHS(p),
			Text:          p.text(b.symTab, -1),
			Precedence:    pa.productionPrecedence(p.num),
			Associativity: string(pa.productionAssociativity(p.num)),
		})
	}

	var states []*spec.ReportState
	for _, state := range b.automaton.states {
		st := tab.states[state.num]
		rs := &spec.ReportState{
			Number:  state.num.Int(),
			Default: st.defaultAction,
			Recovery: &spec.Item{
				Production: st.recoveryProd.num.Int(),
				Dot:        st.recoveryDot,
				Text:       st.recoveryProd.text(b.symTab, st.recoveryDot),
			},
		}
		for _, item := range state.kernel {
			rs.Kernel = append(rs.Kernel, &spec.Item{
				Production: arena.production(item).num.Int(),
				Dot:        arena.dot(item),
				Text:       arena.text(b.symTab, item),
			})
		}
		for _, sym := range state.nextSymbols() {
			tr := &spec.Transition{
				Symbol: sym.Num().Int(),
				State:  state.next[sym].Int(),
			}
			if sym.IsTerminal() {
				rs.Shift = append(rs.Shift, tr)
			} else {
				rs.GoTo = append(rs.GoTo, tr)
			}
		}

		reduce := map[int]*treeset.Set{}
		for sym, act := range st.actions {
			switch act.Type {
			case spec.ActionTypeAccept:
				rs.Accept = true
			case spec.ActionTypeReduce:
				la, ok := reduce[act.Index]
				if !ok {
					la = treeset.NewWithIntComparator()
					reduce[act.Index] = la
				}
				la.Add(sym.Num().Int())
			}
		}
		prodNums := make([]int, 0, len(reduce))
		for num := range reduce {
			prodNums = append(prodNums, num)
		}
		sort.Ints(prodNums)
		for _, num := range prodNums {
			r := &spec.Reduce{
				Production: num,
			}
			for _, v := range reduce[num].Values() {
				r.LookAhead = append(r.LookAhead, v.(int))
			}
			rs.Reduce = append(rs.Reduce, r)
		}

		for _, c := range st.conflicts {
			sym, _ := b.symTab.ToSymbol(c.Terminal)
			rc := &spec.Conflict{
				Kind:       string(c.Kind),
				Terminal:   sym.Num().Int(),
				Chosen:     c.Chosen,
				ResolvedBy: string(c.ResolvedBy),
				Explicit:   c.Explicit,
			}
			for _, ctd := range c.Contenders {
				rc.Contenders = append(rc.Contenders, &spec.Contender{
					Production: ctd.Production,
					Action:     ctd.Action,
				})
			}
			rs.Conflicts = append(rs.Conflicts, rc)
		}

		states = append(states, rs)
	}

	return &spec.Report{
		Name:         m.name,
		Terminals:    terms,
		NonTerminals: nonTerms,
		Productions:  prods,
		States:       states,
	}, nil
}

// encodeRHS writes a terminal as its number and a non-terminal as its negated number.
func encodeRHS(p *production) []int {
	rhs := make([]int, len(p.rhs))
	for i, sym := range p.rhs {
		if sym.IsTerminal() {
			rhs[i] = sym.Num().Int()
		} else {
			rhs[i] = -sym.Num().Int()
		}
	}
	return rhs
}
