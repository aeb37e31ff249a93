package grammar

import (
	"fmt"

	"github.com/nihei9/lalrkit/grammar/symbol"
)

// firstEntry is a set of terminals. empty means the set contains ε as well.
type firstEntry struct {
	symbols map[symbol.Symbol]struct{}
	empty   bool
}

func newFirstEntry(empty bool, syms ...symbol.Symbol) *firstEntry {
	e := &firstEntry{
		symbols: make(map[symbol.Symbol]struct{}, len(syms)),
		empty:   empty,
	}
	for _, sym := range syms {
		e.symbols[sym] = struct{}{}
	}
	return e
}

func (e *firstEntry) union(o *firstEntry) {
	for sym := range o.symbols {
		e.symbols[sym] = struct{}{}
	}
}

// sortedSymbols returns the terminal symbols in ascending order. It doesn't contain ε.
func (e *firstEntry) sortedSymbols() []symbol.Symbol {
	syms := make([]symbol.Symbol, 0, len(e.symbols))
	for sym := range e.symbols {
		syms = append(syms, sym)
	}
	sortSymbols(syms)
	return syms
}

// firstSet holds FIRST of every non-terminal and, for every item `A → α • β` of the arena, FIRST(β).
type firstSet struct {
	nonTerms map[symbol.Symbol]*firstEntry
	items    []*firstEntry
}

// item returns FIRST(β) of an item `A → α • β`. It contains only ε for a reducible item.
func (fst *firstSet) item(item itemIndex) *firstEntry {
	return fst.items[item]
}

// afterDot returns FIRST(β) of an item `A → α • X β`.
func (fst *firstSet) afterDot(item itemIndex) *firstEntry {
	return fst.items[item+1]
}

func (fst *firstSet) nonTerminal(sym symbol.Symbol) *firstEntry {
	return fst.nonTerms[sym]
}

// genFirstSet computes FIRST in three passes: nullable non-terminals, then FIRST of each
// non-terminal over the graph of non-terminals a derivation can begin with, then FIRST of every
// item suffix from right to left.
func genFirstSet(prods *productionSet, arena *itemArena) (*firstSet, error) {
	all := prods.getAllProductions()
	for _, prod := range all {
		for _, sym := range prod.rhs {
			if !sym.IsNonTerminal() {
				continue
			}
			if _, ok := prods.findByLHS(sym); !ok {
				return nil, fmt.Errorf("an entry of FIRST was not found; symbol: %s", sym)
			}
		}
	}

	nullable := genNullable(all)

	direct := map[symbol.Symbol][]symbol.Symbol{}
	begins := map[symbol.Symbol][]symbol.Symbol{}
	for _, prod := range all {
		if _, ok := direct[prod.lhs]; !ok {
			direct[prod.lhs] = nil
		}
		for _, sym := range prod.rhs {
			if sym.IsTerminal() {
				direct[prod.lhs] = append(direct[prod.lhs], sym)
				break
			}
			begins[prod.lhs] = append(begins[prod.lhs], sym)
			if !nullable[sym] {
				break
			}
		}
	}

	fst := &firstSet{
		nonTerms: make(map[symbol.Symbol]*firstEntry, len(direct)),
		items:    make([]*firstEntry, len(arena.prods)),
	}
	for lhs := range direct {
		e := newFirstEntry(nullable[lhs])
		for _, nt := range beginners(lhs, begins) {
			for _, sym := range direct[nt] {
				e.symbols[sym] = struct{}{}
			}
		}
		fst.nonTerms[lhs] = e
	}

	for _, prod := range all {
		next := newFirstEntry(true)
		fst.items[arena.item(prod, prod.rhsLen)] = next
		for dot := prod.rhsLen - 1; dot >= 0; dot-- {
			sym := prod.rhs[dot]
			var e *firstEntry
			if sym.IsTerminal() {
				e = newFirstEntry(false, sym)
			} else {
				nt := fst.nonTerms[sym]
				e = newFirstEntry(nt.empty && next.empty)
				e.union(nt)
				if nt.empty {
					e.union(next)
				}
			}
			fst.items[arena.item(prod, dot)] = e
			next = e
		}
	}

	tracer().Debugf("FIRST sets of %v non-terminals and %v items", len(fst.nonTerms), len(fst.items))

	return fst, nil
}

// genNullable finds the non-terminals deriving ε. Each production without terminals counts the RHS
// symbols not yet known to be nullable, and its LHS becomes nullable when the count reaches zero.
func genNullable(prods []*production) map[symbol.Symbol]bool {
	nullable := map[symbol.Symbol]bool{}
	pending := make([]int, len(prods))
	uses := map[symbol.Symbol][]int{}
	var queue []symbol.Symbol
	markNullable := func(sym symbol.Symbol) {
		if nullable[sym] {
			return
		}
		nullable[sym] = true
		queue = append(queue, sym)
	}

	for i, prod := range prods {
		if hasTerminal(prod) {
			pending[i] = -1
			continue
		}
		pending[i] = prod.rhsLen
		for _, sym := range prod.rhs {
			uses[sym] = append(uses[sym], i)
		}
		if pending[i] == 0 {
			markNullable(prod.lhs)
		}
	}

	for len(queue) > 0 {
		sym := queue[0]
		queue = queue[1:]
		for _, i := range uses[sym] {
			pending[i]--
			if pending[i] == 0 {
				markNullable(prods[i].lhs)
			}
		}
	}
	return nullable
}

func hasTerminal(prod *production) bool {
	for _, sym := range prod.rhs {
		if sym.IsTerminal() {
			return true
		}
	}
	return false
}

// beginners returns sym and every non-terminal a derivation of sym can begin with.
func beginners(sym symbol.Symbol, begins map[symbol.Symbol][]symbol.Symbol) []symbol.Symbol {
	seen := map[symbol.Symbol]bool{
		sym: true,
	}
	stack := []symbol.Symbol{sym}
	var syms []symbol.Symbol
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		syms = append(syms, s)
		for _, b := range begins[s] {
			if !seen[b] {
				seen[b] = true
				stack = append(stack, b)
			}
		}
	}
	return syms
}
