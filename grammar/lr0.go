package grammar

import (
	"fmt"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/nihei9/lalrkit/grammar/symbol"
)

type lr0Automaton struct {
	arena *itemArena

	// states is in discovery order. The initial states come first, one per start symbol.
	states        []*lrState
	key2State     map[string]stateNum
	initialStates []stateNum
}

func genLR0Automaton(prods *productionSet, starts []*startSymbol) (*lr0Automaton, error) {
	if len(starts) == 0 {
		return nil, fmt.Errorf("at least one start symbol is needed")
	}

	automaton := &lr0Automaton{
		arena:     newItemArena(prods),
		key2State: map[string]stateNum{},
	}

	// The worklist holds state numbers; a FIFO order makes state numbers follow discovery order.
	worklist := arraylist.New()

	for _, st := range starts {
		if !st.augSym.IsStart() {
			return nil, fmt.Errorf("passed symbol is not an augmented start symbol: %v", st.augSym)
		}
		k, err := newKernel([]itemIndex{automaton.arena.item(st.prod, 0)})
		if err != nil {
			return nil, err
		}
		num, isNew := automaton.register(k)
		automaton.initialStates = append(automaton.initialStates, num)
		if isNew {
			worklist.Add(num)
		}
	}

	for !worklist.Empty() {
		v, _ := worklist.Get(0)
		worklist.Remove(0)
		state := automaton.states[v.(stateNum)]

		items := genLR0Closure(automaton.arena, state.kernel, prods)
		neighbours, err := genNeighbourKernels(automaton.arena, items)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbours {
			num, isNew := automaton.register(n.kernel)
			state.next[n.symbol] = num
			if isNew {
				worklist.Add(num)
			}
		}
		for _, item := range items {
			if automaton.arena.reducible(item) && automaton.arena.production(item).isEmpty() {
				state.emptyProdItems = append(state.emptyProdItems, item)
			}
		}
	}

	tracer().Debugf("LR(0) automaton: %v states", len(automaton.states))

	return automaton, nil
}

// register returns the state having the kernel k, allocating a new state when no state has it.
func (a *lr0Automaton) register(k kernel) (stateNum, bool) {
	key := k.key()
	if num, ok := a.key2State[key]; ok {
		return num, false
	}
	num := stateNum(len(a.states))
	a.states = append(a.states, &lrState{
		num:    num,
		kernel: k,
		next:   map[symbol.Symbol]stateNum{},
	})
	a.key2State[key] = num
	return num, true
}

func genLR0Closure(arena *itemArena, k kernel, prods *productionSet) []itemIndex {
	items := make([]itemIndex, 0, len(k))
	known := map[itemIndex]struct{}{}
	for _, item := range k {
		items = append(items, item)
		known[item] = struct{}{}
	}
	for i := 0; i < len(items); i++ {
		sym := arena.dottedSymbol(items[i])
		if !sym.IsNonTerminal() {
			continue
		}
		ps, _ := prods.findByLHS(sym)
		for _, prod := range ps {
			item := arena.item(prod, 0)
			if _, ok := known[item]; ok {
				continue
			}
			known[item] = struct{}{}
			items = append(items, item)
		}
	}
	return items
}

type neighbourKernel struct {
	symbol symbol.Symbol
	kernel kernel
}

// genNeighbourKernels returns the kernels GOTO(items, X) for every symbol X following a dot, in
// ascending order of X.
func genNeighbourKernels(arena *itemArena, items []itemIndex) ([]*neighbourKernel, error) {
	kItemMap := map[symbol.Symbol][]itemIndex{}
	for _, item := range items {
		sym := arena.dottedSymbol(item)
		if sym.IsNil() {
			continue
		}
		next, err := arena.advance(item)
		if err != nil {
			return nil, err
		}
		kItemMap[sym] = append(kItemMap[sym], next)
	}

	syms := make([]symbol.Symbol, 0, len(kItemMap))
	for sym := range kItemMap {
		syms = append(syms, sym)
	}
	sortSymbols(syms)

	kernels := make([]*neighbourKernel, 0, len(syms))
	for _, sym := range syms {
		k, err := newKernel(kItemMap[sym])
		if err != nil {
			return nil, err
		}
		kernels = append(kernels, &neighbourKernel{
			symbol: sym,
			kernel: k,
		})
	}
	return kernels, nil
}
