package grammar

import (
	"fmt"

	"github.com/nihei9/lalrkit/grammar/symbol"
)

type lookAhead struct {
	symbols map[symbol.Symbol]struct{}

	// When propagation is true, the item also receives the look-ahead symbols of the kernel item
	// its closure started from. Such symbols are unknown until propagation finishes.
	propagation bool
}

type lr1Item struct {
	item      itemIndex
	lookAhead lookAhead
}

// itemRef points to a kernel item of a state.
type itemRef struct {
	state       stateNum
	kernelIndex int
}

type propagation struct {
	src  itemRef
	dest []itemRef
}

type lalr1Automaton struct {
	*lr0Automaton

	// lookAheads[s][i] is the look-ahead set of the i-th kernel item of state s.
	lookAheads [][]map[symbol.Symbol]struct{}

	// closures[s] is the LR(1) closure of state s. Items of the same LR(0) core are merged, so each
	// item appears once with the union of its look-ahead symbols.
	closures [][]*lr1Item
}

func genLALR1Automaton(lr0 *lr0Automaton, prods *productionSet, first *firstSet) (*lalr1Automaton, error) {
	automaton := &lalr1Automaton{
		lr0Automaton: lr0,
		lookAheads:   make([][]map[symbol.Symbol]struct{}, len(lr0.states)),
		closures:     make([][]*lr1Item, len(lr0.states)),
	}
	for _, state := range lr0.states {
		las := make([]map[symbol.Symbol]struct{}, len(state.kernel))
		for i := range las {
			las[i] = map[symbol.Symbol]struct{}{}
		}
		automaton.lookAheads[state.num] = las
	}

	// Set the look-ahead symbol <eof> to each initial item: [S' → ・S, <eof>]
	for _, num := range lr0.initialStates {
		automaton.lookAheads[num][0][symbol.SymbolEOF] = struct{}{}
	}

	var props []*propagation
	for _, state := range lr0.states {
		for i, kItem := range state.kernel {
			items := genLR1Closure(lr0.arena, prods, first, []*lr1Item{
				{
					item: kItem,
					lookAhead: lookAhead{
						propagation: true,
					},
				},
			})

			var dests []itemRef
			for _, item := range items {
				sym := lr0.arena.dottedSymbol(item.item)
				if sym.IsNil() {
					continue
				}
				nextNum, ok := state.next[sym]
				if !ok {
					return nil, fmt.Errorf("a transition was not found; state: %v, symbol: %v", state.num, sym)
				}
				nextItem, err := lr0.arena.advance(item.item)
				if err != nil {
					return nil, err
				}
				pos, ok := lr0.states[nextNum].kernel.position(nextItem)
				if !ok {
					return nil, fmt.Errorf("a kernel item was not found; state: %v, item: %v", nextNum, nextItem)
				}

				if item.lookAhead.propagation {
					dests = append(dests, itemRef{
						state:       nextNum,
						kernelIndex: pos,
					})
				}
				dest := automaton.lookAheads[nextNum][pos]
				for a := range item.lookAhead.symbols {
					dest[a] = struct{}{}
				}
			}
			if len(dests) == 0 {
				continue
			}

			props = append(props, &propagation{
				src: itemRef{
					state:       state.num,
					kernelIndex: i,
				},
				dest: dests,
			})
		}
	}

	propagateLookAhead(automaton.lookAheads, props)

	for _, state := range lr0.states {
		seeds := make([]*lr1Item, len(state.kernel))
		for i, kItem := range state.kernel {
			seeds[i] = &lr1Item{
				item: kItem,
				lookAhead: lookAhead{
					symbols: automaton.lookAheads[state.num][i],
				},
			}
		}
		closure := genLR1Closure(lr0.arena, prods, first, seeds)
		automaton.closures[state.num] = closure
	}

	return automaton, nil
}

// genLR1Closure returns the closure of seeds. The seeds come first in the result, and the other items
// follow in order of discovery.
func genLR1Closure(arena *itemArena, prods *productionSet, first *firstSet, seeds []*lr1Item) []*lr1Item {
	var items []*lr1Item
	index := map[itemIndex]*lr1Item{}
	var queue []itemIndex
	queued := map[itemIndex]bool{}
	for _, seed := range seeds {
		item := &lr1Item{
			item: seed.item,
			lookAhead: lookAhead{
				symbols:     map[symbol.Symbol]struct{}{},
				propagation: seed.lookAhead.propagation,
			},
		}
		for a := range seed.lookAhead.symbols {
			item.lookAhead.symbols[a] = struct{}{}
		}
		items = append(items, item)
		index[seed.item] = item
		queue = append(queue, seed.item)
		queued[seed.item] = true
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		queued[cur] = false

		sym := arena.dottedSymbol(cur)
		if !sym.IsNonTerminal() {
			continue
		}
		src := index[cur]
		fst := first.afterDot(cur)

		ps, _ := prods.findByLHS(sym)
		for _, prod := range ps {
			newItem := arena.item(prod, 0)
			target, known := index[newItem]
			changed := !known
			if !known {
				target = &lr1Item{
					item: newItem,
					lookAhead: lookAhead{
						symbols: map[symbol.Symbol]struct{}{},
					},
				}
				items = append(items, target)
				index[newItem] = target
			}

			for a := range fst.symbols {
				if _, ok := target.lookAhead.symbols[a]; !ok {
					target.lookAhead.symbols[a] = struct{}{}
					changed = true
				}
			}
			if fst.empty {
				for a := range src.lookAhead.symbols {
					if _, ok := target.lookAhead.symbols[a]; !ok {
						target.lookAhead.symbols[a] = struct{}{}
						changed = true
					}
				}
				if src.lookAhead.propagation && !target.lookAhead.propagation {
					target.lookAhead.propagation = true
					changed = true
				}
			}

			if changed && !queued[newItem] {
				queue = append(queue, newItem)
				queued[newItem] = true
			}
		}
	}

	return items
}

// propagateLookAhead floods look-ahead symbols along the propagation edges until no set grows.
func propagateLookAhead(lookAheads [][]map[symbol.Symbol]struct{}, props []*propagation) {
	rounds := 0
	for {
		rounds++
		changed := false
		for _, prop := range props {
			src := lookAheads[prop.src.state][prop.src.kernelIndex]
			for _, dest := range prop.dest {
				dst := lookAheads[dest.state][dest.kernelIndex]
				for a := range src {
					if _, ok := dst[a]; ok {
						continue
					}
					dst[a] = struct{}{}
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	tracer().Debugf("look-ahead propagation: %v edges, %v rounds", len(props), rounds)
}
