package grammar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nihei9/lalrkit/grammar/symbol"
)

// itemIndex identifies an LR(0) item. The items of a production occupy consecutive indexes, so the
// item `A → α • β` of production p is base[p] + len(α).
type itemIndex int

type itemArena struct {
	base  []int
	prods []*production
	dots  []int
}

func newItemArena(prods *productionSet) *itemArena {
	a := &itemArena{
		base: make([]int, prods.count()),
	}
	for _, prod := range prods.getAllProductions() {
		a.base[prod.num] = len(a.prods)
		for dot := 0; dot <= prod.rhsLen; dot++ {
			a.prods = append(a.prods, prod)
			a.dots = append(a.dots, dot)
		}
	}
	return a
}

func (a *itemArena) item(prod *production, dot int) itemIndex {
	return itemIndex(a.base[prod.num] + dot)
}

func (a *itemArena) production(item itemIndex) *production {
	return a.prods[item]
}

func (a *itemArena) dot(item itemIndex) int {
	return a.dots[item]
}

// dottedSymbol returns the symbol right after the dot. It returns SymbolNil for a reducible item.
//
// E → E + T
//
// Dot | Dotted Symbol | Item
// ----+---------------+------------
// 0   | E             | E →・E + T
// 1   | +             | E → E・+ T
// 2   | T             | E → E +・T
// 3   | Nil           | E → E + T・
func (a *itemArena) dottedSymbol(item itemIndex) symbol.Symbol {
	prod := a.prods[item]
	dot := a.dots[item]
	if dot >= prod.rhsLen {
		return symbol.SymbolNil
	}
	return prod.rhs[dot]
}

func (a *itemArena) reducible(item itemIndex) bool {
	return a.dots[item] == a.prods[item].rhsLen
}

// advance returns the item whose dot moves one symbol to the right.
func (a *itemArena) advance(item itemIndex) (itemIndex, error) {
	if a.reducible(item) {
		return 0, fmt.Errorf("a reducible item cannot be advanced: %v", a.prods[item].num)
	}
	return item + 1, nil
}

// isKernel reports whether the item can appear in a kernel: either an initial item `S' → • S` or
// an item whose dot is not at the beginning.
func (a *itemArena) isKernel(item itemIndex) bool {
	return a.dots[item] > 0 || a.prods[item].isAugmented()
}

func (a *itemArena) text(symTab *symbol.SymbolTableReader, item itemIndex) string {
	return a.prods[item].text(symTab, a.dots[item])
}

// kernel is a sorted set of kernel items. Two states are the same when their kernels are equal.
type kernel []itemIndex

func newKernel(items []itemIndex) (kernel, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("a kernel needs at least one item")
	}

	k := make(kernel, 0, len(items))
	seen := map[itemIndex]struct{}{}
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		k = append(k, item)
	}
	sort.Slice(k, func(i, j int) bool {
		return k[i] < k[j]
	})
	return k, nil
}

func (k kernel) key() string {
	var b strings.Builder
	for i, item := range k {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(item)))
	}
	return b.String()
}

// position returns the index of item within the kernel.
func (k kernel) position(item itemIndex) (int, bool) {
	i := sort.Search(len(k), func(i int) bool {
		return k[i] >= item
	})
	if i < len(k) && k[i] == item {
		return i, true
	}
	return 0, false
}

type stateNum int

func (n stateNum) Int() int {
	return int(n)
}

func (n stateNum) String() string {
	return strconv.Itoa(int(n))
}

type lrState struct {
	num    stateNum
	kernel kernel

	// next is frozen once the LR(0) automaton is built.
	next map[symbol.Symbol]stateNum

	// emptyProdItems stores items like `p → ・ε`. The kernel never contains them, but their
	// look-ahead symbols decide when the state reduces the ε-production.
	//
	// s' → s
	// s → A | ε
	//
	// CLOSURE({s' → ・s}) generates the following closure, but the kernel of this closure doesn't
	// include `s → ・ε`.
	//
	// s' → ・s
	// s → ・A
	// s → ・ε
	emptyProdItems []itemIndex
}

// nextSymbols returns the symbols having transitions in ascending order.
func (s *lrState) nextSymbols() []symbol.Symbol {
	syms := make([]symbol.Symbol, 0, len(s.next))
	for sym := range s.next {
		syms = append(syms, sym)
	}
	sortSymbols(syms)
	return syms
}

func sortSymbols(syms []symbol.Symbol) {
	sort.Slice(syms, func(i, j int) bool {
		return syms[i] < syms[j]
	})
}
