package grammar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/nihei9/lalrkit/grammar/symbol"
)

type productionID [32]byte

func (id productionID) String() string {
	return hex.EncodeToString(id[:])
}

func genProductionID(lhs symbol.Symbol, rhs []symbol.Symbol) productionID {
	seq := lhs.Byte()
	for _, sym := range rhs {
		seq = append(seq, sym.Byte()...)
	}
	return productionID(sha256.Sum256(seq))
}

type productionNum uint16

const (
	productionNumNil = productionNum(0)
	productionNumMin = productionNum(1)
)

func (n productionNum) Int() int {
	return int(n)
}

type production struct {
	id     productionID
	num    productionNum
	lhs    symbol.Symbol
	rhs    []symbol.Symbol
	rhsLen int

	// precSym is a terminal given by a #prec directive. When it is nil, the right-most terminal
	// of the RHS determines the precedence.
	precSym symbol.Symbol
	action  string
	recover bool
}

func newProduction(lhs symbol.Symbol, rhs []symbol.Symbol) (*production, error) {
	if lhs.IsNil() {
		return nil, fmt.Errorf("LHS must be a non-nil symbol; LHS: %v, RHS: %v", lhs, rhs)
	}
	if !lhs.IsNonTerminal() {
		return nil, fmt.Errorf("LHS must be a non-terminal symbol; LHS: %v, RHS: %v", lhs, rhs)
	}
	for _, sym := range rhs {
		if sym.IsNil() {
			return nil, fmt.Errorf("a symbol of RHS must be a non-nil symbol; LHS: %v, RHS: %v", lhs, rhs)
		}
	}

	return &production{
		id:     genProductionID(lhs, rhs),
		lhs:    lhs,
		rhs:    rhs,
		rhsLen: len(rhs),
	}, nil
}

func (p *production) isEmpty() bool {
	return p.rhsLen == 0
}

func (p *production) isAugmented() bool {
	return p.lhs.IsStart()
}

func (p *production) precedenceSymbol() symbol.Symbol {
	if !p.precSym.IsNil() {
		return p.precSym
	}
	for i := p.rhsLen - 1; i >= 0; i-- {
		if p.rhs[i].IsTerminal() {
			return p.rhs[i]
		}
	}
	return symbol.SymbolNil
}

// text renders a production like `expr → expr add term`. When dot is not negative, a `•` is
// placed at the position.
func (p *production) text(symTab *symbol.SymbolTableReader, dot int) string {
	var b strings.Builder
	lhs, _ := symTab.ToText(p.lhs)
	fmt.Fprintf(&b, "%v →", lhs)
	for i, sym := range p.rhs {
		if i == dot {
			fmt.Fprintf(&b, " •")
		}
		text, _ := symTab.ToText(sym)
		fmt.Fprintf(&b, " %v", text)
	}
	if dot >= p.rhsLen {
		fmt.Fprintf(&b, " •")
	}
	if p.isEmpty() && dot < 0 {
		fmt.Fprintf(&b, " ε")
	}
	return b.String()
}

type productionSet struct {
	lhs2Prods map[symbol.Symbol][]*production
	id2Prod   map[productionID]*production
	prods     []*production
}

func newProductionSet() *productionSet {
	return &productionSet{
		lhs2Prods: map[symbol.Symbol][]*production{},
		id2Prod:   map[productionID]*production{},
		prods:     []*production{nil},
	}
}

// append numbers prod in order of arrival. It returns false when the same production is already
// registered.
func (ps *productionSet) append(prod *production) bool {
	if _, ok := ps.id2Prod[prod.id]; ok {
		return false
	}

	prod.num = productionNum(len(ps.prods))
	ps.prods = append(ps.prods, prod)
	ps.lhs2Prods[prod.lhs] = append(ps.lhs2Prods[prod.lhs], prod)
	ps.id2Prod[prod.id] = prod

	return true
}

func (ps *productionSet) findByID(id productionID) (*production, bool) {
	prod, ok := ps.id2Prod[id]
	return prod, ok
}

func (ps *productionSet) findByNum(num productionNum) (*production, bool) {
	if num == productionNumNil || num.Int() >= len(ps.prods) {
		return nil, false
	}
	return ps.prods[num], true
}

func (ps *productionSet) findByLHS(lhs symbol.Symbol) ([]*production, bool) {
	if lhs.IsNil() {
		return nil, false
	}

	prods, ok := ps.lhs2Prods[lhs]
	return prods, ok
}

// getAllProductions returns the productions in ascending order of their numbers.
func (ps *productionSet) getAllProductions() []*production {
	return ps.prods[1:]
}

// count returns the length of the production number space, including the nil slot.
func (ps *productionSet) count() int {
	return len(ps.prods)
}
