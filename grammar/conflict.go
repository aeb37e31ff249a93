package grammar

import (
	"fmt"
	"strings"

	spec "github.com/nihei9/lalrkit/spec/grammar"
)

type ConflictKind string

const (
	ConflictKindShiftReduce  = ConflictKind("shift/reduce")
	ConflictKindReduceReduce = ConflictKind("reduce/reduce")
)

type ResolvedBy string

const (
	// ResolvedByShift means a shift won because the terminal or the production has no precedence.
	ResolvedByShift = ResolvedBy("shift")

	ResolvedByPrec  = ResolvedBy("precedence")
	ResolvedByAssoc = ResolvedBy("associativity")

	// ResolvedByNonAssoc means a shift won a tie between operands of a non-associative precedence
	// level.
	ResolvedByNonAssoc = ResolvedBy("non-associativity")

	ResolvedByProdOrder = ResolvedBy("production order")

	// ResolvedByAccept means an accept action beat reductions on <eof>.
	ResolvedByAccept = ResolvedBy("accept")
)

// explicit reports whether a precedence or associativity declaration settled the comparison.
func (r ResolvedBy) explicit() bool {
	return r == ResolvedByPrec || r == ResolvedByAssoc
}

// Contender is one of the actions competing on a terminal. Production is empty for a shift and
// for an accept.
type Contender struct {
	Production string
	Action     spec.Action
}

type Conflict struct {
	State      int
	Terminal   string
	Kind       ConflictKind
	Contenders []*Contender

	// Chosen is the index of the winning contender.
	Chosen int

	// ResolvedBy is the method of the comparison the winner won last.
	ResolvedBy ResolvedBy

	// Explicit is true when declarations settled every comparison.
	Explicit bool
}

func (c *Conflict) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v conflict on '%v' in state %v; resolved by %v", c.Kind, c.Terminal, c.State, c.ResolvedBy)
	for i, ctd := range c.Contenders {
		mark := " "
		if i == c.Chosen {
			mark = "*"
		}
		if ctd.Production == "" {
			fmt.Fprintf(&b, "\n  %v %v", mark, ctd.Action)
		} else {
			fmt.Fprintf(&b, "\n  %v %v: %v", mark, ctd.Action, ctd.Production)
		}
	}
	return b.String()
}

type candidate struct {
	action spec.Action

	// prod is the production a reduce or accept action refers to. It is nil for a shift.
	prod *production
}

// rank orders candidates: a shift, an accept, then reductions by production number.
func (c *candidate) rank() (int, int) {
	switch c.action.Type {
	case spec.ActionTypeShift:
		return 0, 0
	case spec.ActionTypeAccept:
		return 1, c.action.Index
	}
	return 2, c.action.Index
}

func (c *candidate) less(o *candidate) bool {
	c1, c2 := c.rank()
	o1, o2 := o.rank()
	if c1 != o1 {
		return c1 < o1
	}
	return c2 < o2
}

type conflictResolver struct {
	precAndAssoc *precAndAssoc
}

// resolveShiftReduce compares a shift on term with a reduction of prod. It returns true when the
// shift wins.
func (r *conflictResolver) resolveShiftReduce(term *candidate, termPrec int, reduce *candidate) (bool, ResolvedBy) {
	prodPrec := r.precAndAssoc.productionPrecedence(reduce.prod.num)
	if termPrec == precNil || prodPrec == precNil {
		return true, ResolvedByShift
	}
	if termPrec > prodPrec {
		return true, ResolvedByPrec
	}
	if termPrec < prodPrec {
		return false, ResolvedByPrec
	}
	switch r.precAndAssoc.productionAssociativity(reduce.prod.num) {
	case AssocLeft:
		return false, ResolvedByAssoc
	case AssocRight:
		return true, ResolvedByAssoc
	}
	return true, ResolvedByNonAssoc
}

// resolveReduceReduce returns true when a wins over b. a must precede b in candidate order.
func (r *conflictResolver) resolveReduceReduce(a, b *candidate) (bool, ResolvedBy) {
	if a.action.Type == spec.ActionTypeAccept {
		return true, ResolvedByAccept
	}
	if b.action.Type == spec.ActionTypeAccept {
		return false, ResolvedByAccept
	}
	aPrec := r.precAndAssoc.productionPrecedence(a.prod.num)
	bPrec := r.precAndAssoc.productionPrecedence(b.prod.num)
	if aPrec != precNil && bPrec != precNil && aPrec != bPrec {
		return aPrec > bPrec, ResolvedByPrec
	}
	return a.prod.num < b.prod.num, ResolvedByProdOrder
}

// resolve picks one of sorted candidates. With a single candidate, it returns no conflict.
func (r *conflictResolver) resolve(cands []*candidate, termPrec int) (int, ResolvedBy, bool, ConflictKind) {
	if len(cands) == 1 {
		return 0, "", true, ""
	}

	kind := ConflictKindReduceReduce
	if cands[0].action.Type == spec.ActionTypeShift {
		kind = ConflictKindShiftReduce
	}

	winner := 0
	var by ResolvedBy
	explicit := true
	for i := 1; i < len(cands); i++ {
		var keep bool
		if cands[winner].action.Type == spec.ActionTypeShift {
			keep, by = r.resolveShiftReduce(cands[winner], termPrec, cands[i])
		} else {
			keep, by = r.resolveReduceReduce(cands[winner], cands[i])
		}
		if !by.explicit() {
			explicit = false
		}
		if !keep {
			winner = i
		}
	}
	return winner, by, explicit, kind
}
