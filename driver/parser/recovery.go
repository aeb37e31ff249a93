package parser

import (
	"fmt"

	spec "github.com/nihei9/lalrkit/spec/grammar"
)

// missingToken is a terminal error recovery inserts in front of the offending token.
type missingToken struct {
	terminal int
	row      int
	col      int
	span     Span
}

func (t *missingToken) TerminalID() int {
	return t.terminal
}

func (t *missingToken) Lexeme() []byte {
	return nil
}

func (t *missingToken) EOF() bool {
	return false
}

func (t *missingToken) Invalid() bool {
	return false
}

func (t *missingToken) Position() (int, int) {
	return t.row, t.col
}

func (t *missingToken) Span() Span {
	return t.span
}

// recoverFromError makes the parser able to act on the look-ahead token again. It tries, in this
// order, deleting the token, inserting a missing terminal, and panic mode. When the recovery ends
// with accepting the input, it returns true and the value of the start symbol.
func (p *Parser) recoverFromError() (bool, interface{}, error) {
	tok, err := p.peek(0)
	if err != nil {
		return false, nil, err
	}
	top := p.stack.top()
	p.recovering = true

	// The last panic resumed at this token and the parser still cannot shift it.
	if p.panicTok != nil && p.panicTok == tok {
		p.panicTok = nil
		if tok.EOF() {
			tracer().Debugf("unwinding to accept at <eof>")
			v, err := p.unwind()
			return err == nil, v, err
		}
		tracer().Debugf("discarding %q after a failed panic", tok.Lexeme())
		_, err := p.read()
		return false, nil, err
	}

	if !tok.EOF() {
		next, err := p.peek(1)
		if err != nil {
			return false, nil, err
		}
		if _, _, ok := p.simulate(p.stack.states, next.TerminalID()); ok {
			tracer().Debugf("deleting %q in state %v", tok.Lexeme(), top)
			p.report(SyntaxErrorKindUnexpected, tok, top, 0)
			_, err := p.read()
			return false, nil, err
		}
	}

	if term, ok := p.insertion(tok); ok {
		tracer().Debugf("inserting %v before %q in state %v", p.gram.Terminal(term), tok.Lexeme(), top)
		p.report(SyntaxErrorKindMissing, tok, top, term)
		row, col := tok.Position()
		start := tok.Span().Start
		p.unread(&missingToken{
			terminal: term,
			row:      row,
			col:      col,
			span:     Span{Start: start, End: start},
		})
		return false, nil, nil
	}

	return p.panicMode(tok)
}

// simulate runs the actions on terminal `term` over a copy of `states` until the terminal is
// shifted or accepted. It returns the first action and the resulting state stack.
func (p *Parser) simulate(states []int, term int) (spec.Action, []int, bool) {
	sts := make([]int, len(states))
	copy(sts, states)
	var first spec.Action
	for i := 0; ; i++ {
		act := p.gram.Action(sts[len(sts)-1], term)
		if i == 0 {
			first = act
		}
		switch act.Type {
		case spec.ActionTypeShift:
			return first, append(sts, act.Index), true
		case spec.ActionTypeAccept:
			return first, sts, true
		case spec.ActionTypeReduce:
			n := p.gram.AlternativeSymbolCount(act.Index)
			if n >= len(sts) {
				return first, nil, false
			}
			sts = sts[:len(sts)-n]
			next := p.gram.GoTo(sts[len(sts)-1], p.gram.LHS(act.Index))
			if next == spec.GoToNil {
				return first, nil, false
			}
			sts = append(sts, next)
		default:
			return first, nil, false
		}
	}
}

// insertion finds a terminal after which the parser can act on `tok`. Candidates are ranked by the
// action `tok` gets after the inserted terminal: a shift beats a reduction, and a reduction beats
// accepting. Ties go to the smaller action index, then to the smaller terminal.
func (p *Parser) insertion(tok VToken) (int, bool) {
	var best spec.Action
	bestTerm := 0
	for _, term := range p.gram.Expected(p.stack.top()) {
		if term == p.gram.EOF() || term == p.gram.Error() {
			continue
		}
		_, sts, ok := p.simulate(p.stack.states, term)
		if !ok {
			continue
		}
		act, _, ok := p.simulate(sts, tok.TerminalID())
		if !ok {
			continue
		}
		if bestTerm == 0 || act.Less(best) {
			best = act
			bestTerm = term
		}
	}
	return bestTerm, bestTerm != 0
}

func (p *Parser) report(kind SyntaxErrorKind, tok VToken, state int, missing int) {
	row, col := tok.Position()
	synErr := &SyntaxError{
		Kind:              kind,
		Row:               row,
		Col:               col,
		Span:              tok.Span(),
		Token:             tok,
		ExpectedTerminals: p.expectedTerminals(state),
	}
	if kind == SyntaxErrorKindMissing {
		synErr.Terminal = p.gram.Terminal(missing)
		synErr.TerminalAlias = p.gram.TerminalAlias(missing)
		synErr.Span = Span{Start: tok.Span().Start, End: tok.Span().Start}
	}
	p.synErrs = append(p.synErrs, synErr)
	if p.onSynErr != nil {
		p.onSynErr(synErr)
	}
}

type recoveryStep struct {
	// pop means discarding the top frame. Otherwise the step completes the recovery item
	// (prod, dot) of the top state.
	pop  bool
	prod int
	dot  int
}

// recoveryLevel is a state stack panic mode can resume at.
type recoveryLevel struct {
	states []int

	// steps is the number of recovery steps leading to the level.
	steps int

	// accept is true for the level where completing the augmented start production accepts the
	// input.
	accept bool
}

// recoveryLevels unwinds a copy of the state stack by completing the recovery item of each top
// state. When the GOTO entry of a completed production is undefined, the frame is discarded
// instead. The last level accepts; a stack that cannot reach it is unrecoverable.
func (p *Parser) recoveryLevels() ([]*recoveryLevel, []recoveryStep, error) {
	sts := make([]int, len(p.stack.states))
	copy(sts, p.stack.states)
	levels := []*recoveryLevel{
		{
			states: sts,
		},
	}
	var steps []recoveryStep
	visited := map[[2]int]struct{}{}
	for {
		top := sts[len(sts)-1]
		prod, dot := p.gram.RecoveryItem(top)
		key := [2]int{len(sts), top}
		_, seen := visited[key]
		visited[key] = struct{}{}

		if !seen && prod > 0 && dot < len(sts) {
			if p.gram.Augmented(prod) {
				steps = append(steps, recoveryStep{
					prod: prod,
					dot:  dot,
				})
				levels = append(levels, &recoveryLevel{
					states: sts,
					steps:  len(steps),
					accept: true,
				})
				return levels, steps, nil
			}
			if dot > 0 {
				base := sts[:len(sts)-dot]
				next := p.gram.GoTo(base[len(base)-1], p.gram.LHS(prod))
				if next != spec.GoToNil {
					nextSts := make([]int, len(base), len(base)+1)
					copy(nextSts, base)
					sts = append(nextSts, next)
					steps = append(steps, recoveryStep{
						prod: prod,
						dot:  dot,
					})
					levels = append(levels, &recoveryLevel{
						states: sts,
						steps:  len(steps),
					})
					continue
				}
			}
		}

		if len(sts) <= 1 {
			return nil, nil, fmt.Errorf("cannot recover from the syntax error: the stack cannot be unwound")
		}
		nextSts := make([]int, len(sts)-1)
		copy(nextSts, sts)
		sts = nextSts
		steps = append(steps, recoveryStep{
			pop: true,
		})
		levels = append(levels, &recoveryLevel{
			states: sts,
			steps:  len(steps),
		})
	}
}

// panicMode discards tokens until one of the recovery levels can act on the look-ahead token, then
// completes the stack down to that level. At <eof>, the stack is completed down to the accepting
// level.
func (p *Parser) panicMode(tok VToken) (bool, interface{}, error) {
	p.report(SyntaxErrorKindUnexpected, tok, p.stack.top(), 0)
	levels, steps, err := p.recoveryLevels()
	if err != nil {
		return false, nil, err
	}
	tracer().Debugf("panic at state %v: %v recovery levels", p.stack.top(), len(levels))

	discarded := 0
	for {
		tok, err := p.peek(0)
		if err != nil {
			return false, nil, err
		}
		for _, lv := range levels {
			if lv.accept {
				continue
			}
			if _, _, ok := p.simulate(lv.states, tok.TerminalID()); !ok {
				continue
			}
			tracer().Debugf("panic resumes at %q after discarding %v tokens and %v recovery steps", tok.Lexeme(), discarded, lv.steps)
			if _, _, err := p.completeRecovery(steps[:lv.steps]); err != nil {
				return false, nil, err
			}
			p.panicTok = tok
			return false, nil, nil
		}
		if tok.EOF() {
			return p.completeRecovery(steps)
		}
		if _, err := p.read(); err != nil {
			return false, nil, err
		}
		discarded++
	}
}

// completeRecovery applies recovery steps to the real stack. The symbols after the dot of a
// completed item are synthesized as missing symbols.
func (p *Parser) completeRecovery(steps []recoveryStep) (bool, interface{}, error) {
	for _, st := range steps {
		if st.pop {
			p.stack.pop(1)
			continue
		}
		synth := p.synthesize(p.gram.RHS(st.prod)[st.dot:])
		if p.gram.Augmented(st.prod) {
			// With nothing read, the start symbol itself is missing.
			if st.dot == 0 {
				v := synth[0].Value
				p.semAct.Accept(v)
				return true, v, nil
			}
			return true, p.accept(), nil
		}
		if err := p.reduce(st.prod, synth, true); err != nil {
			return false, nil, err
		}
	}
	return false, nil, nil
}

// synthesize makes zero-width missing symbols at the pending offset. `syms` is encoded as the RHS of
// a production: a terminal is positive and a non-terminal is negated.
func (p *Parser) synthesize(syms []int) []*Child {
	off := p.pendingOffset()
	synth := make([]*Child, 0, len(syms))
	for _, sym := range syms {
		span := Span{Start: off, End: off}
		synth = append(synth, &Child{
			Value:   p.semAct.Missing(sym, span),
			Span:    span,
			Missing: true,
		})
	}
	return synth
}

// unwind completes the stack down to the accepting level without reading more tokens.
func (p *Parser) unwind() (interface{}, error) {
	_, steps, err := p.recoveryLevels()
	if err != nil {
		return nil, err
	}
	_, v, err := p.completeRecovery(steps)
	return v, err
}
