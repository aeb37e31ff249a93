package parser

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/npillmayer/schuko/tracing"

	spec "github.com/nihei9/lalrkit/spec/grammar"
)

func tracer() tracing.Trace {
	return tracing.Select("lalrkit.parser")
}

// ErrCancelled is returned by Parse when Cancel stopped it. Parse still returns the value the
// parser completed from what it had read.
var ErrCancelled = errors.New("parsing cancelled")

type parserState int32

const (
	parserStateReady parserState = iota
	parserStateCancelled
	parserStateFinished
)

type ParserOption func(p *Parser) error

// StartSymbol selects the start symbol to parse. Without this option, the parser uses the first
// start symbol of the grammar.
func StartSymbol(name string) ParserOption {
	return func(p *Parser) error {
		p.start = name
		return nil
	}
}

func SemanticAction(semAct SemanticActionSet) ParserOption {
	return func(p *Parser) error {
		p.semAct = semAct
		return nil
	}
}

// Actions binds functions to the action handles of productions. It replaces a semantic action set
// given by SemanticAction.
func Actions(actions map[string]ActionFunc) ParserOption {
	return func(p *Parser) error {
		p.semAct = NewValueActionSet(p.gram, actions)
		return nil
	}
}

// OnSyntaxError registers a function called for every syntax error the parser recovers from.
func OnSyntaxError(f func(synErr *SyntaxError)) ParserOption {
	return func(p *Parser) error {
		p.onSynErr = f
		return nil
	}
}

type Parser struct {
	gram     Grammar
	toks     TokenStream
	semAct   SemanticActionSet
	onSynErr func(*SyntaxError)
	start    string
	state    atomic.Int32

	stack   *stack
	peeked  []VToken
	lastEnd int
	synErrs []*SyntaxError

	// recovering is true from a recovery until the next shift.
	recovering bool

	// panicTok is the token the last panic-mode recovery started at. A shift clears it.
	panicTok VToken
}

func NewParser(gram Grammar, toks TokenStream, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		gram: gram,
		toks: toks,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.semAct == nil {
		p.semAct = NewValueActionSet(gram, nil)
	}
	return p, nil
}

// Cancel stops a parser. It is safe to call from any goroutine.
func (p *Parser) Cancel() {
	p.state.CompareAndSwap(int32(parserStateReady), int32(parserStateCancelled))
}

// SyntaxErrors returns the syntax errors the parser recovered from.
func (p *Parser) SyntaxErrors() []*SyntaxError {
	return p.synErrs
}

// Parse runs the parser until it accepts the input and returns the value of the start symbol.
// Syntax errors do not stop the parser; see SyntaxErrors.
func (p *Parser) Parse() (interface{}, error) {
	if parserState(p.state.Load()) == parserStateFinished {
		return nil, fmt.Errorf("a parser can run only once")
	}
	initial, err := p.gram.InitialState(p.start)
	if err != nil {
		return nil, err
	}
	p.stack, err = borrowStack(initial)
	if err != nil {
		return nil, err
	}
	defer func() {
		releaseStack(p.stack)
		p.stack = nil
		p.state.Store(int32(parserStateFinished))
	}()

	for {
		if parserState(p.state.Load()) == parserStateCancelled {
			tracer().Debugf("cancelled at state %v", p.stack.top())
			v, err := p.unwind()
			if err != nil {
				return nil, err
			}
			return v, ErrCancelled
		}

		act, err := p.nextAction()
		if err != nil {
			return nil, err
		}
		switch act.Type {
		case spec.ActionTypeShift:
			tok, err := p.read()
			if err != nil {
				return nil, err
			}
			p.shift(act.Index, tok)
		case spec.ActionTypeReduce:
			if err := p.reduce(act.Index, nil, false); err != nil {
				return nil, err
			}
		case spec.ActionTypeAccept:
			return p.accept(), nil
		default:
			accepted, v, err := p.recoverFromError()
			if err != nil {
				return nil, err
			}
			if accepted {
				return v, nil
			}
		}
	}
}

// nextAction looks up the action of the top state. A default-only state acts without reading a
// look-ahead token.
func (p *Parser) nextAction() (spec.Action, error) {
	top := p.stack.top()
	if p.gram.DefaultOnly(top) {
		return p.gram.Action(top, p.gram.EOF()), nil
	}
	tok, err := p.peek(0)
	if err != nil {
		return spec.Action{}, err
	}
	return p.gram.Action(top, tok.TerminalID()), nil
}

func (p *Parser) shift(nextState int, tok VToken) {
	node := &Child{
		Span: tok.Span(),
	}
	if m, ok := tok.(*missingToken); ok {
		node.Value = p.semAct.Missing(m.terminal, m.span)
		node.Missing = true
	} else {
		node.Value = p.semAct.Shift(tok, p.recovering)
		p.recovering = false
		p.panicTok = nil
	}
	p.stack.push(nextState, node)
}

// reduce pops the RHS of a production and pushes its LHS. `synthesized` is appended to the popped
// frames; error recovery passes the symbols it completes a production with.
func (p *Parser) reduce(prodNum int, synthesized []*Child, recovered bool) error {
	n := p.gram.AlternativeSymbolCount(prodNum) - len(synthesized)
	if n < 0 || n >= len(p.stack.states) {
		return fmt.Errorf("cannot reduce production %v: the stack is too short", prodNum)
	}
	children := append(p.stack.pop(n), synthesized...)

	var span Span
	if len(children) == 0 {
		off := p.pendingOffset()
		span = Span{Start: off, End: off}
	} else {
		span = children[0].Span
		for _, c := range children[1:] {
			span = span.union(c.Span)
		}
	}
	v := p.semAct.Reduce(prodNum, span, children, recovered)

	lhs := p.gram.LHS(prodNum)
	next := p.gram.GoTo(p.stack.top(), lhs)
	if next == spec.GoToNil {
		return fmt.Errorf("GOTO(%v, %v) is undefined", p.stack.top(), p.gram.NonTerminal(lhs))
	}
	p.stack.push(next, &Child{
		Value: v,
		Span:  span,
	})
	return nil
}

func (p *Parser) accept() interface{} {
	var v interface{}
	if len(p.stack.nodes) > 0 {
		v = p.stack.nodes[len(p.stack.nodes)-1].Value
	}
	p.semAct.Accept(v)
	return v
}

// pendingOffset returns the start of the look-ahead token, or the end of the last token read when
// the parser has not read a look-ahead token yet.
func (p *Parser) pendingOffset() int {
	if len(p.peeked) > 0 {
		return p.peeked[0].Span().Start
	}
	return p.lastEnd
}

// peek returns the token `offset` tokens ahead without consuming any.
func (p *Parser) peek(offset int) (VToken, error) {
	for len(p.peeked) <= offset {
		if n := len(p.peeked); n > 0 && p.peeked[n-1].EOF() {
			p.peeked = append(p.peeked, p.peeked[n-1])
			continue
		}
		tok, err := p.toks.Next()
		if err != nil {
			return nil, err
		}
		p.peeked = append(p.peeked, tok)
	}
	return p.peeked[offset], nil
}

func (p *Parser) read() (VToken, error) {
	tok, err := p.peek(0)
	if err != nil {
		return nil, err
	}
	p.peeked = p.peeked[1:]
	if _, ok := tok.(*missingToken); !ok {
		p.lastEnd = tok.Span().End
	}
	return tok, nil
}

// unread puts a token in front of the look-ahead queue.
func (p *Parser) unread(tok VToken) {
	p.peeked = append([]VToken{tok}, p.peeked...)
}

// expectedTerminals returns the names of the terminals acceptable in a state.
func (p *Parser) expectedTerminals(state int) []string {
	terms := p.gram.Expected(state)
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == p.gram.Error() {
			continue
		}
		names = append(names, p.gram.Terminal(t))
	}
	return names
}
