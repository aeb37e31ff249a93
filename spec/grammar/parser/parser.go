package parser

import (
	"io"

	verr "github.com/nihei9/lalrkit/error"
)

func raiseSyntaxError(pos Position, synErr *SyntaxError) {
	panic(&verr.SpecError{
		Cause: synErr,
		Row:   pos.Row,
		Col:   pos.Col,
	})
}

// Parse reads a grammar file. A syntax error is returned as *error.SpecError carrying the position
// of the offending token.
func Parse(src io.Reader) (*RootNode, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	p, err := newParser(b)
	if err != nil {
		return nil, err
	}
	return p.parse()
}

type parser struct {
	lex       *lexer
	peekedTok *token
	lastTok   *token
}

func newParser(src []byte) (*parser, error) {
	lex, err := newLexer(src)
	if err != nil {
		return nil, err
	}
	return &parser{
		lex: lex,
	}, nil
}

func (p *parser) parse() (root *RootNode, retErr error) {
	defer func() {
		err := recover()
		if err == nil {
			return
		}
		specErr, ok := err.(*verr.SpecError)
		if !ok {
			panic(err)
		}
		tracer().Debugf("syntax error at %v:%v: %v", specErr.Row, specErr.Col, specErr.Cause)
		root = nil
		retErr = specErr
	}()
	return p.parseRoot(), nil
}

func (p *parser) parseRoot() *RootNode {
	root := &RootNode{}
	for {
		if p.consume(tokenKindEOF) {
			break
		}

		if p.consume(tokenKindDirective) {
			dir := p.parseDirectiveBody(true)
			if !p.consume(tokenKindSemicolon) {
				raiseSyntaxError(p.pos(), synErrTopLevelDirNoSemicolon)
			}
			root.Directives = append(root.Directives, dir)
			continue
		}

		prod := p.parseProduction()
		if prod.isLexical() {
			root.LexProductions = append(root.LexProductions, prod)
			continue
		}
		for _, alt := range prod.RHS {
			for _, elem := range alt.Elements {
				if elem.ID == "" && !elem.Literal {
					raiseSyntaxError(elem.Pos, synErrPatternInAlt)
				}
			}
		}
		root.Productions = append(root.Productions, prod)
	}
	return root
}

func (p *parser) parseProduction() *ProductionNode {
	if !p.consume(tokenKindID) {
		raiseSyntaxError(p.pos(), synErrNoProductionName)
	}
	lhs := p.lastTok.text
	lhsPos := p.lastTok.pos

	var dirs []*DirectiveNode
	for p.consume(tokenKindDirective) {
		dirs = append(dirs, p.parseDirectiveBody(false))
	}

	if !p.consume(tokenKindColon) {
		raiseSyntaxError(p.pos(), synErrNoColon)
	}
	rhs := []*AlternativeNode{p.parseAlternative()}
	for p.consume(tokenKindOr) {
		rhs = append(rhs, p.parseAlternative())
	}
	if !p.consume(tokenKindSemicolon) {
		raiseSyntaxError(p.pos(), synErrNoSemicolon)
	}

	return &ProductionNode{
		Directives: dirs,
		LHS:        lhs,
		RHS:        rhs,
		Pos:        lhsPos,
	}
}

func (p *parser) parseAlternative() *AlternativeNode {
	alt := &AlternativeNode{
		Pos: p.pos(),
	}
	for {
		elem := p.parseElement()
		if elem == nil {
			break
		}
		alt.Elements = append(alt.Elements, elem)
	}
	for p.consume(tokenKindDirective) {
		alt.Directives = append(alt.Directives, p.parseDirectiveBody(false))
	}
	if len(alt.Directives) > 0 {
		if elem := p.parseElement(); elem != nil {
			raiseSyntaxError(elem.Pos, synErrElemAfterDirective)
		}
	}
	return alt
}

func (p *parser) parseElement() *ElementNode {
	switch {
	case p.consume(tokenKindID):
		return &ElementNode{
			ID:  p.lastTok.text,
			Pos: p.lastTok.pos,
		}
	case p.consume(tokenKindPattern):
		return &ElementNode{
			Pattern: p.lastTok.text,
			Pos:     p.lastTok.pos,
		}
	case p.consume(tokenKindStringLiteral):
		return &ElementNode{
			Pattern: p.lastTok.text,
			Literal: true,
			Pos:     p.lastTok.pos,
		}
	}
	return nil
}

// parseDirectiveBody parses the parameters of a directive whose name was just consumed.
func (p *parser) parseDirectiveBody(allowGroup bool) *DirectiveNode {
	dir := &DirectiveNode{
		Name: p.lastTok.text,
		Pos:  p.lastTok.pos,
	}
	for {
		param := p.parseParameter(allowGroup)
		if param == nil {
			break
		}
		dir.Parameters = append(dir.Parameters, param)
	}
	return dir
}

func (p *parser) parseParameter(allowGroup bool) *ParameterNode {
	switch {
	case p.consume(tokenKindID):
		return &ParameterNode{
			ID:  p.lastTok.text,
			Pos: p.lastTok.pos,
		}
	case p.consume(tokenKindOrderedSymbol):
		return &ParameterNode{
			OrderedSymbol: p.lastTok.text,
			Pos:           p.lastTok.pos,
		}
	case p.consume(tokenKindLParen):
		pos := p.lastTok.pos
		if !allowGroup {
			raiseSyntaxError(pos, synErrNestedDirGroup)
		}
		var group []*DirectiveNode
		for {
			if p.consume(tokenKindRParen) {
				break
			}
			if p.consume(tokenKindDirective) {
				group = append(group, p.parseDirectiveBody(false))
				continue
			}
			if p.consume(tokenKindEOF) || p.consume(tokenKindSemicolon) {
				raiseSyntaxError(p.lastTok.pos, synErrUnclosedDirGroup)
			}
			raiseSyntaxError(p.pos(), synErrDirGroupNoDirective)
		}
		return &ParameterNode{
			Group: group,
			Pos:   pos,
		}
	}
	return nil
}

// pos returns the position of the next token.
func (p *parser) pos() Position {
	tok := p.peek()
	return tok.pos
}

func (p *parser) peek() *token {
	if p.peekedTok != nil {
		return p.peekedTok
	}
	tok, err := p.lex.next()
	if err != nil {
		panic(&verr.SpecError{
			Cause: err,
		})
	}
	if tok.kind == tokenKindInvalid {
		raiseSyntaxError(tok.pos, tok.err)
	}
	p.peekedTok = tok
	return tok
}

func (p *parser) consume(expected tokenKind) bool {
	tok := p.peek()
	if tok.kind != expected {
		return false
	}
	p.peekedTok = nil
	p.lastTok = tok
	return true
}
