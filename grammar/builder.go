package grammar

import (
	"fmt"

	verr "github.com/nihei9/lalrkit/error"
	"github.com/nihei9/lalrkit/spec/grammar/parser"
)

// GrammarBuilder turns the AST of a grammar file into a Grammar. Semantic errors carry the
// positions of the offending nodes.
type GrammarBuilder struct {
	AST *parser.RootNode

	errs verr.SpecErrors
}

func (b *GrammarBuilder) addErr(cause error, detail string, pos parser.Position) {
	b.errs = append(b.errs, &verr.SpecError{
		Cause:  cause,
		Detail: detail,
		Row:    pos.Row,
		Col:    pos.Col,
	})
}

func (b *GrammarBuilder) Build() (*Grammar, error) {
	g := NewGrammar("")

	b.applyTopLevelDirectives(g)

	// Literals are declared before patterns so that a keyword wins over an identifier pattern
	// matching the same text.
	lit2Term := map[string]string{}
	for _, prod := range b.AST.LexProductions {
		elem := prod.RHS[0].Elements[0]
		if !elem.Literal {
			continue
		}
		d := g.Literal(prod.LHS, elem.Pattern).At(prod.Pos.Row, prod.Pos.Col)
		if b.lexDirectives(prod) {
			d.Skip()
		}
		if _, ok := lit2Term[elem.Pattern]; !ok {
			lit2Term[elem.Pattern] = prod.LHS
		}
	}
	anonCount := 0
	for _, prod := range b.AST.Productions {
		for _, alt := range prod.RHS {
			for _, elem := range alt.Elements {
				if !elem.Literal {
					continue
				}
				if _, ok := lit2Term[elem.Pattern]; ok {
					continue
				}
				anonCount++
				name := fmt.Sprintf("x_%v", anonCount)
				g.Literal(name, elem.Pattern).At(elem.Pos.Row, elem.Pos.Col)
				lit2Term[elem.Pattern] = name
			}
		}
	}
	for _, prod := range b.AST.LexProductions {
		elem := prod.RHS[0].Elements[0]
		if elem.Literal {
			continue
		}
		d := g.Terminal(prod.LHS, elem.Pattern).At(prod.Pos.Row, prod.Pos.Col)
		if b.lexDirectives(prod) {
			d.Skip()
		}
	}

	for _, prod := range b.AST.Productions {
		for _, dir := range prod.Directives {
			b.addErr(semErrDirInvalidName, dir.Name, dir.Pos)
		}
		for _, alt := range prod.RHS {
			rhs := make([]string, 0, len(alt.Elements))
			for _, elem := range alt.Elements {
				if elem.Literal {
					rhs = append(rhs, lit2Term[elem.Pattern])
					continue
				}
				rhs = append(rhs, elem.ID)
			}
			pos := alt.Pos
			if len(alt.Elements) == 0 {
				pos = prod.Pos
			}
			d := g.Production(prod.LHS, rhs...).At(pos.Row, pos.Col)
			b.altDirectives(d, alt)
		}
	}

	if len(b.errs) > 0 {
		b.errs.Sort()
		return nil, b.errs
	}

	tracer().Debugf("grammar '%v': %v terminals (%v anonymous), %v productions", g.name, len(g.terms), anonCount, len(g.prods))

	return g, nil
}

func (b *GrammarBuilder) applyTopLevelDirectives(g *Grammar) {
	seen := map[string]struct{}{}
	for _, dir := range b.AST.Directives {
		if _, dup := seen[dir.Name]; dup {
			b.addErr(semErrDuplicateDir, dir.Name, dir.Pos)
			continue
		}
		seen[dir.Name] = struct{}{}

		switch dir.Name {
		case "name":
			if len(dir.Parameters) != 1 || dir.Parameters[0].ID == "" {
				b.addErr(semErrDirInvalidParam, "'name' takes just one ID parameter", dir.Pos)
				continue
			}
			g.SetName(dir.Parameters[0].ID)
		case "start":
			if len(dir.Parameters) == 0 {
				b.addErr(semErrDirInvalidParam, "'start' takes at least one ID parameter", dir.Pos)
				continue
			}
			var names []string
			for _, param := range dir.Parameters {
				if param.ID == "" {
					b.addErr(semErrDirInvalidParam, "'start' takes only ID parameters", param.Pos)
					continue
				}
				names = append(names, param.ID)
			}
			g.Start(names...)
		case "prec":
			if len(dir.Parameters) != 1 || dir.Parameters[0].Group == nil {
				b.addErr(semErrDirInvalidParam, "'prec' takes just one directive group", dir.Pos)
				continue
			}
			for _, d := range dir.Parameters[0].Group {
				var assoc Assoc
				switch d.Name {
				case "left":
					assoc = AssocLeft
				case "right":
					assoc = AssocRight
				case "assoc":
					assoc = AssocNonAssoc
				default:
					b.addErr(semErrDirInvalidName, d.Name, d.Pos)
					continue
				}
				if len(d.Parameters) == 0 {
					b.addErr(semErrDirInvalidParam, fmt.Sprintf("'%v' needs at least one symbol", d.Name), d.Pos)
					continue
				}
				var syms []string
				for _, param := range d.Parameters {
					switch {
					case param.ID != "":
						syms = append(syms, param.ID)
					case param.OrderedSymbol != "":
						syms = append(syms, "$"+param.OrderedSymbol)
					default:
						b.addErr(semErrDirInvalidParam, fmt.Sprintf("'%v' takes only IDs and ordered symbols", d.Name), param.Pos)
					}
				}
				g.PrecedenceAt(d.Pos.Row, assoc, syms...)
			}
		default:
			b.addErr(semErrDirInvalidName, dir.Name, dir.Pos)
		}
	}
}

// lexDirectives validates the directives of a lexical production and reports whether it has #skip.
func (b *GrammarBuilder) lexDirectives(prod *parser.ProductionNode) bool {
	skip := false
	for _, dir := range prod.Directives {
		if dir.Name != "skip" {
			b.addErr(semErrDirInvalidName, dir.Name, dir.Pos)
			continue
		}
		if len(dir.Parameters) > 0 {
			b.addErr(semErrDirInvalidParam, "'skip' takes no parameter", dir.Pos)
			continue
		}
		skip = true
	}
	return skip
}

func (b *GrammarBuilder) altDirectives(d *ProductionDecl, alt *parser.AlternativeNode) {
	seen := map[string]struct{}{}
	for _, dir := range alt.Directives {
		if _, dup := seen[dir.Name]; dup {
			b.addErr(semErrDuplicateDir, dir.Name, dir.Pos)
			continue
		}
		seen[dir.Name] = struct{}{}

		switch dir.Name {
		case "prec":
			if len(dir.Parameters) != 1 {
				b.addErr(semErrDirInvalidParam, "'prec' takes just one ID or ordered symbol", dir.Pos)
				continue
			}
			param := dir.Parameters[0]
			switch {
			case param.ID != "":
				d.Prec(param.ID)
			case param.OrderedSymbol != "":
				d.Prec("$" + param.OrderedSymbol)
			default:
				b.addErr(semErrDirInvalidParam, "'prec' takes just one ID or ordered symbol", param.Pos)
			}
		case "recover":
			if len(dir.Parameters) > 0 {
				b.addErr(semErrDirInvalidParam, "'recover' takes no parameter", dir.Pos)
				continue
			}
			d.Recover()
		case "action":
			if len(dir.Parameters) != 1 || dir.Parameters[0].ID == "" {
				b.addErr(semErrDirInvalidParam, "'action' takes just one ID parameter", dir.Pos)
				continue
			}
			d.Action(dir.Parameters[0].ID)
		default:
			b.addErr(semErrDirInvalidName, dir.Name, dir.Pos)
		}
	}
}
