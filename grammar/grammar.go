package grammar

import (
	"strings"

	verr "github.com/nihei9/lalrkit/error"
	"github.com/nihei9/lalrkit/grammar/symbol"
)

type Assoc string

const (
	AssocNil      = Assoc("")
	AssocLeft     = Assoc("left")
	AssocRight    = Assoc("right")
	AssocNonAssoc = Assoc("nonassoc")
)

const precNil = 0

// precAndAssoc represents precedence and associativities of terminal symbols and productions.
// A larger number means a higher precedence.
type precAndAssoc struct {
	termPrec  map[symbol.Num]int
	termAssoc map[symbol.Num]Assoc

	// prodPrec and prodAssoc are inherited from the precedence symbol of each production.
	prodPrec  map[productionNum]int
	prodAssoc map[productionNum]Assoc
}

func (pa *precAndAssoc) terminalPrecedence(num symbol.Num) int {
	prec, ok := pa.termPrec[num]
	if !ok {
		return precNil
	}
	return prec
}

func (pa *precAndAssoc) terminalAssociativity(num symbol.Num) Assoc {
	assoc, ok := pa.termAssoc[num]
	if !ok {
		return AssocNil
	}
	return assoc
}

func (pa *precAndAssoc) productionPrecedence(num productionNum) int {
	prec, ok := pa.prodPrec[num]
	if !ok {
		return precNil
	}
	return prec
}

func (pa *precAndAssoc) productionAssociativity(num productionNum) Assoc {
	assoc, ok := pa.prodAssoc[num]
	if !ok {
		return AssocNil
	}
	return assoc
}

type TerminalDecl struct {
	g       *Grammar
	name    string
	pattern string
	literal bool
	skip    bool
	row     int
	col     int
}

// Skip makes a lexer drop the tokens of the terminal.
func (d *TerminalDecl) Skip() *TerminalDecl {
	d.skip = true
	d.g.invalidate()
	return d
}

// At records the position of the declaration in a grammar file.
func (d *TerminalDecl) At(row, col int) *TerminalDecl {
	d.row = row
	d.col = col
	return d
}

type ProductionDecl struct {
	g       *Grammar
	lhs     string
	rhs     []string
	prec    string
	action  string
	recover bool
	row     int
	col     int
}

// Prec gives the production the precedence of sym instead of the one of the right-most terminal.
func (d *ProductionDecl) Prec(sym string) *ProductionDecl {
	d.prec = sym
	d.g.invalidate()
	return d
}

// Action binds a semantic action handle to the production. A parser resolves the handle at run
// time.
func (d *ProductionDecl) Action(name string) *ProductionDecl {
	d.action = name
	d.g.invalidate()
	return d
}

// Recover marks the production as preferred when panic-mode recovery completes a state.
func (d *ProductionDecl) Recover() *ProductionDecl {
	d.recover = true
	d.g.invalidate()
	return d
}

func (d *ProductionDecl) At(row, col int) *ProductionDecl {
	d.row = row
	d.col = col
	return d
}

type precedenceDecl struct {
	assoc Assoc
	syms  []string
	row   int
}

// Grammar is a mutable grammar model. Every mutation invalidates the compiled artifact, and the
// next Compile call rebuilds it.
type Grammar struct {
	name   string
	terms  []*TerminalDecl
	prods  []*ProductionDecl
	precs  []*precedenceDecl
	starts []string

	dirty bool
	last  *compilation
}

func NewGrammar(name string) *Grammar {
	return &Grammar{
		name:  name,
		dirty: true,
	}
}

func (g *Grammar) Name() string {
	return g.name
}

func (g *Grammar) SetName(name string) {
	g.name = name
	g.invalidate()
}

// Terminal declares a terminal symbol. pattern is a regular expression a lexer uses to recognize
// the terminal. An empty pattern means tokens of the terminal come from a caller-supplied token
// stream.
func (g *Grammar) Terminal(name, pattern string) *TerminalDecl {
	d := &TerminalDecl{
		g:       g,
		name:    name,
		pattern: pattern,
	}
	g.terms = append(g.terms, d)
	g.invalidate()
	return d
}

// Literal declares a terminal matching text verbatim.
func (g *Grammar) Literal(name, text string) *TerminalDecl {
	d := g.Terminal(name, text)
	d.literal = true
	return d
}

// Production declares `lhs → rhs`. An empty rhs declares an ε-production.
func (g *Grammar) Production(lhs string, rhs ...string) *ProductionDecl {
	d := &ProductionDecl{
		g:   g,
		lhs: lhs,
		rhs: rhs,
	}
	g.prods = append(g.prods, d)
	g.invalidate()
	return d
}

// Precedence declares a precedence level. Each call adds a level binding tighter than the levels
// declared before it.
func (g *Grammar) Precedence(assoc Assoc, syms ...string) {
	g.PrecedenceAt(0, assoc, syms...)
}

func (g *Grammar) PrecedenceAt(row int, assoc Assoc, syms ...string) {
	g.precs = append(g.precs, &precedenceDecl{
		assoc: assoc,
		syms:  syms,
		row:   row,
	})
	g.invalidate()
}

// Start declares named start symbols. The first one is the default. Without this declaration, the
// LHS of the first production is the only start symbol.
func (g *Grammar) Start(names ...string) {
	g.starts = append(g.starts, names...)
	g.invalidate()
}

func (g *Grammar) invalidate() {
	g.dirty = true
}

// Dirty reports whether the grammar changed since the last compilation.
func (g *Grammar) Dirty() bool {
	return g.dirty
}

type startSymbol struct {
	name   string
	sym    symbol.Symbol
	augSym symbol.Symbol
	prod   *production
}

type terminal struct {
	decl *TerminalDecl
	sym  symbol.Symbol
}

// model is a grammar whose names are resolved to symbols.
type model struct {
	name         string
	symTab       *symbol.SymbolTableReader
	prods        *productionSet
	starts       []*startSymbol
	precAndAssoc *precAndAssoc
	terms        []*terminal
	recover      map[productionNum]struct{}
}

type resolver struct {
	g        *Grammar
	precOnly map[string]*precedenceOnly
	errs     verr.SpecErrors
}

func (r *resolver) addErr(cause error, detail string, row, col int) {
	r.errs = append(r.errs, &verr.SpecError{
		Cause:  cause,
		Detail: detail,
		Row:    row,
		Col:    col,
	})
}

func isReservedName(name string) bool {
	return name == symbol.NameEOF || name == symbol.NameError
}

func (g *Grammar) resolve() (*model, error) {
	r := &resolver{
		g: g,
	}

	if len(g.prods) == 0 {
		return nil, verr.SpecErrors{
			{
				Cause: semErrNoProduction,
			},
		}
	}

	symTab := symbol.NewSymbolTable()
	w := symTab.Writer()
	reader := symTab.Reader()

	termDecls := map[string]*TerminalDecl{}
	var uniqueTerms []*TerminalDecl
	for _, t := range g.terms {
		switch {
		case isReservedName(t.name):
			r.addErr(semErrReservedName, t.name, t.row, t.col)
			continue
		case strings.Contains(t.name, "'"):
			r.addErr(semErrInvalidName, t.name, t.row, t.col)
			continue
		}
		if _, dup := termDecls[t.name]; dup {
			r.addErr(semErrDuplicateTerminal, t.name, t.row, t.col)
			continue
		}
		if t.skip && t.pattern == "" {
			r.addErr(semErrNoPattern, t.name, t.row, t.col)
		}
		termDecls[t.name] = t
		uniqueTerms = append(uniqueTerms, t)
	}

	var lhsNames []string
	lhsDecls := map[string]*ProductionDecl{}
	for _, p := range g.prods {
		if _, ok := lhsDecls[p.lhs]; ok {
			continue
		}
		switch {
		case isReservedName(p.lhs):
			r.addErr(semErrReservedName, p.lhs, p.row, p.col)
			continue
		case strings.Contains(p.lhs, "'"):
			r.addErr(semErrInvalidName, p.lhs, p.row, p.col)
			continue
		}
		if _, ok := termDecls[p.lhs]; ok {
			r.addErr(semErrDuplicateName, p.lhs, p.row, p.col)
			continue
		}
		lhsDecls[p.lhs] = p
		lhsNames = append(lhsNames, p.lhs)
	}

	startNames := g.starts
	if len(startNames) == 0 {
		startNames = []string{g.prods[0].lhs}
	}
	var starts []*startSymbol
	{
		known := map[string]struct{}{}
		for _, name := range startNames {
			if _, dup := known[name]; dup {
				r.addErr(semErrDuplicateStart, name, 0, 0)
				continue
			}
			known[name] = struct{}{}
			if _, ok := lhsDecls[name]; !ok {
				r.addErr(semErrUndefinedStart, name, 0, 0)
				continue
			}
			starts = append(starts, &startSymbol{
				name: name,
			})
		}
	}
	if len(r.errs) > 0 {
		return nil, r.errs
	}

	for _, st := range starts {
		sym, err := w.RegisterStartSymbol(st.name + "'")
		if err != nil {
			return nil, err
		}
		st.augSym = sym
	}
	for _, name := range lhsNames {
		sym, err := w.RegisterNonTerminalSymbol(name)
		if err != nil {
			return nil, err
		}
		for _, st := range starts {
			if st.name == name {
				st.sym = sym
			}
		}
	}
	var terms []*terminal
	for _, t := range uniqueTerms {
		sym, err := w.RegisterTerminalSymbol(t.name)
		if err != nil {
			return nil, err
		}
		terms = append(terms, &terminal{
			decl: t,
			sym:  sym,
		})
	}

	prods := newProductionSet()
	for _, st := range starts {
		p, err := newProduction(st.augSym, []symbol.Symbol{st.sym})
		if err != nil {
			return nil, err
		}
		prods.append(p)
		st.prod = p
	}

	recoverProds := map[productionNum]struct{}{}
	decl2Prod := map[*ProductionDecl]*production{}
	usedTerms := map[symbol.Symbol]struct{}{}
	for _, d := range g.prods {
		lhs, ok := reader.ToSymbol(d.lhs)
		if !ok || !lhs.IsNonTerminal() {
			continue
		}
		rhs := make([]symbol.Symbol, 0, len(d.rhs))
		valid := true
		for _, name := range d.rhs {
			if name == symbol.NameError || name == symbol.NameEOF {
				r.addErr(semErrReservedName, name, d.row, d.col)
				valid = false
				continue
			}
			sym, ok := reader.ToSymbol(name)
			if !ok {
				r.addErr(semErrUndefinedSym, name, d.row, d.col)
				valid = false
				continue
			}
			if sym.IsTerminal() {
				if termDecls[name].skip {
					r.addErr(semErrTermCannotBeSkipped, name, d.row, d.col)
					valid = false
					continue
				}
				usedTerms[sym] = struct{}{}
			}
			rhs = append(rhs, sym)
		}
		if !valid {
			continue
		}

		p, err := newProduction(lhs, rhs)
		if err != nil {
			return nil, err
		}
		if !prods.append(p) {
			r.addErr(semErrDuplicateProduction, p.text(reader, -1), d.row, d.col)
			continue
		}
		p.action = d.action
		if d.recover {
			p.recover = true
			recoverProds[p.num] = struct{}{}
		}
		decl2Prod[d] = p
	}

	pa := r.resolvePrecedence(reader, termDecls, lhsDecls)
	for _, d := range g.prods {
		p, ok := decl2Prod[d]
		if !ok {
			continue
		}
		if d.prec != "" {
			prec, assoc, ok := r.lookUpPrecedence(reader, pa, d.prec)
			if !ok {
				r.addErr(semErrUndefinedPrecSym, d.prec, d.row, d.col)
				continue
			}
			if sym, ok := reader.ToSymbol(d.prec); ok {
				p.precSym = sym
			}
			if prec != precNil {
				pa.prodPrec[p.num] = prec
				pa.prodAssoc[p.num] = assoc
			}
			continue
		}
		precSym := p.precedenceSymbol()
		if precSym.IsNil() {
			continue
		}
		if prec := pa.terminalPrecedence(precSym.Num()); prec != precNil {
			pa.prodPrec[p.num] = prec
			pa.prodAssoc[p.num] = pa.terminalAssociativity(precSym.Num())
		}
	}

	for _, t := range terms {
		if t.decl.skip {
			continue
		}
		if _, used := usedTerms[t.sym]; !used {
			r.addErr(semErrUnusedTerminal, t.decl.name, t.decl.row, t.decl.col)
		}
	}

	if len(r.errs) > 0 {
		r.errs.Sort()
		return nil, r.errs
	}

	m := &model{
		name:         g.name,
		symTab:       reader,
		prods:        prods,
		starts:       starts,
		precAndAssoc: pa,
		terms:        terms,
		recover:      recoverProds,
	}
	if err := r.checkReachability(m, lhsDecls); err != nil {
		return nil, err
	}

	return m, nil
}

// precedenceOnly holds the levels of names that appear only in precedence declarations. Such names
// are referred to by #prec directives.
type precedenceOnly struct {
	prec  int
	assoc Assoc
}

func (r *resolver) resolvePrecedence(reader *symbol.SymbolTableReader, termDecls map[string]*TerminalDecl, lhsDecls map[string]*ProductionDecl) *precAndAssoc {
	pa := &precAndAssoc{
		termPrec:  map[symbol.Num]int{},
		termAssoc: map[symbol.Num]Assoc{},
		prodPrec:  map[productionNum]int{},
		prodAssoc: map[productionNum]Assoc{},
	}
	r.precOnly = map[string]*precedenceOnly{}

	assigned := map[string]struct{}{}
	for i, decl := range r.g.precs {
		prec := i + 1
		switch decl.assoc {
		case AssocLeft, AssocRight, AssocNonAssoc, AssocNil:
		default:
			r.addErr(semErrInvalidAssoc, string(decl.assoc), decl.row, 0)
			continue
		}
		for _, name := range decl.syms {
			if _, dup := assigned[name]; dup {
				r.addErr(semErrDuplicateAssoc, name, decl.row, 0)
				continue
			}
			assigned[name] = struct{}{}

			if _, ok := lhsDecls[name]; ok {
				r.addErr(semErrInvalidPrecSym, name, decl.row, 0)
				continue
			}
			if _, ok := termDecls[name]; ok {
				sym, _ := reader.ToSymbol(name)
				pa.termPrec[sym.Num()] = prec
				pa.termAssoc[sym.Num()] = decl.assoc
				continue
			}
			r.precOnly[name] = &precedenceOnly{
				prec:  prec,
				assoc: decl.assoc,
			}
		}
	}

	return pa
}

func (r *resolver) lookUpPrecedence(reader *symbol.SymbolTableReader, pa *precAndAssoc, name string) (int, Assoc, bool) {
	if sym, ok := reader.ToSymbol(name); ok {
		if !sym.IsTerminal() {
			return precNil, AssocNil, false
		}
		return pa.terminalPrecedence(sym.Num()), pa.terminalAssociativity(sym.Num()), true
	}
	if p, ok := r.precOnly[name]; ok {
		return p.prec, p.assoc, true
	}
	return precNil, AssocNil, false
}

// checkReachability rejects non-terminals that no start symbol reaches and non-terminals that
// derive no string of terminals.
func (r *resolver) checkReachability(m *model, lhsDecls map[string]*ProductionDecl) error {
	reachable := map[symbol.Symbol]struct{}{}
	var stack []symbol.Symbol
	for _, st := range m.starts {
		reachable[st.augSym] = struct{}{}
		stack = append(stack, st.augSym)
	}
	for len(stack) > 0 {
		sym := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ps, _ := m.prods.findByLHS(sym)
		for _, p := range ps {
			for _, s := range p.rhs {
				if !s.IsNonTerminal() {
					continue
				}
				if _, ok := reachable[s]; ok {
					continue
				}
				reachable[s] = struct{}{}
				stack = append(stack, s)
			}
		}
	}

	productive := map[symbol.Symbol]struct{}{}
	for {
		changed := false
		for _, p := range m.prods.getAllProductions() {
			if _, ok := productive[p.lhs]; ok {
				continue
			}
			ok := true
			for _, s := range p.rhs {
				if s.IsTerminal() {
					continue
				}
				if _, done := productive[s]; !done {
					ok = false
					break
				}
			}
			if ok {
				productive[p.lhs] = struct{}{}
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for _, sym := range m.symTab.NonTerminalSymbols() {
		if sym.IsStart() {
			continue
		}
		name, _ := m.symTab.ToText(sym)
		d := lhsDecls[name]
		if _, ok := reachable[sym]; !ok {
			r.addErr(semErrUnusedProduction, name, d.row, d.col)
			continue
		}
		if _, ok := productive[sym]; !ok {
			r.addErr(semErrUnproductive, name, d.row, d.col)
		}
	}
	if len(r.errs) > 0 {
		r.errs.Sort()
		return r.errs
	}
	return nil
}

func (m *model) terminalDecl(sym symbol.Symbol) (*TerminalDecl, bool) {
	for _, t := range m.terms {
		if t.sym == sym {
			return t.decl, true
		}
	}
	return nil, false
}

// fingerprintSource is a snapshot of the declarations. Only exported fields contribute to a hash.
type fingerprintSource struct {
	Name        string
	Terminals   []fingerprintTerminal
	Productions []fingerprintProduction
	Precedences []fingerprintPrecedence
	Starts      []string
}

type fingerprintTerminal struct {
	Name    string
	Pattern string
	Literal bool
	Skip    bool
}

type fingerprintProduction struct {
	LHS     string
	RHS     []string
	Prec    string
	Action  string
	Recover bool
}

type fingerprintPrecedence struct {
	Assoc   string
	Symbols []string
}

func (g *Grammar) fingerprintSource() *fingerprintSource {
	src := &fingerprintSource{
		Name:   g.name,
		Starts: g.starts,
	}
	for _, t := range g.terms {
		src.Terminals = append(src.Terminals, fingerprintTerminal{
			Name:    t.name,
			Pattern: t.pattern,
			Literal: t.literal,
			Skip:    t.skip,
		})
	}
	for _, p := range g.prods {
		src.Productions = append(src.Productions, fingerprintProduction{
			LHS:     p.lhs,
			RHS:     p.rhs,
			Prec:    p.prec,
			Action:  p.action,
			Recover: p.recover,
		})
	}
	for _, p := range g.precs {
		src.Precedences = append(src.Precedences, fingerprintPrecedence{
			Assoc:   string(p.assoc),
			Symbols: p.syms,
		})
	}
	return src
}
