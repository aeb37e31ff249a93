package grammar

import (
	"fmt"
	"io"
	"strings"

	"github.com/cnf/structhash"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"
	"github.com/npillmayer/schuko/tracing"

	"github.com/nihei9/lalrkit/compressor"
	verr "github.com/nihei9/lalrkit/error"
	"github.com/nihei9/lalrkit/grammar/symbol"
	spec "github.com/nihei9/lalrkit/spec/grammar"
)

func tracer() tracing.Trace {
	return tracing.Select("lalrkit.grammar")
}

const fingerprintVersion = 1

type compilation struct {
	fingerprint string
	grammar     *spec.CompiledGrammar
	report      *spec.Report
	conflicts   []*Conflict
}

type compileConfig struct {
	onConflict func(c *Conflict)
}

type CompileOption func(config *compileConfig)

// OnConflict registers a callback receiving every conflict the table builder resolved. A memoized
// compilation replays the conflicts it recorded.
func OnConflict(f func(c *Conflict)) CompileOption {
	return func(config *compileConfig) {
		config.onConflict = f
	}
}

// Compile builds the parsing tables. When the grammar has not changed since the last call, it
// returns the same artifact without rebuilding it.
func (g *Grammar) Compile(opts ...CompileOption) (*spec.CompiledGrammar, error) {
	config := &compileConfig{}
	for _, opt := range opts {
		opt(config)
	}

	c, err := g.compile()
	if err != nil {
		return nil, err
	}
	if config.onConflict != nil {
		for _, conflict := range c.conflicts {
			config.onConflict(conflict)
		}
	}
	return c.grammar, nil
}

// Report returns a description of the automaton, compiling the grammar if needed.
func (g *Grammar) Report() (*spec.Report, error) {
	c, err := g.compile()
	if err != nil {
		return nil, err
	}
	return c.report, nil
}

func (g *Grammar) Conflicts() ([]*Conflict, error) {
	c, err := g.compile()
	if err != nil {
		return nil, err
	}
	return c.conflicts, nil
}

func (g *Grammar) compile() (*compilation, error) {
	if !g.dirty && g.last != nil {
		return g.last, nil
	}

	fp, err := structhash.Hash(g.fingerprintSource(), fingerprintVersion)
	if err != nil {
		return nil, err
	}
	if g.last != nil && g.last.fingerprint == fp {
		tracer().Debugf("grammar '%v' is unchanged; fingerprint: %v", g.name, fp)
		g.dirty = false
		return g.last, nil
	}

	c, err := build(g, fp)
	if err != nil {
		return nil, err
	}
	g.last = c
	g.dirty = false
	return c, nil
}

func build(g *Grammar, fingerprint string) (*compilation, error) {
	m, err := g.resolve()
	if err != nil {
		return nil, err
	}

	lr0, err := genLR0Automaton(m.prods, m.starts)
	if err != nil {
		return nil, err
	}

	first, err := genFirstSet(m.prods, lr0.arena)
	if err != nil {
		return nil, err
	}

	lalr1, err := genLALR1Automaton(lr0, m.prods, first)
	if err != nil {
		return nil, err
	}

	b := &lrTableBuilder{
		automaton:    lalr1,
		prods:        m.prods,
		symTab:       m.symTab,
		precAndAssoc: m.precAndAssoc,
		termCount:    m.symTab.TerminalCount(),
		nonTermCount: m.symTab.NonTerminalCount(),
	}
	tab, err := b.build()
	if err != nil {
		return nil, err
	}

	lexical, err := genLexicalSpecification(m)
	if err != nil {
		return nil, err
	}

	syntactic, err := genSyntacticSpecification(m, lr0, tab)
	if err != nil {
		return nil, err
	}

	report, err := b.genReport(m, tab)
	if err != nil {
		return nil, err
	}

	tracer().Infof("grammar '%v': %v productions, %v states, %v conflicts", m.name, syntactic.ProductionCount(), len(syntactic.States), len(b.conflicts))

	return &compilation{
		fingerprint: fingerprint,
		grammar: &spec.CompiledGrammar{
			Name:        m.name,
			Fingerprint: fingerprint,
			Lexical:     lexical,
			Syntactic:   syntactic,
		},
		report:    report,
		conflicts: b.conflicts,
	}, nil
}

func genSyntacticSpecification(m *model, lr0 *lr0Automaton, tab *parsingTable) (*spec.SyntacticSpecification, error) {
	prods := make([]*spec.Production, m.prods.count())
	for _, p := range m.prods.getAllProductions() {
		prods[p.num] = &spec.Production{
			Number:    p.num.Int(),
			LHS:       p.lhs.Num().Int(),
			RHS:       encodeRHS(p),
			Action:    p.action,
			Augmented: p.isAugmented(),
		}
	}

	starts := make([]*spec.StartSymbol, len(m.starts))
	for i, st := range m.starts {
		starts[i] = &spec.StartSymbol{
			Name:         st.name,
			NonTerminal:  st.sym.Num().Int(),
			Production:   st.prod.num.Int(),
			InitialState: lr0.initialStates[i].Int(),
		}
	}

	states := make([]*spec.State, len(tab.states))
	expecting := make([]int, len(tab.states)*tab.termCount)
	for i, st := range tab.states {
		states[i] = &spec.State{
			Number:             i,
			DefaultAction:      st.defaultAction,
			DefaultOnly:        st.defaultOnly,
			Actions:            st.explicitActions(),
			RecoveryProduction: st.recoveryProd.num.Int(),
			RecoveryDot:        st.recoveryDot,
		}
		for _, term := range st.expecting {
			expecting[i*tab.termCount+term] = 1
		}
	}

	goTo := compressor.NewRowDisplacementTable(spec.GoToNil)
	{
		orig, err := compressor.NewOriginalTable(tab.goTo, tab.nonTermCount)
		if err != nil {
			return nil, err
		}
		if err := goTo.Compress(orig); err != nil {
			return nil, err
		}
	}

	exp := compressor.NewUniqueEntriesTable()
	{
		orig, err := compressor.NewOriginalTable(expecting, tab.termCount)
		if err != nil {
			return nil, err
		}
		if err := exp.Compress(orig); err != nil {
			return nil, err
		}
	}

	tracer().Debugf("GOTO table: %v entries compressed into %v slots", len(tab.goTo), len(goTo.Value))

	return &spec.SyntacticSpecification{
		Terminals:        append([]string{}, m.symTab.TerminalTexts()...),
		TerminalCount:    tab.termCount,
		NonTerminals:     append([]string{}, m.symTab.NonTerminalTexts()...),
		NonTerminalCount: tab.nonTermCount,
		EOFSymbol:        symbol.SymbolEOF.Num().Int(),
		ErrorSymbol:      symbol.SymbolError.Num().Int(),
		Productions:      prods,
		StartSymbols:     starts,
		States:           states,
		GoTo:             goTo,
		Expecting:        exp,
	}, nil
}

// genLexicalSpecification compiles the patterns of the terminals with maleeni. It returns nil when
// no terminal has a pattern.
func genLexicalSpecification(m *model) (*spec.LexicalSpecification, error) {
	var entries []*mlspec.LexEntry
	kind2Decl := map[string]*TerminalDecl{}
	for _, t := range m.terms {
		if t.decl.pattern == "" {
			continue
		}
		pattern := t.decl.pattern
		if t.decl.literal {
			pattern = mlspec.EscapePattern(pattern)
		}
		entries = append(entries, &mlspec.LexEntry{
			Kind:    mlspec.LexKindName(t.decl.name),
			Pattern: mlspec.LexPattern(pattern),
		})
		kind2Decl[t.decl.name] = t.decl
	}
	if len(entries) == 0 {
		return nil, nil
	}

	lexSpec, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name:    lexSpecName(m.name),
		Entries: entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		if len(cErrs) == 0 {
			return nil, err
		}
		var errs verr.SpecErrors
		for _, cErr := range cErrs {
			var b strings.Builder
			writeCompileError(&b, cErr)
			specErr := &verr.SpecError{
				Cause:  semErrLexicalSpecCompileErr,
				Detail: b.String(),
			}
			if decl, ok := kind2Decl[cErr.Kind.String()]; ok {
				specErr.Row = decl.row
				specErr.Col = decl.col
			}
			errs = append(errs, specErr)
		}
		return nil, errs
	}

	termCount := m.symTab.TerminalCount()
	kind2Term := make([]int, len(lexSpec.KindNames))
	skip := make([]int, len(lexSpec.KindNames))
	for i, k := range lexSpec.KindNames {
		if k == mlspec.LexKindNameNil {
			continue
		}

		sym, ok := m.symTab.ToSymbol(k.String())
		if !ok {
			return nil, fmt.Errorf("terminal symbol '%v' was not found in a symbol table", k)
		}
		kind2Term[i] = sym.Num().Int()
		if kind2Decl[k.String()].skip {
			skip[i] = 1
		}
	}

	kindAliases := make([]string, termCount)
	for _, t := range m.terms {
		if t.decl.literal {
			kindAliases[t.sym.Num()] = t.decl.pattern
		} else {
			kindAliases[t.sym.Num()] = t.decl.name
		}
	}

	return &spec.LexicalSpecification{
		Lexer: "maleeni",
		Maleeni: &spec.Maleeni{
			Spec:           lexSpec,
			KindToTerminal: kind2Term,
			Skip:           skip,
			KindAliases:    kindAliases,
		},
	}, nil
}

const defaultLexSpecName = "lexer"

// lexSpecName turns a grammar name into a snake-case identifier the lexer compiler accepts.
func lexSpecName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	if len(words) == 0 {
		return defaultLexSpecName
	}
	id := strings.Join(words, "_")
	if id[0] >= '0' && id[0] <= '9' {
		return defaultLexSpecName + "_" + id
	}
	return id
}

func writeCompileError(w io.Writer, cErr *mlcompiler.CompileError) {
	if cErr.Fragment {
		fmt.Fprintf(w, "fragment ")
	}
	fmt.Fprintf(w, "%v: %v", cErr.Kind, cErr.Cause)
	if cErr.Detail != "" {
		fmt.Fprintf(w, ": %v", cErr.Detail)
	}
}
