package grammar

import (
	"sort"
	"strings"
	"testing"

	"github.com/nihei9/lalrkit/grammar/symbol"
	"github.com/nihei9/lalrkit/spec/grammar/parser"
)

func buildGrammar(t *testing.T, src string) *Grammar {
	t.Helper()

	ast, err := parser.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	b := GrammarBuilder{
		AST: ast,
	}
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func resolveModel(t *testing.T, src string) *model {
	t.Helper()

	m, err := buildGrammar(t, src).resolve()
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// testAutomaton holds every intermediate product of the table construction.
type testAutomaton struct {
	m     *model
	first *firstSet
	lr0   *lr0Automaton
	lalr1 *lalr1Automaton
}

func genTestAutomaton(t *testing.T, src string) *testAutomaton {
	t.Helper()

	m := resolveModel(t, src)
	lr0, err := genLR0Automaton(m.prods, m.starts)
	if err != nil {
		t.Fatalf("failed to create a LR0 automaton: %v", err)
	}
	first, err := genFirstSet(m.prods, lr0.arena)
	if err != nil {
		t.Fatalf("failed to create a FIRST set: %v", err)
	}
	lalr1, err := genLALR1Automaton(lr0, m.prods, first)
	if err != nil {
		t.Fatalf("failed to create a LALR1 automaton: %v", err)
	}
	return &testAutomaton{
		m:     m,
		first: first,
		lr0:   lr0,
		lalr1: lalr1,
	}
}

type testSymbolGenerator func(text string) symbol.Symbol

func newTestSymbolGenerator(t *testing.T, symTab *symbol.SymbolTableReader) testSymbolGenerator {
	return func(text string) symbol.Symbol {
		t.Helper()

		sym, ok := symTab.ToSymbol(text)
		if !ok {
			t.Fatalf("symbol was not found: %v", text)
		}
		return sym
	}
}

type testProductionGenerator func(lhs string, rhs ...string) *production

// newTestProductionGenerator looks up a production registered in the model, so the result carries
// the production number.
func newTestProductionGenerator(t *testing.T, m *model) testProductionGenerator {
	genSym := newTestSymbolGenerator(t, m.symTab)
	return func(lhs string, rhs ...string) *production {
		t.Helper()

		rhsSym := []symbol.Symbol{}
		for _, text := range rhs {
			rhsSym = append(rhsSym, genSym(text))
		}
		p, ok := m.prods.findByID(genProductionID(genSym(lhs), rhsSym))
		if !ok {
			t.Fatalf("production was not found: %v → %v", lhs, rhs)
		}
		return p
	}
}

// kernelTexts renders the kernel items of a state in ascending order.
func kernelTexts(a *lr0Automaton, symTab *symbol.SymbolTableReader, state *lrState) []string {
	texts := make([]string, 0, len(state.kernel))
	for _, item := range state.kernel {
		texts = append(texts, a.arena.text(symTab, item))
	}
	sort.Strings(texts)
	return texts
}

// findState returns the state whose kernel consists of exactly the items rendered as texts.
func findState(t *testing.T, a *lr0Automaton, symTab *symbol.SymbolTableReader, texts ...string) *lrState {
	t.Helper()

	want := append([]string{}, texts...)
	sort.Strings(want)
	for _, state := range a.states {
		got := kernelTexts(a, symTab, state)
		if strings.Join(got, "\n") == strings.Join(want, "\n") {
			return state
		}
	}
	t.Fatalf("a state having the kernel was not found: %v", texts)
	return nil
}

func symbolTexts(t *testing.T, symTab *symbol.SymbolTableReader, syms []symbol.Symbol) []string {
	t.Helper()

	texts := make([]string, 0, len(syms))
	for _, sym := range syms {
		text, ok := symTab.ToText(sym)
		if !ok {
			t.Fatalf("symbol text was not found: %v", sym)
		}
		texts = append(texts, text)
	}
	sort.Strings(texts)
	return texts
}

func testStrings(t *testing.T, got, want []string) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("unexpected strings; want: %v, got: %v", want, got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("unexpected strings; want: %v, got: %v", want, got)
		}
	}
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}
