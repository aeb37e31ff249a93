package symbol

import "testing"

func TestSymbol(t *testing.T) {
	tab := NewSymbolTable()
	w := tab.Writer()
	_, _ = w.RegisterStartSymbol("expr'")
	_, _ = w.RegisterNonTerminalSymbol("expr")
	_, _ = w.RegisterNonTerminalSymbol("term")
	_, _ = w.RegisterNonTerminalSymbol("factor")
	_, _ = w.RegisterTerminalSymbol("id")
	_, _ = w.RegisterTerminalSymbol("add")
	_, _ = w.RegisterTerminalSymbol("mul")
	_, _ = w.RegisterTerminalSymbol("l_paren")
	_, _ = w.RegisterTerminalSymbol("r_paren")

	nonTermTexts := []string{
		"", // Nil
		"expr'",
		"expr",
		"term",
		"factor",
	}

	termTexts := []string{
		"",        // Nil
		NameEOF,   // EOF
		NameError, // error
		"id",
		"add",
		"mul",
		"l_paren",
		"r_paren",
	}

	tests := []struct {
		text          string
		isStart       bool
		isEOF         bool
		isNonTerminal bool
		isTerminal    bool
	}{
		{
			text:          "expr'",
			isStart:       true,
			isNonTerminal: true,
		},
		{
			text:          "expr",
			isNonTerminal: true,
		},
		{
			text:          "factor",
			isNonTerminal: true,
		},
		{
			text:       "id",
			isTerminal: true,
		},
		{
			text:       "r_paren",
			isTerminal: true,
		},
		{
			text:       NameEOF,
			isEOF:      true,
			isTerminal: true,
		},
		{
			text:       NameError,
			isTerminal: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r := tab.Reader()
			sym, ok := r.ToSymbol(tt.text)
			if !ok {
				t.Fatalf("symbol was not found")
			}
			testSymbolProperty(t, sym, tt.isStart, tt.isEOF, tt.isNonTerminal, tt.isTerminal)
			text, ok := r.ToText(sym)
			if !ok {
				t.Fatalf("text was not found")
			}
			if text != tt.text {
				t.Fatalf("unexpected text representation; want: %v, got: %v", tt.text, text)
			}
		})
	}

	t.Run("SymbolNil", func(t *testing.T) {
		testSymbolProperty(t, SymbolNil, false, false, false, false)
		if !SymbolNil.IsNil() {
			t.Fatalf("SymbolNil must be nil")
		}
	})

	t.Run("texts", func(t *testing.T) {
		r := tab.Reader()
		testTexts(t, r.NonTerminalTexts(), nonTermTexts)
		testTexts(t, r.TerminalTexts(), termTexts)
		if r.TerminalCount() != len(termTexts) {
			t.Fatalf("unexpected terminal count; want: %v, got: %v", len(termTexts), r.TerminalCount())
		}
		if r.NonTerminalCount() != len(nonTermTexts) {
			t.Fatalf("unexpected non-terminal count; want: %v, got: %v", len(nonTermTexts), r.NonTerminalCount())
		}
	})

	t.Run("duplicate start symbol", func(t *testing.T) {
		if _, err := tab.Writer().RegisterStartSymbol("expr'"); err == nil {
			t.Fatalf("expected error didn't occur")
		}
	})

	t.Run("kind mismatch", func(t *testing.T) {
		if _, err := tab.Writer().RegisterTerminalSymbol("expr"); err == nil {
			t.Fatalf("expected error didn't occur")
		}
		if _, err := tab.Writer().RegisterNonTerminalSymbol("id"); err == nil {
			t.Fatalf("expected error didn't occur")
		}
	})
}

func testSymbolProperty(t *testing.T, sym Symbol, isStart, isEOF, isNonTerminal, isTerminal bool) {
	t.Helper()

	if v := sym.IsStart(); v != isStart {
		t.Fatalf("isStart property is mismatched; want: %v, got: %v", isStart, v)
	}
	if v := sym.IsEOF(); v != isEOF {
		t.Fatalf("isEOF property is mismatched; want: %v, got: %v", isEOF, v)
	}
	if v := sym.IsNonTerminal(); v != isNonTerminal {
		t.Fatalf("isNonTerminal property is mismatched; want: %v, got: %v", isNonTerminal, v)
	}
	if v := sym.IsTerminal(); v != isTerminal {
		t.Fatalf("isTerminal property is mismatched; want: %v, got: %v", isTerminal, v)
	}
}

func testTexts(t *testing.T, actual, expected []string) {
	t.Helper()

	if len(actual) != len(expected) {
		t.Fatalf("unexpected text count; want: %v (%#v), got: %v (%#v)", len(expected), expected, len(actual), actual)
	}
	for i, e := range expected {
		if e != actual[i] {
			t.Fatalf("unexpected text; want: %v, got: %v", e, actual[i])
		}
	}
}
