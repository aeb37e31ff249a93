package symbol

import (
	"fmt"
	"sort"
)

type symbolKind string

const (
	symbolKindNonTerminal = symbolKind("non-terminal")
	symbolKindTerminal    = symbolKind("terminal")
)

func (t symbolKind) String() string {
	return string(t)
}

// Num is a number of a symbol. Terminals and non-terminals are numbered independently, so a Num
// is meaningful only together with the kind of its symbol.
type Num uint16

func (n Num) Int() int {
	return int(n)
}

// Symbol packs a kind bit, a reserved bit, and a number into 16 bits.
//
//	bit 15:     1 = terminal, 0 = non-terminal
//	bit 14:     augmented start symbol (non-terminal) or end-of-input (terminal)
//	bits 0-13:  number
type Symbol uint16

func (s Symbol) String() string {
	kind, reserved, num := s.describe()
	var prefix string
	switch {
	case s.IsNil():
		prefix = "?"
	case reserved && kind == symbolKindNonTerminal:
		prefix = "s"
	case reserved && kind == symbolKindTerminal:
		prefix = "e"
	case kind == symbolKindNonTerminal:
		prefix = "n"
	default:
		prefix = "t"
	}
	return fmt.Sprintf("%v%v", prefix, num)
}

const (
	maskKindPart = uint16(0x8000) // 1000 0000 0000 0000
	maskTerminal = uint16(0x8000) // 1000 0000 0000 0000
	maskReserved = uint16(0x4000) // 0100 0000 0000 0000
	maskNumPart  = uint16(0x3fff) // 0011 1111 1111 1111

	SymbolNil   = Symbol(0)                                    // 0000 0000 0000 0000
	SymbolEOF   = Symbol(maskTerminal | maskReserved | 0x0001) // 1100 0000 0000 0001
	SymbolError = Symbol(maskTerminal | 0x0002)                // 1000 0000 0000 0010

	// The names contain characters that an identifier of a grammar cannot contain,
	// or are reserved words of a grammar.
	NameEOF   = "<eof>"
	NameError = "error"

	terminalNumMin    = Num(3) // 1 and 2 are used by <eof> and error.
	nonTerminalNumMin = Num(1)
	numMax            = Num(maskNumPart)
)

func newSymbol(kind symbolKind, reserved bool, num Num) (Symbol, error) {
	if num > numMax {
		return SymbolNil, fmt.Errorf("a symbol number exceeds the limit; limit: %v, passed: %v", numMax, num)
	}
	if num == 0 {
		return SymbolNil, fmt.Errorf("a symbol number must be greater than 0")
	}
	v := uint16(num)
	if kind == symbolKindTerminal {
		v |= maskTerminal
	}
	if reserved {
		v |= maskReserved
	}
	return Symbol(v), nil
}

func (s Symbol) describe() (symbolKind, bool, Num) {
	kind := symbolKindNonTerminal
	if uint16(s)&maskKindPart == maskTerminal {
		kind = symbolKindTerminal
	}
	return kind, uint16(s)&maskReserved != 0, Num(uint16(s) & maskNumPart)
}

func (s Symbol) Num() Num {
	_, _, num := s.describe()
	return num
}

func (s Symbol) Byte() []byte {
	return []byte{byte(uint16(s) >> 8), byte(uint16(s) & 0x00ff)}
}

func (s Symbol) IsNil() bool {
	return s.Num() == 0
}

func (s Symbol) IsTerminal() bool {
	if s.IsNil() {
		return false
	}
	kind, _, _ := s.describe()
	return kind == symbolKindTerminal
}

func (s Symbol) IsNonTerminal() bool {
	if s.IsNil() {
		return false
	}
	kind, _, _ := s.describe()
	return kind == symbolKindNonTerminal
}

// IsStart reports whether s is an augmented start symbol.
func (s Symbol) IsStart() bool {
	_, reserved, _ := s.describe()
	return s.IsNonTerminal() && reserved
}

func (s Symbol) IsEOF() bool {
	return s == SymbolEOF
}

type SymbolTable struct {
	text2Sym     map[string]Symbol
	sym2Text     map[Symbol]string
	nonTermTexts []string
	termTexts    []string
	nonTermNum   Num
	termNum      Num
}

type SymbolTableWriter struct {
	*SymbolTable
}

type SymbolTableReader struct {
	*SymbolTable
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		text2Sym: map[string]Symbol{
			NameEOF:   SymbolEOF,
			NameError: SymbolError,
		},
		sym2Text: map[Symbol]string{
			SymbolEOF:   NameEOF,
			SymbolError: NameError,
		},
		termTexts: []string{
			"",        // Nil
			NameEOF,   // EOF
			NameError, // error
		},
		nonTermTexts: []string{
			"", // Nil
		},
		nonTermNum: nonTerminalNumMin,
		termNum:    terminalNumMin,
	}
}

func (t *SymbolTable) Writer() *SymbolTableWriter {
	return &SymbolTableWriter{
		SymbolTable: t,
	}
}

func (t *SymbolTable) Reader() *SymbolTableReader {
	return &SymbolTableReader{
		SymbolTable: t,
	}
}

// RegisterStartSymbol registers an augmented start symbol. Unlike the other registration methods,
// it fails when the text is already known because every augmented symbol must be unique.
func (w *SymbolTableWriter) RegisterStartSymbol(text string) (Symbol, error) {
	if _, ok := w.text2Sym[text]; ok {
		return SymbolNil, fmt.Errorf("a start symbol is already registered: %v", text)
	}
	return w.register(text, symbolKindNonTerminal, true)
}

func (w *SymbolTableWriter) RegisterNonTerminalSymbol(text string) (Symbol, error) {
	if sym, ok := w.text2Sym[text]; ok {
		if !sym.IsNonTerminal() {
			return SymbolNil, fmt.Errorf("%v is already registered as a terminal symbol", text)
		}
		return sym, nil
	}
	return w.register(text, symbolKindNonTerminal, false)
}

func (w *SymbolTableWriter) RegisterTerminalSymbol(text string) (Symbol, error) {
	if sym, ok := w.text2Sym[text]; ok {
		if !sym.IsTerminal() {
			return SymbolNil, fmt.Errorf("%v is already registered as a non-terminal symbol", text)
		}
		return sym, nil
	}
	return w.register(text, symbolKindTerminal, false)
}

func (w *SymbolTableWriter) register(text string, kind symbolKind, reserved bool) (Symbol, error) {
	var num Num
	if kind == symbolKindTerminal {
		num = w.termNum
	} else {
		num = w.nonTermNum
	}
	sym, err := newSymbol(kind, reserved, num)
	if err != nil {
		return SymbolNil, err
	}
	if kind == symbolKindTerminal {
		w.termNum++
		w.termTexts = append(w.termTexts, text)
	} else {
		w.nonTermNum++
		w.nonTermTexts = append(w.nonTermTexts, text)
	}
	w.text2Sym[text] = sym
	w.sym2Text[sym] = text
	return sym, nil
}

func (r *SymbolTableReader) ToSymbol(text string) (Symbol, bool) {
	if sym, ok := r.text2Sym[text]; ok {
		return sym, true
	}
	return SymbolNil, false
}

func (r *SymbolTableReader) ToText(sym Symbol) (string, bool) {
	text, ok := r.sym2Text[sym]
	return text, ok
}

// TerminalSymbols returns all terminal symbols, including <eof> and error, in ascending order.
func (r *SymbolTableReader) TerminalSymbols() []Symbol {
	return r.symbols(Symbol.IsTerminal)
}

// NonTerminalSymbols returns all non-terminal symbols, including augmented ones, in ascending order
// of their numbers.
func (r *SymbolTableReader) NonTerminalSymbols() []Symbol {
	syms := r.symbols(Symbol.IsNonTerminal)
	sort.Slice(syms, func(i, j int) bool {
		return syms[i].Num() < syms[j].Num()
	})
	return syms
}

func (r *SymbolTableReader) symbols(pred func(Symbol) bool) []Symbol {
	syms := make([]Symbol, 0, len(r.sym2Text))
	for sym := range r.sym2Text {
		if !pred(sym) {
			continue
		}
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i] < syms[j]
	})
	return syms
}

// TerminalTexts returns the names of terminals indexed by terminal number. Index 0 is empty.
func (r *SymbolTableReader) TerminalTexts() []string {
	return r.termTexts
}

// NonTerminalTexts returns the names of non-terminals indexed by non-terminal number. Index 0 is
// empty.
func (r *SymbolTableReader) NonTerminalTexts() []string {
	return r.nonTermTexts
}

// TerminalCount returns the length of the terminal number space, including the nil slot.
func (r *SymbolTableReader) TerminalCount() int {
	return r.termNum.Int()
}

// NonTerminalCount returns the length of the non-terminal number space, including the nil slot.
func (r *SymbolTableReader) NonTerminalCount() int {
	return r.nonTermNum.Int()
}
