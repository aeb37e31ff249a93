package tester

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/nihei9/lalrkit/driver/parser"
	"github.com/nihei9/lalrkit/grammar"
	spec "github.com/nihei9/lalrkit/spec/grammar"
	gparser "github.com/nihei9/lalrkit/spec/grammar/parser"
)

type TreeDiff struct {
	ExpectedPath string
	ActualPath   string
	Message      string
}

func newTreeDiff(expected, actual *Tree, message string) *TreeDiff {
	return &TreeDiff{
		ExpectedPath: expected.path(),
		ActualPath:   actual.path(),
		Message:      message,
	}
}

type Tree struct {
	Parent   *Tree
	Offset   int
	Kind     string
	Children []*Tree
	Lexeme   string

	missing bool
}

func NewNonTerminalTree(kind string, children ...*Tree) *Tree {
	return &Tree{
		Kind:     kind,
		Children: children,
	}
}

func NewTerminalNode(kind string, lexeme string) *Tree {
	return &Tree{
		Kind:   kind,
		Lexeme: lexeme,
	}
}

func (t *Tree) Fill() *Tree {
	for i, c := range t.Children {
		c.Parent = t
		c.Offset = i
		c.Fill()
	}
	return t
}

// missingPaths returns the paths of the leaves error recovery synthesized.
func (t *Tree) missingPaths() []string {
	if t.missing {
		return []string{t.path()}
	}
	var paths []string
	for _, c := range t.Children {
		paths = append(paths, c.missingPaths()...)
	}
	return paths
}

func (t *Tree) path() string {
	if t.Parent == nil {
		return t.Kind
	}
	return fmt.Sprintf("%v.[%v]%v", t.Parent.path(), t.Offset, t.Kind)
}

// DiffTree compares an actual tree with an expected one. The kind `_` matches any kind.
func DiffTree(expected, actual *Tree) []*TreeDiff {
	if expected == nil && actual == nil {
		return nil
	}
	if expected.Kind != "_" && actual.Kind != expected.Kind {
		msg := fmt.Sprintf("unexpected kind: expected '%v' but got '%v'", expected.Kind, actual.Kind)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if expected.Lexeme != actual.Lexeme {
		msg := fmt.Sprintf("unexpected lexeme: expected '%v' but got '%v'", expected.Lexeme, actual.Lexeme)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if len(actual.Children) != len(expected.Children) {
		msg := fmt.Sprintf("unexpected node count: expected %v but got %v", len(expected.Children), len(actual.Children))
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	var diffs []*TreeDiff
	for i, exp := range expected.Children {
		if ds := DiffTree(exp, actual.Children[i]); len(ds) > 0 {
			diffs = append(diffs, ds...)
		}
	}
	return diffs
}

// TestCase consists of three parts separated by `---` lines: a description, a source text, and
// the expected tree written as S-expressions like `(expr (num '1'))`.
type TestCase struct {
	Description string
	Source      []byte
	Output      *Tree
}

func ParseTestCase(r io.Reader) (*TestCase, error) {
	parts, err := splitIntoParts(r)
	if err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("too many or too few part delimiters: a test case consists of just three parts: %v parts found", len(parts))
	}

	tp := &treeParser{
		lineOffset: parts[0].lineCount + parts[1].lineCount + 2,
	}
	tree, err := tp.parseTree(bytes.NewReader(parts[2].buf))
	if err != nil {
		return nil, err
	}

	return &TestCase{
		Description: string(parts[0].buf),
		Source:      parts[1].buf,
		Output:      tree,
	}, nil
}

type testCasePart struct {
	buf       []byte
	lineCount int
}

func splitIntoParts(r io.Reader) ([]*testCasePart, error) {
	var bufs []*testCasePart
	s := bufio.NewScanner(r)
	for {
		buf, lineCount, err := readPart(s)
		if err != nil {
			return nil, err
		}
		if buf == nil {
			break
		}
		bufs = append(bufs, &testCasePart{
			buf:       buf,
			lineCount: lineCount,
		})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return bufs, nil
}

var reDelim = regexp.MustCompile(`^\s*---+\s*$`)

func readPart(s *bufio.Scanner) ([]byte, int, error) {
	if !s.Scan() {
		return nil, 0, s.Err()
	}
	buf := &bytes.Buffer{}
	line := s.Bytes()
	if reDelim.Match(line) {
		// Return an empty slice because (*bytes.Buffer).Bytes() returns nil if we have never written data.
		return []byte{}, 0, nil
	}
	buf.Write(line)
	lineCount := 1
	for s.Scan() {
		line := s.Bytes()
		if reDelim.Match(line) {
			return buf.Bytes(), lineCount, nil
		}
		buf.WriteByte('\n')
		buf.Write(line)
		lineCount++
	}
	if err := s.Err(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), lineCount, nil
}

const treeGrammarSrc = `
#name tree;

tree
    : l_paren id r_paren #action leaf
    | l_paren id lexeme r_paren #action token
    | l_paren id trees r_paren #action node
    ;
trees
    : trees tree #action append
    | tree #action single
    ;

ws #skip: "[\u{0009}\u{000A}\u{000D}\u{0020}]+";
l_paren: '(';
r_paren: ')';
id: "[A-Za-z_][0-9A-Za-z_]*";
lexeme: "'[^']*'";
`

var (
	treeGrammarOnce sync.Once
	treeGrammar     *spec.CompiledGrammar
	treeGrammarErr  error
)

func compiledTreeGrammar() (*spec.CompiledGrammar, error) {
	treeGrammarOnce.Do(func() {
		ast, err := gparser.Parse(strings.NewReader(treeGrammarSrc))
		if err != nil {
			treeGrammarErr = err
			return
		}
		b := grammar.GrammarBuilder{
			AST: ast,
		}
		g, err := b.Build()
		if err != nil {
			treeGrammarErr = err
			return
		}
		treeGrammar, treeGrammarErr = g.Compile()
	})
	return treeGrammar, treeGrammarErr
}

func childString(c *parser.Child) string {
	s, _ := c.Value.(string)
	return s
}

func childTree(c *parser.Child) *Tree {
	t, _ := c.Value.(*Tree)
	return t
}

var treeActions = map[string]parser.ActionFunc{
	"leaf": func(c []*parser.Child) interface{} {
		return NewNonTerminalTree(childString(c[1]))
	},
	"token": func(c []*parser.Child) interface{} {
		return NewTerminalNode(childString(c[1]), strings.Trim(childString(c[2]), "'"))
	},
	"node": func(c []*parser.Child) interface{} {
		children, _ := c[2].Value.([]*Tree)
		return NewNonTerminalTree(childString(c[1]), children...)
	},
	"append": func(c []*parser.Child) interface{} {
		children, _ := c[0].Value.([]*Tree)
		if t := childTree(c[1]); t != nil {
			children = append(children, t)
		}
		return children
	},
	"single": func(c []*parser.Child) interface{} {
		if t := childTree(c[0]); t != nil {
			return []*Tree{t}
		}
		return []*Tree{}
	},
}

type treeParser struct {
	lineOffset int
}

func (tp *treeParser) parseTree(src io.Reader) (*Tree, error) {
	cgram, err := compiledTreeGrammar()
	if err != nil {
		return nil, err
	}
	toks, err := parser.NewTokenStream(cgram, src)
	if err != nil {
		return nil, err
	}
	p, err := parser.NewParser(parser.NewGrammar(cgram), toks, parser.Actions(treeActions))
	if err != nil {
		return nil, err
	}
	v, err := p.Parse()
	if err != nil {
		return nil, err
	}
	synErrs := p.SyntaxErrors()
	if len(synErrs) > 0 {
		msgs := make([]string, len(synErrs))
		for i, synErr := range synErrs {
			e := *synErr
			e.Row += tp.lineOffset
			msgs[i] = e.Error()
		}
		return nil, errors.New(strings.Join(msgs, "\n"))
	}
	t, ok := v.(*Tree)
	if !ok || t == nil {
		return nil, fmt.Errorf("%v: no tree", tp.lineOffset+1)
	}
	return t.Fill(), nil
}
