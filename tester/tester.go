package tester

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/nihei9/lalrkit/driver/parser"
	spec "github.com/nihei9/lalrkit/spec/grammar"
)

// Case is a test case file. Err is set when the file cannot be read or parsed.
type Case struct {
	Path string
	Test *TestCase
	Err  error
}

// LoadCases reads a test case file, or every file under a directory in path order.
func LoadCases(path string) []*Case {
	var cases []*Case
	filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			cases = append(cases, &Case{Path: p, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		c, err := loadCase(p)
		cases = append(cases, &Case{Path: p, Test: c, Err: err})
		return nil
	})
	sort.SliceStable(cases, func(i, j int) bool {
		return cases[i].Path < cases[j].Path
	})
	return cases
}

func loadCase(path string) (*TestCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTestCase(f)
}

// Result is the outcome of a test case. A case fails when Err is set or the tree differs from the
// expected one. Syntax errors the parser recovered from do not fail a case by themselves; the
// expected tree decides.
type Result struct {
	Path  string
	Err   error
	Diffs []*TreeDiff

	// Recovered lists the syntax errors the parser recovered from, and Missing the paths of the
	// symbols it synthesized.
	Recovered []*parser.SyntaxError
	Missing   []string
}

var errTreeMismatch = errors.New("the tree differs from the expected one")

func (r *Result) Failed() bool {
	return r.Err != nil
}

func (r *Result) String() string {
	const indent = "    "

	var b strings.Builder
	if !r.Failed() {
		fmt.Fprintf(&b, "PASS %v", r.Path)
	} else {
		fmt.Fprintf(&b, "FAIL %v: %v", r.Path, strings.ReplaceAll(r.Err.Error(), "\n", "\n"+indent))
	}
	for _, d := range r.Diffs {
		fmt.Fprintf(&b, "\n%v%v\n%v%v  expected: %v\n%v%v  actual:   %v", indent, d.Message, indent, indent, d.ExpectedPath, indent, indent, d.ActualPath)
	}
	for _, e := range r.Recovered {
		fmt.Fprintf(&b, "\n%vrecovered: %v", indent, e)
	}
	for _, m := range r.Missing {
		fmt.Fprintf(&b, "\n%vmissing: %v", indent, m)
	}
	return b.String()
}

// Tester runs test cases against a compiled grammar. The parsers of all cases share the grammar.
type Tester struct {
	Grammar *spec.CompiledGrammar
	Cases   []*Case

	// Workers is the number of cases running at once. A value less than 1 means 1.
	Workers int
}

// Run returns the results in the order of Cases.
func (t *Tester) Run() []*Result {
	workers := t.Workers
	if workers < 1 {
		workers = 1
	}
	gram := parser.NewGrammar(t.Grammar)
	rs := make([]*Result, len(t.Cases))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, c := range t.Cases {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, c *Case) {
			defer func() {
				<-sem
				wg.Done()
			}()
			rs[i] = runCase(gram, t.Grammar, c)
		}(i, c)
	}
	wg.Wait()
	return rs
}

func runCase(gram parser.Grammar, cgram *spec.CompiledGrammar, c *Case) *Result {
	r := &Result{
		Path: c.Path,
	}
	if c.Err != nil {
		r.Err = c.Err
		return r
	}

	toks, err := parser.NewTokenStream(cgram, bytes.NewReader(c.Test.Source))
	if err != nil {
		r.Err = err
		return r
	}
	semAct := parser.NewSyntaxTreeActionSet(gram)
	p, err := parser.NewParser(gram, toks, parser.SemanticAction(semAct))
	if err != nil {
		r.Err = err
		return r
	}
	if _, err := p.Parse(); err != nil {
		r.Err = err
		return r
	}
	r.Recovered = p.SyntaxErrors()

	actual := genTree(semAct.Tree()).Fill()
	r.Missing = actual.missingPaths()
	if r.Diffs = DiffTree(c.Test.Output, actual); len(r.Diffs) > 0 {
		r.Err = errTreeMismatch
	}
	return r
}

// genTree converts a syntax tree. A symbol error recovery synthesized becomes a leaf without a
// lexeme, so `(kind)` in an expected tree matches it.
func genTree(node *parser.Node) *Tree {
	if node == nil {
		return NewNonTerminalTree("")
	}
	switch node.Type {
	case parser.NodeTypeMissing:
		t := NewTerminalNode(node.KindName, "")
		t.missing = true
		return t
	case parser.NodeTypeTerminal:
		return NewTerminalNode(node.KindName, node.Text)
	}
	children := make([]*Tree, len(node.Children))
	for i, c := range node.Children {
		children[i] = genTree(c)
	}
	return NewNonTerminalTree(node.KindName, children...)
}
