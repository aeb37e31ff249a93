package tester

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nihei9/lalrkit/grammar"
	spec "github.com/nihei9/lalrkit/spec/grammar"
	gspec "github.com/nihei9/lalrkit/spec/grammar/parser"
)

func TestTester_Run(t *testing.T) {
	grammarSrc1 := `
#name test;

s
    : foo bar baz
    ;

ws #skip: "[\u{0009}\u{0020}]+";
foo: 'foo';
bar: 'bar';
baz: 'baz';
`

	grammarSrc2 := `
#name test;

s
    : foos
    ;
foos
    : foos foo
    | foo
    ;

ws #skip: "[\u{0009}\u{0020}]+";
foo: 'foo';
`

	tests := []struct {
		grammarSrc string
		testSrc    string
		failed     bool
		recovered  int
		missing    []string
	}{
		{
			grammarSrc: grammarSrc1,
			testSrc: `
Test
---
foo bar baz
---
(s
    (foo 'foo') (bar 'bar') (baz 'baz'))
`,
		},
		{
			grammarSrc: grammarSrc1,
			testSrc: `
Test
---
foo baz
---
(s
    (foo 'foo') (bar) (baz 'baz'))
`,
			recovered: 1,
			missing:   []string{"s.[1]bar"},
		},
		{
			grammarSrc: grammarSrc1,
			testSrc: `
Test
---
foo bar baz
---
(_
    (foo 'foo') (_ 'bar') (baz 'baz'))
`,
		},
		{
			grammarSrc: grammarSrc1,
			testSrc: `
Test
---
foo bar baz
---
(s)
`,
			failed: true,
		},
		{
			grammarSrc: grammarSrc1,
			testSrc: `
Test
---
foo bar baz
---
(s
    (foo 'foo') (bar 'bar'))
`,
			failed: true,
		},
		{
			grammarSrc: grammarSrc1,
			testSrc: `
Test
---
foo bar baz
---
(s
    (foo 'foo') (bar 'bar') (xxx 'baz'))
`,
			failed: true,
		},
		{
			grammarSrc: grammarSrc2,
			testSrc: `
Test
---
foo foo foo
---
(s
    (foos
        (foos
            (foos
                (foo 'foo'))
            (foo 'foo'))
        (foo 'foo')))
`,
		},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("#%v", i), func(t *testing.T) {
			cg := compileGrammar(t, tt.grammarSrc)
			c, err := ParseTestCase(strings.NewReader(tt.testSrc))
			if err != nil {
				t.Fatal(err)
			}
			tester := &Tester{
				Grammar: cg,
				Cases: []*Case{
					{
						Path: fmt.Sprintf("case-%v", i),
						Test: c,
					},
				},
			}
			rs := tester.Run()
			if len(rs) != 1 {
				t.Fatalf("unexpected result count; want: 1, got: %v", len(rs))
			}
			r := rs[0]
			if r.Failed() != tt.failed {
				t.Fatalf("unexpected result; want failed: %v, got: %v", tt.failed, r)
			}
			if tt.failed {
				return
			}
			if len(r.Recovered) != tt.recovered {
				t.Fatalf("unexpected syntax error count; want: %v, got: %v", tt.recovered, len(r.Recovered))
			}
			if len(r.Missing) != len(tt.missing) {
				t.Fatalf("unexpected missing symbols; want: %v, got: %v", tt.missing, r.Missing)
			}
			for j, m := range tt.missing {
				if r.Missing[j] != m {
					t.Fatalf("unexpected missing symbol; want: %v, got: %v", m, r.Missing[j])
				}
			}
		})
	}
}

func TestTester_Run_Workers(t *testing.T) {
	cg := compileGrammar(t, `
#name test;

s
    : foos
    ;
foos
    : foos foo
    | foo
    ;

ws #skip: "[\u{0009}\u{0020}]+";
foo: 'foo';
`)
	var cases []*Case
	for i := 1; i <= 10; i++ {
		src := strings.TrimSpace(strings.Repeat("foo ", i))
		tree := "(foo 'foo')"
		for j := 1; j < i; j++ {
			tree = fmt.Sprintf("(foos %v) (foo 'foo')", tree)
		}
		tree = fmt.Sprintf("(s (foos %v))", tree)
		c, err := ParseTestCase(strings.NewReader(fmt.Sprintf("desc\n---\n%v\n---\n%v\n", src, tree)))
		if err != nil {
			t.Fatal(err)
		}
		cases = append(cases, &Case{
			Path: fmt.Sprintf("case-%02d", i),
			Test: c,
		})
	}
	cases = append(cases, &Case{
		Path: "unreadable",
		Err:  errors.New("no tree part"),
	})

	tester := &Tester{
		Grammar: cg,
		Cases:   cases,
		Workers: 3,
	}
	rs := tester.Run()
	if len(rs) != len(cases) {
		t.Fatalf("unexpected result count; want: %v, got: %v", len(cases), len(rs))
	}
	for i, r := range rs {
		if r.Path != cases[i].Path {
			t.Fatalf("results must keep the order of the cases; want: %v, got: %v", cases[i].Path, r.Path)
		}
		if r.Path == "unreadable" {
			if !r.Failed() {
				t.Fatal("an unreadable case must fail")
			}
			continue
		}
		if r.Failed() {
			t.Fatalf("unexpected failure: %v", r)
		}
	}
}

func TestLoadCases(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.txt":     "desc\n---\nfoo\n---\n(s (foos (foo 'foo')))\n",
		"a/c.txt":   "desc\n---\nfoo\n---\n(s (foos (foo 'foo')))\n",
		"a/bad.txt": "desc\n---\nfoo\n",
	}
	for name, src := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cases := LoadCases(dir)
	want := []struct {
		path string
		err  bool
	}{
		{path: filepath.Join(dir, "a", "bad.txt"), err: true},
		{path: filepath.Join(dir, "a", "c.txt")},
		{path: filepath.Join(dir, "b.txt")},
	}
	if len(cases) != len(want) {
		t.Fatalf("unexpected case count; want: %v, got: %v", len(want), len(cases))
	}
	for i, w := range want {
		c := cases[i]
		if c.Path != w.path {
			t.Fatalf("unexpected path; want: %v, got: %v", w.path, c.Path)
		}
		if (c.Err != nil) != w.err {
			t.Fatalf("unexpected error for %v: %v", c.Path, c.Err)
		}
		if !w.err && c.Test == nil {
			t.Fatalf("a readable case must have a test: %v", c.Path)
		}
	}

	missing := LoadCases(filepath.Join(dir, "nothing"))
	if len(missing) != 1 || missing[0].Err == nil {
		t.Fatalf("a nonexistent path must yield one failed case; got: %v", len(missing))
	}
}

func compileGrammar(t *testing.T, src string) *spec.CompiledGrammar {
	t.Helper()
	ast, err := gspec.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	b := grammar.GrammarBuilder{
		AST: ast,
	}
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	cg, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}
	return cg
}

func TestParseTestCase(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		tree    *Tree
		err     string
	}{
		{
			caption: "a test case has a description, a source, and a tree",
			src: `desc
---
1+2
---
(expr (num '1') (add '+') (num '2'))
`,
			tree: NewNonTerminalTree("expr",
				NewTerminalNode("num", "1"),
				NewTerminalNode("add", "+"),
				NewTerminalNode("num", "2"),
			),
		},
		{
			caption: "a test case needs three parts",
			src: `desc
---
1+2
`,
			err: "too many or too few part delimiters",
		},
		{
			caption: "a syntax error in a tree has a row of the test file",
			src: `desc
---
1+2
---
(expr
    (num '1'
`,
			err: "6:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			c, err := ParseTestCase(strings.NewReader(tt.src))
			if tt.err != "" {
				if err == nil || !strings.Contains(err.Error(), tt.err) {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if string(c.Source) != "1+2" {
				t.Fatalf("unexpected source: %q", c.Source)
			}
			if diffs := DiffTree(tt.tree.Fill(), c.Output); len(diffs) > 0 {
				t.Fatalf("unexpected tree: %v", diffs[0].Message)
			}
		})
	}
}
