package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	verr "github.com/nihei9/lalrkit/error"
	"github.com/nihei9/lalrkit/grammar"
	spec "github.com/nihei9/lalrkit/spec/grammar"
	gparser "github.com/nihei9/lalrkit/spec/grammar/parser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var compileFlags = struct {
	output *string
	report *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile <grammar file path>",
		Short:   "Compile a grammar into a parsing table",
		Example: `  lalrkit compile grammar.lalrkit -o grammar.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	compileFlags.report = cmd.Flags().StringP("report", "r", "", "report file path")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	var grmPath string
	if len(args) > 0 {
		grmPath = args[0]
	}

	gram, err := readGrammar(grmPath)
	if err != nil {
		return err
	}

	cgram, err := gram.Compile(grammar.OnConflict(func(c *grammar.Conflict) {
		if !c.Explicit {
			tracer().Infof("%v", c)
		}
	}))
	if err != nil {
		return err
	}

	err = writeJSON(cgram, *compileFlags.output)
	if err != nil {
		return fmt.Errorf("Cannot write the compiled grammar: %w", err)
	}

	report, err := gram.Report()
	if err != nil {
		return err
	}
	if *compileFlags.report != "" {
		err := writeJSON(report, *compileFlags.report)
		if err != nil {
			return fmt.Errorf("Cannot write the report: %w", err)
		}
	}
	if n := report.ImplicitConflictCount(); n > 0 {
		pterm.Error.Println(fmt.Sprintf("%v conflicts were resolved implicitly; see `lalrkit show`", n))
	}

	return nil
}

// readGrammar reads a grammar file. An empty path means stdin. A grammar without a #name directive
// is named after its file.
func readGrammar(path string) (*grammar.Grammar, error) {
	var src io.Reader
	sourceName := "stdin"
	if path == "" {
		src = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("Cannot open the grammar file %s: %w", path, err)
		}
		defer f.Close()
		src = f
		sourceName = path
	}

	gram, err := buildGrammar(src)
	if err != nil {
		var specErrs verr.SpecErrors
		var specErr *verr.SpecError
		switch {
		case errors.As(err, &specErrs):
			for _, e := range specErrs {
				e.FilePath = path
				e.SourceName = sourceName
			}
		case errors.As(err, &specErr):
			specErr.FilePath = path
			specErr.SourceName = sourceName
		}
		return nil, err
	}

	if gram.Name() == "" {
		name := "stdin"
		if path != "" {
			base := filepath.Base(path)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		gram.SetName(name)
	}
	return gram, nil
}

func buildGrammar(src io.Reader) (*grammar.Grammar, error) {
	ast, err := gparser.Parse(src)
	if err != nil {
		return nil, err
	}
	b := grammar.GrammarBuilder{
		AST: ast,
	}
	return b.Build()
}

// readCompiledGrammar reads a compiled grammar from a JSON file, or compiles a grammar file.
func readCompiledGrammar(path string) (*spec.CompiledGrammar, error) {
	if filepath.Ext(path) != ".json" {
		gram, err := readGrammar(path)
		if err != nil {
			return nil, err
		}
		return gram.Compile()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cgram := &spec.CompiledGrammar{}
	err = json.Unmarshal(data, cgram)
	if err != nil {
		return nil, err
	}
	return cgram, nil
}

func writeJSON(v interface{}, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%v\n", string(b))
	return nil
}
