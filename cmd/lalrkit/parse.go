package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nihei9/lalrkit/driver/parser"
	spec "github.com/nihei9/lalrkit/spec/grammar"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	source *string
	start  *string
	json   *bool
	plain  *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "parse <grammar file path>",
		Short: "Parse a text stream",
		Long: `Parse a text stream and print its syntax tree.
The grammar is either a compiled grammar (*.json) or a grammar file.`,
		Example: `  cat src | lalrkit parse grammar.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.start = cmd.Flags().String("start", "", "start symbol (default the first one of the grammar)")
	parseFlags.json = cmd.Flags().Bool("json", false, "print the syntax tree in JSON")
	parseFlags.plain = cmd.Flags().Bool("plain", false, "print the syntax tree without colors")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cgram, err := readCompiledGrammar(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a grammar: %w", err)
	}

	src := os.Stdin
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return fmt.Errorf("Cannot open the source file %s: %w", *parseFlags.source, err)
		}
		defer f.Close()
		src = f
	}

	tree, synErrs, err := parseText(cgram, src, *parseFlags.start)
	if err != nil {
		return err
	}
	for _, synErr := range synErrs {
		pterm.Error.Println(synErr.Error())
	}

	switch {
	case *parseFlags.json:
		b, err := json.Marshal(tree)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%v\n", string(b))
	case *parseFlags.plain:
		parser.PrintTree(os.Stdout, tree)
	default:
		renderTree(tree)
	}
	return nil
}

func parseText(cgram *spec.CompiledGrammar, src io.Reader, start string) (*parser.Node, []*parser.SyntaxError, error) {
	gram := parser.NewGrammar(cgram)
	toks, err := parser.NewTokenStream(cgram, src)
	if err != nil {
		return nil, nil, err
	}
	treeAct := parser.NewSyntaxTreeActionSet(gram)
	p, err := parser.NewParser(gram, toks, parser.SemanticAction(treeAct), parser.StartSymbol(start))
	if err != nil {
		return nil, nil, err
	}
	_, err = p.Parse()
	if err != nil {
		return nil, nil, err
	}
	return treeAct.Tree(), p.SyntaxErrors(), nil
}

func renderTree(tree *parser.Node) {
	if tree == nil {
		pterm.Info.Println("no syntax tree")
		return
	}
	root := pterm.NewTreeFromLeveledList(leveledNode(tree, pterm.LeveledList{}, 0))
	pterm.DefaultTree.WithRoot(root).Render()
}

func leveledNode(node *parser.Node, ll pterm.LeveledList, level int) pterm.LeveledList {
	var text string
	switch node.Type {
	case parser.NodeTypeMissing:
		text = pterm.FgRed.Sprint(node.KindName + " <missing>")
	case parser.NodeTypeTerminal:
		text = fmt.Sprintf("%v %v", node.KindName, pterm.FgGreen.Sprint(strconv.Quote(node.Text)))
	default:
		text = node.KindName
	}
	ll = append(ll, pterm.LeveledListItem{
		Level: level,
		Text:  text,
	})
	for _, c := range node.Children {
		ll = leveledNode(c, ll, level+1)
	}
	return ll
}
