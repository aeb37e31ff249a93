package main

import (
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var replFlags = struct {
	start *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "repl <grammar file path>",
		Short:   "Parse lines interactively",
		Example: `  lalrkit repl grammar.lalrkit`,
		Args:    cobra.ExactArgs(1),
		RunE:    runREPL,
	}
	replFlags.start = cmd.Flags().String("start", "", "start symbol (default the first one of the grammar)")
	rootCmd.AddCommand(cmd)
}

func runREPL(cmd *cobra.Command, args []string) error {
	cgram, err := readCompiledGrammar(args[0])
	if err != nil {
		return err
	}

	repl, err := readline.New(cgram.Name + "> ")
	if err != nil {
		return err
	}
	defer repl.Close()

	pterm.Info.Println("Quit with <ctrl>D")
	for {
		line, err := repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		tree, synErrs, err := parseText(cgram, strings.NewReader(line), *replFlags.start)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		for _, synErr := range synErrs {
			pterm.Error.Println(synErr.Error())
		}
		renderTree(tree)
	}
	return nil
}
