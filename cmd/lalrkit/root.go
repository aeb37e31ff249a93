package main

import (
	"fmt"
	"os"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var tracedPackages = []string{
	"lalrkit.cli",
	"lalrkit.spec",
	"lalrkit.grammar",
	"lalrkit.parser",
}

func tracer() tracing.Trace {
	return tracing.Select("lalrkit.cli")
}

var rootFlags = struct {
	trace *string
}{}

var rootCmd = &cobra.Command{
	Use:   "lalrkit",
	Short: "Generate an LALR(1) parsing table from a grammar and parse texts with it",
	Long: `lalrkit provides the following features:
- Compiles a grammar into a portable parsing table.
- Parses a text stream with a grammar, recovering from syntax errors.
- Prints the states and conflicts of a grammar.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setUpTracing(*rootFlags.trace)
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootFlags.trace = rootCmd.PersistentFlags().String("trace", "Error", "trace level [Debug|Info|Error]")
}

func setUpTracing(level string) {
	gtrace.SyntaxTracer = gologadapter.New()
	l := tracing.TraceLevelFromString(level)
	for _, key := range tracedPackages {
		tracing.Select(key).SetTraceLevel(l)
	}
	tracer().Infof("trace level is %v", level)
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func Execute() error {
	initDisplay()
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
