package main

import (
	"fmt"
	"strings"

	"github.com/nihei9/lalrkit/tester"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var testFlags = struct {
	run     *string
	quiet   *bool
	workers *int
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "test <grammar file path> <test file path>|<test directory path>",
		Short:   "Run syntax tree test cases against a grammar",
		Example: `  lalrkit test expr.lalrkit testdata/expr`,
		Args:    cobra.ExactArgs(2),
		RunE:    runTest,
	}
	testFlags.run = cmd.Flags().String("run", "", "run only the test cases whose file path contains this string")
	testFlags.quiet = cmd.Flags().BoolP("quiet", "q", false, "print failed test cases only")
	testFlags.workers = cmd.Flags().IntP("workers", "w", 4, "number of test cases to run at once")
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	cgram, err := readCompiledGrammar(args[0])
	if err != nil {
		return fmt.Errorf("cannot read a grammar: %w", err)
	}

	cases, err := selectTestCases(tester.LoadCases(args[1]), *testFlags.run)
	if err != nil {
		return err
	}
	tracer().Debugf("%v test cases selected from %v", len(cases), args[1])

	t := &tester.Tester{
		Grammar: cgram,
		Cases:   cases,
		Workers: *testFlags.workers,
	}
	failed := 0
	for _, r := range t.Run() {
		if r.Failed() {
			failed++
			fmt.Println(pterm.FgRed.Sprint(r.String()))
			continue
		}
		if !*testFlags.quiet {
			fmt.Println(pterm.FgGreen.Sprint(r.String()))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%v of %v test cases failed", failed, len(cases))
	}
	pterm.Info.Println(fmt.Sprintf("%v test cases passed", len(cases)))
	return nil
}

// selectTestCases drops the cases not matching filter and fails when any selected case cannot be read.
func selectTestCases(cases []*tester.Case, filter string) ([]*tester.Case, error) {
	var selected []*tester.Case
	unreadable := 0
	for _, c := range cases {
		if filter != "" && !strings.Contains(c.Path, filter) {
			continue
		}
		if c.Err != nil {
			pterm.Error.Println(fmt.Sprintf("cannot read a test case: %v\n%v", c.Path, c.Err))
			unreadable++
			continue
		}
		selected = append(selected, c)
	}
	if unreadable > 0 {
		return nil, fmt.Errorf("%v test cases cannot be read", unreadable)
	}
	return selected, nil
}
