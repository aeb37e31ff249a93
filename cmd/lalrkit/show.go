package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	spec "github.com/nihei9/lalrkit/spec/grammar"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "show <grammar file path>",
		Short:   "Print the states and conflicts of a grammar in a readable format",
		Example: `  lalrkit show grammar.lalrkit`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runShow,
	}
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	var grmPath string
	if len(args) > 0 {
		grmPath = args[0]
	}
	gram, err := readGrammar(grmPath)
	if err != nil {
		return err
	}
	report, err := gram.Report()
	if err != nil {
		return err
	}
	return writeReport(os.Stdout, report)
}

const reportTemplate = `# Conflicts

{{ printConflictSummary . }}

# Terminals

{{ range .Terminals -}}
{{ printTerminal . }}
{{ end }}
# Productions

{{ range .Productions -}}
{{ printProduction . }}
{{ end }}
# States
{{ range .States }}
## State {{ .Number }}

{{ range .Kernel -}}
{{ printItem . }}
{{ end }}
{{ range .Shift -}}
{{ printShift . }}
{{ end -}}
{{ range .Reduce -}}
{{ printReduce . }}
{{ end -}}
{{ if .Accept -}}
accept on <eof>
{{ end -}}
{{ range .GoTo -}}
{{ printGoTo . }}
{{ end }}
recovery {{ printItem .Recovery }}
{{ range .Conflicts -}}
{{ printConflict . }}
{{ end -}}
{{ end }}`

func writeReport(w io.Writer, report *spec.Report) error {
	termNames := map[int]string{}
	for _, t := range report.Terminals {
		termNames[t.Number] = t.Name
	}
	termName := func(sym int) string {
		return termNames[sym]
	}
	nonTermNames := map[int]string{}
	for _, n := range report.NonTerminals {
		nonTermNames[n.Number] = n.Name
	}

	prec := func(p int) string {
		if p == 0 {
			return " -"
		}
		return fmt.Sprintf("%2v", p)
	}
	assoc := func(a string) string {
		if a == "" {
			return "-"
		}
		return a
	}

	fns := template.FuncMap{
		"printConflictSummary": func(report *spec.Report) string {
			var implicitlyResolvedCount int
			var explicitlyResolvedCount int
			for _, s := range report.States {
				for _, c := range s.Conflicts {
					if c.Explicit {
						explicitlyResolvedCount++
					} else {
						implicitlyResolvedCount++
					}
				}
			}

			var b strings.Builder
			if implicitlyResolvedCount == 1 {
				fmt.Fprintf(&b, "%v conflict occurred and resolved implicitly.\n", implicitlyResolvedCount)
			} else if implicitlyResolvedCount > 1 {
				fmt.Fprintf(&b, "%v conflicts occurred and resolved implicitly.\n", implicitlyResolvedCount)
			}
			if explicitlyResolvedCount == 1 {
				fmt.Fprintf(&b, "%v conflict occurred and resolved explicitly.\n", explicitlyResolvedCount)
			} else if explicitlyResolvedCount > 1 {
				fmt.Fprintf(&b, "%v conflicts occurred and resolved explicitly.\n", explicitlyResolvedCount)
			}
			if implicitlyResolvedCount == 0 && explicitlyResolvedCount == 0 {
				fmt.Fprintf(&b, "No conflict")
			}
			return b.String()
		},
		"printTerminal": func(term *spec.Terminal) string {
			var b strings.Builder
			fmt.Fprintf(&b, "%4v %v %v %v", term.Number, prec(term.Precedence), assoc(term.Associativity), term.Name)
			switch {
			case term.Literal:
				fmt.Fprintf(&b, " '%v'", term.Pattern)
			case term.Pattern != "":
				fmt.Fprintf(&b, " \"%v\"", term.Pattern)
			}
			if term.Skip {
				fmt.Fprintf(&b, " #skip")
			}
			return b.String()
		},
		"printProduction": func(prod *spec.ReportProduction) string {
			return fmt.Sprintf("%4v %v %v %v", prod.Number, prec(prod.Precedence), assoc(prod.Associativity), prod.Text)
		},
		"printItem": func(item *spec.Item) string {
			return fmt.Sprintf("%4v %v", item.Production, item.Text)
		},
		"printShift": func(tran *spec.Transition) string {
			return fmt.Sprintf("shift  %4v on %v", tran.State, termName(tran.Symbol))
		},
		"printReduce": func(reduce *spec.Reduce) string {
			names := make([]string, len(reduce.LookAhead))
			for i, a := range reduce.LookAhead {
				names[i] = termName(a)
			}
			return fmt.Sprintf("reduce %4v on %v", reduce.Production, strings.Join(names, ", "))
		},
		"printGoTo": func(tran *spec.Transition) string {
			return fmt.Sprintf("goto   %4v on %v", tran.State, nonTermNames[tran.Symbol])
		},
		"printConflict": func(c *spec.Conflict) string {
			var b strings.Builder
			fmt.Fprintf(&b, "%v conflict on %v: resolved by %v", c.Kind, termName(c.Terminal), c.ResolvedBy)
			if !c.Explicit {
				fmt.Fprintf(&b, " (implicitly)")
			}
			for i, ctd := range c.Contenders {
				mark := " "
				if i == c.Chosen {
					mark = "*"
				}
				fmt.Fprintf(&b, "\n    %v %v (%v)", mark, ctd.Action, ctd.Production)
			}
			return b.String()
		},
	}

	tmpl, err := template.New("").Funcs(fns).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, report)
}
