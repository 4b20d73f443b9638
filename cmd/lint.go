package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"strand/loom/internal/lint"
)

var lintJSON bool

var lintCmd = &cobra.Command{
	Use:   "lint <file>",
	Short: "Check a strand file for structural problems",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := compileFile(args[0])
		if err != nil {
			return err
		}
		rep := lint.Run(doc, cfg.LintRules(), logger)

		if lintJSON {
			if err := printJSON(rep); err != nil {
				return err
			}
		} else {
			for _, d := range rep.Diagnostics {
				fmt.Println(formatDiagnostic(d))
			}
			fmt.Printf("%d error(s), %d warning(s)\n", rep.Errors, rep.Warnings)
		}

		if rep.HasErrors() {
			return fmt.Errorf("lint failed with %d error(s)", rep.Errors)
		}
		return nil
	},
}

func init() {
	lintCmd.Flags().BoolVar(&lintJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(lintCmd)
}

func formatDiagnostic(d lint.Diagnostic) string {
	loc := ""
	if d.Line > 0 {
		loc = fmt.Sprintf("line %d: ", d.Line)
	}
	out := fmt.Sprintf("%s%s [%s] %s", loc, d.Severity, d.RuleCode, d.Message)
	if d.Suggestion != "" {
		out += " (" + d.Suggestion + ")"
	}
	return out
}
