package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strand/loom/internal/ir"
	"strand/loom/internal/lint"
	"strand/loom/internal/watch"
)

var (
	compileOut   string
	compileLint  bool
	compileWatch bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Compile strand source to IR JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !compileWatch {
			return compileOnce(path)
		}
		if path == "-" {
			return fmt.Errorf("--watch needs a file path, not stdin")
		}

		if err := compileOnce(path); err != nil {
			fmt.Fprintf(os.Stderr, "[compile] %v\n", err)
		}
		w, err := watch.New(path, logger)
		if err != nil {
			return err
		}
		defer w.Stop()
		fmt.Fprintf(os.Stderr, "[watch] watching %s\n", path)
		w.Run(func() {
			if err := compileOnce(path); err != nil {
				fmt.Fprintf(os.Stderr, "[compile] %v\n", err)
				return
			}
			fmt.Fprintf(os.Stderr, "[compile] %s recompiled\n", path)
		})
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileOut, "output", "o", "", "Write IR JSON to this file instead of stdout")
	compileCmd.Flags().BoolVar(&compileLint, "lint", false, "Run the linter and fail on lint errors")
	compileCmd.Flags().BoolVar(&compileWatch, "watch", false, "Recompile whenever the file changes")
	rootCmd.AddCommand(compileCmd)
}

func compileOnce(path string) error {
	doc, err := compileFile(path)
	if err != nil {
		return err
	}

	if compileLint {
		rep := lint.Run(doc, cfg.LintRules(), logger)
		lint.Advertise(doc, rep)
		for _, d := range rep.Diagnostics {
			fmt.Fprintf(os.Stderr, "[lint] %s\n", formatDiagnostic(d))
		}
		if rep.HasErrors() {
			return fmt.Errorf("%d lint error(s)", rep.Errors)
		}
	}

	return writeDocument(doc)
}

func writeDocument(doc *ir.Document) error {
	if compileOut == "" {
		return printJSON(doc)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(compileOut, append(data, '\n'), 0644)
}
