package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"strand/loom/internal/ir"
	"strand/loom/internal/validate"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a compiled document against the IR contract",
	Long: `Validate a document. A .strand file is compiled first; any other
file is read as compiled IR JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}
		rep := validate.Document(doc)
		if validateJSON {
			return printJSON(rep)
		}
		if rep.Valid {
			fmt.Println("valid")
			return nil
		}
		for _, e := range rep.Errors {
			fmt.Println(e)
		}
		return fmt.Errorf("%d validation error(s)", len(rep.Errors))
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(validateCmd)
}

// loadDocument compiles strand notation or decodes already-compiled IR.
func loadDocument(path string) (*ir.Document, error) {
	if path == "-" || strings.HasSuffix(path, ".strand") {
		return compileFile(path)
	}
	data, _, err := readSource(path)
	if err != nil {
		return nil, err
	}
	var doc ir.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &doc, nil
}
