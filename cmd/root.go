package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"strand/loom/internal/config"
	"strand/loom/internal/ir"
	"strand/loom/internal/linker"
	"strand/loom/internal/logging"
	"strand/loom/internal/parser"
	"strand/loom/internal/query"
)

var (
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:          "loom",
	Short:        "Compile and query strand thinking notation",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(verbose)
		return err
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to .loom.yaml (default: walk up from cwd)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
}

// readSource reads a .strand file, or stdin when path is "-".
func readSource(path string) (string, string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "<stdin>", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return string(data), path, nil
}

// compileFile runs the parse and link stages on one source file.
func compileFile(path string) (*ir.Document, error) {
	source, filename, err := readSource(path)
	if err != nil {
		return nil, err
	}
	doc, err := parser.Parse(source, filename)
	if err != nil {
		return nil, err
	}
	linker.Link(doc)
	return doc, nil
}

// loadEngine compiles a file and loads the query engine over it.
func loadEngine(path string) (*query.Engine, error) {
	doc, err := compileFile(path)
	if err != nil {
		return nil, err
	}
	return query.Load(doc), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncContent(s string, max int) string {
	if len(s) <= max {
		return s
	}
	truncated := s[:max]
	for len(truncated) > 0 {
		r, size := utf8.DecodeLastRuneInString(truncated)
		if r != utf8.RuneError || size != 1 {
			break
		}
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
