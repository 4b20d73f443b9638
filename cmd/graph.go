package cmd

import (
	"github.com/spf13/cobra"

	"strand/loom/internal/viz"
)

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Project a document into visualization graph data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := compileFile(args[0])
		if err != nil {
			return err
		}
		data, err := viz.Project(doc)
		if err != nil {
			return err
		}
		return printJSON(data)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
