package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"strand/loom/internal/ir"
	"strand/loom/internal/query"
)

var (
	pathJSON bool
	pathRels []string
)

var pathCmd = &cobra.Command{
	Use:   "path <file> <from> <to>",
	Short: "Find the shortest relationship path between two nodes",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine(args[0])
		if err != nil {
			return err
		}
		from, err := eng.Resolve(args[1])
		if err != nil {
			return err
		}
		to, err := eng.Resolve(args[2])
		if err != nil {
			return err
		}
		var rels []ir.RelType
		for _, r := range pathRels {
			rels = append(rels, ir.RelType(r))
		}
		res, err := eng.Path(from.ID, to.ID, query.PathOptions{RelTypes: rels})
		if err != nil {
			return err
		}
		if pathJSON {
			return printJSON(res)
		}
		printPath(eng, res)
		return nil
	},
}

func init() {
	pathCmd.Flags().BoolVar(&pathJSON, "json", false, "Output as JSON")
	pathCmd.Flags().StringArrayVar(&pathRels, "rel", nil, "Traverse only this relationship type (repeatable)")
	rootCmd.AddCommand(pathCmd)
}

func printPath(eng *query.Engine, res *query.PathResult) {
	if !res.Found {
		fmt.Println("no path found")
		return
	}
	start, err := eng.Node(res.FromID)
	if err == nil {
		fmt.Println(truncContent(start.Content, 60))
	}
	for _, hop := range res.Hops {
		fmt.Printf("  -[%s]-> %s\n", hop.RelType, truncContent(hop.Content, 60))
	}
}
