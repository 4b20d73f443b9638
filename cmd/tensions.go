package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"strand/loom/internal/query"
)

var (
	tensionsJSON    bool
	tensionsGroupBy string
	tensionsAxes    []string
	tensionsContext bool
	tensionsScope   string
)

var tensionsCmd = &cobra.Command{
	Use:   "tensions <file>",
	Short: "Map the tradeoffs in a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine(args[0])
		if err != nil {
			return err
		}
		scope := tensionsScope
		if scope != "" {
			node, err := eng.Resolve(scope)
			if err != nil {
				return err
			}
			scope = node.ID
		}
		res, err := eng.Tensions(query.TensionsOptions{
			GroupBy:        tensionsGroupBy,
			FilterByAxis:   tensionsAxes,
			IncludeContext: tensionsContext,
			Scope:          scope,
		})
		if err != nil {
			return err
		}
		if tensionsJSON {
			return printJSON(res)
		}
		printTensions(res)
		return nil
	},
}

func init() {
	tensionsCmd.Flags().BoolVar(&tensionsJSON, "json", false, "Output as JSON")
	tensionsCmd.Flags().StringVar(&tensionsGroupBy, "group-by", "", "Group results: axis or source")
	tensionsCmd.Flags().StringArrayVar(&tensionsAxes, "axis", nil, "Keep only tensions on this axis (repeatable)")
	tensionsCmd.Flags().BoolVar(&tensionsContext, "context", false, "Include the non-tension parents of each endpoint")
	tensionsCmd.Flags().StringVar(&tensionsScope, "scope", "", "Restrict to the subgraph reachable from this node")
	rootCmd.AddCommand(tensionsCmd)
}

func printTensions(res *query.TensionsResult) {
	if res.Total == 0 {
		fmt.Println("no tensions found")
		return
	}
	fmt.Printf("%d tension(s)", res.Total)
	if res.MostFrequentAxis != "" {
		fmt.Printf(", most frequent axis: %s", res.MostFrequentAxis)
	}
	fmt.Println()

	switch {
	case res.ByAxis != nil:
		for _, axis := range res.Axes {
			group := res.ByAxis[axis]
			if len(group) == 0 {
				continue
			}
			fmt.Printf("\n[%s]\n", axis)
			for _, t := range group {
				printTensionEntry(t)
			}
		}
	case res.BySource != nil:
		sources := make([]string, 0, len(res.BySource))
		for src := range res.BySource {
			sources = append(sources, src)
		}
		sort.Strings(sources)
		for _, src := range sources {
			fmt.Printf("\n%s\n", truncID(src))
			for _, t := range res.BySource[src] {
				printTensionEntry(t)
			}
		}
	default:
		for _, t := range res.Flat {
			printTensionEntry(t)
		}
	}
}

func printTensionEntry(t query.ContextualTension) {
	axis := "unlabeled"
	if t.Axis != nil {
		axis = *t.Axis
	}
	fmt.Printf("  %s >< %s [%s] (line %d)\n",
		truncContent(t.SourceContent, 40), truncContent(t.TargetContent, 40), axis, t.Line)
	for _, c := range t.SourceContext {
		fmt.Printf("    source context: %s\n", truncContent(c, 60))
	}
	for _, c := range t.TargetContext {
		fmt.Printf("    target context: %s\n", truncContent(c, 60))
	}
}
