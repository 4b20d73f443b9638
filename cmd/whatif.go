package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"strand/loom/internal/query"
)

var (
	whatifJSON            bool
	whatifMaxDepth        int
	whatifCorrelations    bool
	whatifExcludeTemporal bool
	whatifFormat          string
)

var whatifCmd = &cobra.Command{
	Use:   "whatif <file> <node>",
	Short: "Show the forward impact of changing a node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine(args[0])
		if err != nil {
			return err
		}
		node, err := eng.Resolve(args[1])
		if err != nil {
			return err
		}
		res, err := eng.WhatIf(node.ID, query.WhatIfOptions{
			MaxDepth:            queryDepth(whatifMaxDepth),
			IncludeCorrelations: whatifCorrelations,
			ExcludeTemporal:     whatifExcludeTemporal,
			Format:              whatifFormat,
		})
		if err != nil {
			return err
		}
		if whatifJSON {
			return printJSON(res)
		}
		printWhatIf(res)
		return nil
	},
}

func init() {
	whatifCmd.Flags().BoolVar(&whatifJSON, "json", false, "Output as JSON")
	whatifCmd.Flags().IntVar(&whatifMaxDepth, "max-depth", 0, "Limit traversal depth (0 = unbounded)")
	whatifCmd.Flags().BoolVar(&whatifCorrelations, "correlations", false, "Follow equivalence edges too")
	whatifCmd.Flags().BoolVar(&whatifExcludeTemporal, "exclude-temporal", false, "Skip temporal edges")
	whatifCmd.Flags().StringVar(&whatifFormat, "format", "", "Result shape: full or summary")
	rootCmd.AddCommand(whatifCmd)
}

func printWhatIf(res *query.WhatIfResult) {
	fmt.Printf("changing: %s\n", res.SourceContent)
	if res.TotalAffected == 0 {
		fmt.Println("nothing downstream")
		return
	}

	if res.Format == "summary" {
		fmt.Printf("%d affected, %d risk(s), %d benefit(s)\n",
			res.TotalAffected, len(res.Risks), len(res.Benefits))
		for _, r := range res.Risks {
			fmt.Printf("  risk: %s\n", truncContent(r, 60))
		}
		if res.KeyTradeoff != "" {
			fmt.Printf("key tradeoff: %s\n", res.KeyTradeoff)
		}
		return
	}

	fmt.Printf("%d affected node(s):\n", res.TotalAffected)
	for _, d := range append(res.Direct, res.Indirect...) {
		marker := ""
		if d.InTension {
			marker = "  [in tension]"
		}
		fmt.Printf("  depth %d  %s%s\n", d.Depth, truncContent(d.Content, 60), marker)
	}
	for _, tn := range res.Tensions {
		axis := "unlabeled"
		if tn.Axis != nil {
			axis = *tn.Axis
		}
		fmt.Printf("  tension: %s >< %s [%s]\n",
			truncContent(tn.SourceContent, 30), truncContent(tn.TargetContent, 30), axis)
	}
}
