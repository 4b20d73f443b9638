package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"strand/loom/internal/query"
)

var (
	whyJSON         bool
	whyMaxDepth     int
	whyCorrelations bool
	whyFormat       string
)

var whyCmd = &cobra.Command{
	Use:   "why <file> <node>",
	Short: "Trace the causal ancestry of a node",
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
		res, err := eng.Why(node.ID, query.WhyOptions{
			MaxDepth:            queryDepth(whyMaxDepth),
			IncludeCorrelations: whyCorrelations,
			Format:              whyFormat,
		})
		if err != nil {
			return err
		}
		if whyJSON {
			return printJSON(res)
		}
		printWhy(res)
		return nil
	},
}

func init() {
	whyCmd.Flags().BoolVar(&whyJSON, "json", false, "Output as JSON")
	whyCmd.Flags().IntVar(&whyMaxDepth, "max-depth", 0, "Limit traversal depth (0 = unbounded)")
	whyCmd.Flags().BoolVar(&whyCorrelations, "correlations", false, "Follow equivalence edges too")
	whyCmd.Flags().StringVar(&whyFormat, "format", "", "Result shape: chain or minimal")
	rootCmd.AddCommand(whyCmd)
}

// queryDepth applies the configured default when the flag is unset.
func queryDepth(flag int) int {
	if flag > 0 {
		return flag
	}
	return cfg.Query.MaxDepth
}

func printWhy(res *query.WhyResult) {
	if res.Format == "minimal" {
		if res.RootContent == "" {
			fmt.Println("no causal ancestry found")
			return
		}
		fmt.Printf("root cause: %s\n", res.RootContent)
		for _, step := range res.Chain {
			fmt.Printf("  <- %s\n", step)
		}
		return
	}

	fmt.Printf("target: %s\n", res.TargetContent)
	if res.RootCause == nil {
		fmt.Println("no causal ancestry found")
		return
	}
	fmt.Printf("root cause: %s (depth %d)\n", res.RootCause.Content, res.RootCause.Depth)
	for i, step := range res.CausalChain {
		if i == 0 {
			fmt.Printf("  %s\n", truncContent(step.Content, 60))
			continue
		}
		fmt.Printf("  -> %s (%s)\n", truncContent(step.Content, 60), step.Via)
	}
	if res.HasMultiplePaths {
		fmt.Println("multiple causal paths exist")
	}
}
