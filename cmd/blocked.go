package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"strand/loom/internal/query"
)

var (
	blockedJSON      bool
	blockedSince     string
	blockedTransCsq  bool
	blockedTransEff  bool
	blockedFmtOption string
)

var blockedCmd = &cobra.Command{
	Use:   "blocked <file>",
	Short: "List blocked work sorted by impact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine(args[0])
		if err != nil {
			return err
		}
		res, err := eng.Blocked(query.BlockedOptions{
			Since:                   blockedSince,
			IncludeTransitiveCauses: blockedTransCsq,
			IncludeTransitiveEffect: blockedTransEff,
			Format:                  blockedFmtOption,
		})
		if err != nil {
			return err
		}
		if blockedJSON {
			return printJSON(res)
		}
		printBlocked(res)
		return nil
	},
}

func init() {
	blockedCmd.Flags().BoolVar(&blockedJSON, "json", false, "Output as JSON")
	blockedCmd.Flags().StringVar(&blockedSince, "since", "", "Keep blockers at or after this date (YYYY-MM-DD)")
	blockedCmd.Flags().BoolVar(&blockedTransCsq, "transitive-causes", false, "Include what each blocker transitively depends on")
	blockedCmd.Flags().BoolVar(&blockedTransEff, "transitive-effects", false, "Include what each blocker transitively holds up")
	blockedCmd.Flags().StringVar(&blockedFmtOption, "format", "", "Result shape: full or summary")
	rootCmd.AddCommand(blockedCmd)
}

func printBlocked(res *query.BlockedResult) {
	if res.Total == 0 {
		fmt.Println("nothing blocked")
		return
	}
	fmt.Printf("%d blocked, %d high priority, mean %.1f day(s)\n",
		res.Total, res.HighPriority, res.MeanDaysBlocked)
	if res.Oldest != nil {
		fmt.Printf("oldest: %s (%d days)\n", truncContent(res.Oldest.Content, 60), res.Oldest.DaysBlocked)
	}
	for _, item := range res.Items {
		fmt.Printf("\n%s  %s\n", truncID(item.NodeID), truncContent(item.Content, 60))
		if item.Reason != "" {
			fmt.Printf("  reason: %s\n", item.Reason)
		}
		if item.Since != "" {
			fmt.Printf("  since %s (%d days, impact %d)\n", item.Since, item.DaysBlocked, item.ImpactScore)
		} else {
			fmt.Printf("  impact %d\n", item.ImpactScore)
		}
		for _, c := range item.TransitiveCauses {
			fmt.Printf("  depends on: %s\n", truncContent(c, 60))
		}
		for _, e := range item.TransitiveEffect {
			fmt.Printf("  holds up: %s\n", truncContent(e, 60))
		}
	}
}
