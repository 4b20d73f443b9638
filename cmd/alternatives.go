package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"strand/loom/internal/query"
)

var (
	altsJSON         bool
	altsFormat       string
	altsRationale    bool
	altsConsequences bool
	altsRejected     bool
)

var alternativesCmd = &cobra.Command{
	Use:   "alternatives <file> <question>",
	Short: "Reconstruct the decision around a question",
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
		res, err := eng.Alternatives(node.ID, query.AlternativesOptions{
			Format:              altsFormat,
			IncludeRationale:    altsRationale,
			IncludeConsequences: altsConsequences,
			ShowRejectedReasons: altsRejected,
		})
		if err != nil {
			return err
		}
		if altsJSON {
			return printJSON(res)
		}
		printAlternatives(res)
		return nil
	},
}

func init() {
	alternativesCmd.Flags().BoolVar(&altsJSON, "json", false, "Output as JSON")
	alternativesCmd.Flags().StringVar(&altsFormat, "format", "", "Result shape: simple, tree, or comparison")
	alternativesCmd.Flags().BoolVar(&altsRationale, "rationale", true, "Include the decision rationale")
	alternativesCmd.Flags().BoolVar(&altsConsequences, "consequences", true, "Include per-alternative consequences")
	alternativesCmd.Flags().BoolVar(&altsRejected, "rejected-reasons", false, "Include why rejected options lost")
	rootCmd.AddCommand(alternativesCmd)
}

func printAlternatives(res *query.AlternativesResult) {
	switch {
	case res.Simple != nil:
		fmt.Printf("question: %s\n", res.Simple.Question)
		for _, opt := range res.Simple.OptionsConsidered {
			marker := " "
			if opt == res.Simple.Chosen {
				marker = "*"
			}
			fmt.Printf("  %s %s\n", marker, opt)
		}
		if res.Simple.Rationale != "" {
			fmt.Printf("rationale: %s\n", res.Simple.Rationale)
		}
	case res.Tree != nil:
		fmt.Printf("question: %s\n", res.Tree.Question)
		for _, b := range res.Tree.Alternatives {
			printTreeBranch(b, 1)
		}
	case res.Comparison != nil:
		printComparison(res.Comparison)
	}
}

func printTreeBranch(b *query.TreeBranch, depth int) {
	indent := strings.Repeat("  ", depth)
	marker := " "
	if b.Chosen {
		marker = "*"
	}
	fmt.Printf("%s%s %s\n", indent, marker, truncContent(b.Content, 60))
	if b.RejectedReason != "" {
		fmt.Printf("%s  rejected: %s\n", indent, truncContent(b.RejectedReason, 60))
	}
	for _, c := range b.Children {
		printTreeBranch(c, depth+1)
	}
}

func printComparison(c *query.ComparisonDecision) {
	fmt.Printf("question: %s\n", c.Question)
	for _, alt := range c.Alternatives {
		marker := " "
		if alt.Chosen {
			marker = "*"
		}
		fmt.Printf("\n%s %s\n", marker, alt.Content)
		if alt.Rationale != "" {
			fmt.Printf("  rationale: %s\n", alt.Rationale)
		}
		if alt.DecidedOn != "" {
			fmt.Printf("  decided on: %s\n", alt.DecidedOn)
		}
		for _, r := range alt.RejectionReasons {
			fmt.Printf("  rejected: %s\n", truncContent(r, 60))
		}
		for _, csq := range alt.Consequences {
			fmt.Printf("  -> %s\n", truncContent(csq, 60))
		}
		for _, t := range alt.Tensions {
			axis := "unlabeled"
			if t.Axis != nil {
				axis = *t.Axis
			}
			fmt.Printf("  >< %s [%s]\n", truncContent(t.TargetContent, 40), axis)
		}
	}
	if c.Summary.Chosen != "" {
		fmt.Printf("\nchosen: %s\n", c.Summary.Chosen)
	}
	if len(c.Summary.KeyFactors) > 0 {
		fmt.Printf("key factors: %s\n", strings.Join(c.Summary.KeyFactors, ", "))
	}
}
