package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"strand/loom/internal/stats"
)

var (
	statsJSON      bool
	statsTopN      int
	statsHubDegree int
	statsMinSim    float64
)

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Report structural statistics for a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := compileFile(args[0])
		if err != nil {
			return err
		}
		opts := stats.DefaultOptions()
		if statsTopN > 0 {
			opts.TopN = statsTopN
		}
		if statsHubDegree > 0 {
			opts.HubThreshold = statsHubDegree
		}
		if statsMinSim > 0 {
			opts.MinSimilarity = statsMinSim
		}
		rep := stats.Compute(doc, opts)
		if statsJSON {
			return printJSON(rep)
		}
		printStats(rep)
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().IntVar(&statsTopN, "top-n", 0, "Cap for hub and near-duplicate lists")
	statsCmd.Flags().IntVar(&statsHubDegree, "hub-threshold", 0, "Minimum degree for hub listing")
	statsCmd.Flags().Float64Var(&statsMinSim, "min-similarity", 0, "Near-duplicate similarity cutoff")
	rootCmd.AddCommand(statsCmd)
}

func printStats(rep *stats.Report) {
	fmt.Printf("%d nodes, %d edges, %d states\n", rep.TotalNodes, rep.TotalEdges, rep.TotalStates)
	printTypeCounts("nodes by type", rep.NodesByType)
	printTypeCounts("edges by type", rep.EdgesByType)
	fmt.Printf("components: %d (largest %d, smallest %d)\n",
		rep.NumComponents, rep.LargestComponent, rep.SmallestComponent)

	fmt.Println("degree histogram:")
	for _, b := range rep.DegreeHistogram {
		fmt.Printf("  %-5s %d\n", b.Label, b.Count)
	}

	if len(rep.Hubs) > 0 {
		fmt.Println("hubs:")
		for _, h := range rep.Hubs {
			fmt.Printf("  %s  %s (%s, degree %d: %d in / %d out)\n",
				truncID(h.ID), truncContent(h.Content, 50), h.Type, h.Degree, h.InDegree, h.OutDegree)
		}
	}
	if len(rep.CutVertices) > 0 {
		fmt.Println("cut vertices:")
		for _, v := range rep.CutVertices {
			fmt.Printf("  %s  %s (degree %d)\n", truncID(v.ID), truncContent(v.Content, 50), v.Degree)
		}
	}
	if len(rep.Bridges) > 0 {
		fmt.Println("bridges:")
		for _, b := range rep.Bridges {
			fmt.Printf("  %s -- %s\n", truncContent(b.SourceContent, 40), truncContent(b.TargetContent, 40))
		}
	}
	if len(rep.NearDuplicates) > 0 {
		fmt.Println("near duplicates:")
		for _, d := range rep.NearDuplicates {
			fmt.Printf("  %.2f  %s ~ %s\n", d.Similarity,
				truncContent(d.AContent, 40), truncContent(d.BContent, 40))
		}
	}
}

func printTypeCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %-12s %d\n", k, counts[k])
	}
}
