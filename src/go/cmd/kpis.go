package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arvind3/qa-intelligence-platform/src/go/analytics"
	"github.com/arvind3/qa-intelligence-platform/src/go/dataset"
)

var kpisCmd = &cobra.Command{
	Use:   "kpis [dataset.json]",
	Short: "Compute quality KPIs for a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := dataset.LoadFile(args[0])
		if err != nil {
			return err
		}

		kpis := analytics.ComputeKpis(rows)
		fmt.Printf("Total tests:            %d\n", kpis.TotalTests)
		fmt.Printf("Exact duplicate groups: %d\n", kpis.ExactDuplicateGroups)
		fmt.Printf("Near duplicate groups:  %d\n", kpis.NearDuplicateGroups)
		fmt.Printf("Redundancy score:       %.1f%%\n", kpis.RedundancyScore)
		fmt.Printf("Entropy score:          %.1f%%\n", kpis.EntropyScore)
		fmt.Printf("Orphan tag ratio:       %.1f%%\n", kpis.OrphanTagRatio)

		groups := analytics.TopFamilyGroups(rows)
		if len(groups) > 0 {
			fmt.Println("\nLargest families:")
			for _, g := range groups {
				fmt.Printf("  %5d  %s\n", g.Count, g.Name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kpisCmd)
}
