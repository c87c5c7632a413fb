package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arvind3/qa-intelligence-platform/src/go/dataset"
	"github.com/arvind3/qa-intelligence-platform/src/go/synthetic"
)

var (
	seedCount int
	seedValue int64
)

var seedCmd = &cobra.Command{
	Use:   "seed [output.json]",
	Short: "Generate a synthetic test-case dataset",
	Long: `Generate a synthetic dataset with planted quality defects (exact
duplicates, near duplicates, parameterized families, weak tags) and write
it as JSON. The same seed always produces the same dataset.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := synthetic.NewGenerator(seedValue).Generate(seedCount)

		data, err := dataset.ExportJSON(rows)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], data, 0o644); err != nil {
			return fmt.Errorf("failed to write dataset: %w", err)
		}

		fmt.Printf("Wrote %d rows to %s (seed %d)\n", len(rows), args[0], seedValue)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVarP(&seedCount, "count", "n", 10000, "number of rows to generate")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 42, "random seed")
	rootCmd.AddCommand(seedCmd)
}
