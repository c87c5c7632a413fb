package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arvind3/qa-intelligence-platform/src/go/config"
	"github.com/arvind3/qa-intelligence-platform/src/go/session"
	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

var benchQuick bool

var benchCmd = &cobra.Command{
	Use:   "bench [dataset.json]",
	Short: "Time an embedding build and clustering pass over a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Copilot.Disabled = true

		s, err := session.New(cfg, newLogger())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.LoadDatasetFile(args[0]); err != nil {
			return err
		}
		status := s.Status()
		fmt.Printf("Loaded %d rows (embedding=%s index=%s)\n",
			status.RowCount, status.EmbeddingBackend, status.IndexBackend)

		mode := types.BuildFull
		if benchQuick {
			mode = types.BuildQuick
		}

		start := time.Now()
		task, err := s.StartBuild(cmd.Context(), mode)
		if err != nil {
			return err
		}
		for p := range task.Progress {
			fmt.Printf("\rEmbedding %d/%d (%d%%)", p.Done, p.Total, p.Percent)
		}
		fmt.Println()
		if err := <-task.Done; err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		elapsed := time.Since(start)

		status = s.Status()
		kpis := s.Kpis()
		fmt.Printf("Built %d vectors, %d clusters in %s\n",
			status.VectorCount, status.ClusterCount, elapsed.Round(time.Millisecond))
		fmt.Printf("Redundancy %.1f%%, entropy %.1f%%, %d exact duplicate groups\n",
			kpis.RedundancyScore, kpis.EntropyScore, kpis.ExactDuplicateGroups)
		return nil
	},
}

func init() {
	benchCmd.Flags().BoolVar(&benchQuick, "quick", false, "embed a bounded sample instead of the full dataset")
	rootCmd.AddCommand(benchCmd)
}
