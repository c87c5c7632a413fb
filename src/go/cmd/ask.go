package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arvind3/qa-intelligence-platform/src/go/config"
	"github.com/arvind3/qa-intelligence-platform/src/go/session"
	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

var askNoBuild bool

var askCmd = &cobra.Command{
	Use:   "ask [dataset.json] [question...]",
	Short: "Ask a question about a dataset",
	Long: `Load a dataset, run a quick embedding build and answer a free-text
question about the suite. Without a reachable reasoning model the answer is
composed deterministically from the KPI evidence.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		s, err := session.New(cfg, newLogger())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.LoadDatasetFile(args[0]); err != nil {
			return err
		}

		if !askNoBuild {
			task, err := s.StartBuild(cmd.Context(), types.BuildQuick)
			if err != nil {
				return err
			}
			for range task.Progress {
			}
			if err := <-task.Done; err != nil {
				return fmt.Errorf("build failed: %w", err)
			}
		}

		question := strings.Join(args[1:], " ")
		fmt.Println(s.Ask(cmd.Context(), question))
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askNoBuild, "no-build", false, "answer from text analytics only, skip the embedding build")
	rootCmd.AddCommand(askCmd)
}
