package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arvind3/qa-intelligence-platform/src/go/config"
	"github.com/arvind3/qa-intelligence-platform/src/go/session"
	"github.com/arvind3/qa-intelligence-platform/src/go/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dataset.json]",
	Short: "Watch a dataset file and print KPIs on every change",
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

		reporter := &kpiReporter{session: s}
		if err := reporter.LoadDatasetFile(args[0]); err != nil {
			return err
		}

		w, err := watcher.NewWatcher(args[0], reporter, cfg.Watcher.DebounceMs, newLogger())
		if err != nil {
			return err
		}
		defer w.Close()

		fmt.Printf("Watching %s (ctrl-c to stop)\n", args[0])
		w.Start(cmd.Context())
		<-cmd.Context().Done()
		return nil
	},
}

// kpiReporter reloads the session and prints the refreshed KPIs.
type kpiReporter struct {
	session *session.Session
}

func (r *kpiReporter) LoadDatasetFile(path string) error {
	if err := r.session.LoadDatasetFile(path); err != nil {
		fmt.Printf("reload failed: %v\n", err)
		return err
	}
	kpis := r.session.Kpis()
	fmt.Printf("%d tests, %d exact dup groups, %d near dup groups, redundancy %.1f%%, entropy %.1f%%\n",
		kpis.TotalTests, kpis.ExactDuplicateGroups, kpis.NearDuplicateGroups,
		kpis.RedundancyScore, kpis.EntropyScore)
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
