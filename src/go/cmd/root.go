package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "qaintel",
		Short: "QA Intelligence - test-suite quality analytics",
		Long: `QA Intelligence analyzes test-case datasets for redundancy and coverage:
it embeds test cases, clusters near-duplicates, computes quality KPIs and
answers questions about the suite. Everything runs locally; the optional
reasoning model degrades to a deterministic evidence-based answer.`,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.config/qaintel/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the CLI logger. Quiet by default so command output stays
// parseable.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
