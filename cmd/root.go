package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"progress-server-go/chart"
	"progress-server-go/config"
	"progress-server-go/logging"
	"progress-server-go/scorer"
)

var (
	version = "v0.0.1-default"
	commit  = ""
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "progress",
		Short:         "Student academic improvement analysis",
		Long:          "Fits a quadratic trend to five weekly test scores and classifies a student's improvement.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Path to a YAML config file")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().String("policy", "", "Scoring policy: slope or growth (overrides config)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// loadConfig reads --config and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if p, _ := cmd.Flags().GetString("policy"); p != "" {
		cfg.Scoring.Policy = p
		cfg.Scoring.Table = nil
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.Development)
}

func newScorer(cfg *config.Config) (*scorer.Scorer, error) {
	p, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	return scorer.New(p, scorer.WithSamples(cfg.Chart.Samples))
}

func newCharts(cfg *config.Config) *chart.Renderer {
	return chart.New(cfg.Chart.Width, cfg.Chart.Height)
}
