package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ecomap/internal/config"
)

var cfg *config.Config

// Persistent flags. Each one overrides the matching config key when set.
var (
	configPath string
	sourceFlag string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "ecomap",
	Short: "Air-quality sustainability map",
	Long:  "Loads an air-quality dataset, infers its columns, scores and classifies each location, and serves a searchable map API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadFile(configPath)
		if err != nil {
			return eris.Wrap(err, "ecomap: load config")
		}
		applyFlagOverrides(c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "ecomap: init logger")
		}
		zap.L().Debug("config loaded",
			zap.String("component", "cmd"),
			zap.String("command", cmd.Name()),
			zap.String("source", cfg.Dataset.Source),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func applyFlagOverrides(c *config.Config) {
	if sourceFlag != "" {
		c.Dataset.Source = sourceFlag
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "dataset path or http/ftp URL (overrides dataset.source)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
