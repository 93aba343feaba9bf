package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool

	cfg    *Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "photometa-restore",
	Short: "Restore photo metadata from export sidecar files",
	Long: `photometa-restore reconciles a bulk photo export: it matches every JSON
sidecar record to its media file, writes the recorded timestamp and GPS
position back into the file, and moves the file into MatchedMedia.

Records that cannot be matched are listed in logs/missing_files_*.log;
every other failure goes to logs/errors_*.log. Processed sidecars are
deleted, so a run can be repeated safely.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		if cfg, err = LoadConfig(configPath); err != nil {
			return err
		}
		if logger, err = NewConsoleLogger(verbose); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", getConfigPath(), "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every step")
}
